package tagver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

// ErrNoGoMod is returned when no go.mod exists at or above a directory.
var ErrNoGoMod = errors.New("no go.mod found")

// ModuleCheck reports whether a module path is valid for a version.
// Go requires modules at v2 and above to end their path in "/vN".
type ModuleCheck struct {
	GoMod        string `json:"goMod"`
	ModulePath   string `json:"modulePath"`
	ExpectedPath string `json:"expectedPath"`
	OK           bool   `json:"ok"`
	Problem      string `json:"problem,omitempty"`
}

// locateGoModDir walks up from startDir until it finds go.mod.
func locateGoModDir(startDir string) (string, error) {
	d, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(d, "go.mod")); err == nil {
			return d, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", ErrNoGoMod
		}
		d = parent
	}
}

// expectedModulePath returns the module path a release of version should
// carry, given the current path.
func expectedModulePath(current, version string) string {
	base, _, ok := module.SplitPathVersion(current)
	if !ok {
		base = current
	}
	maj := semver.Major("v" + version)
	if maj == "v0" || maj == "v1" || maj == "" {
		return base
	}
	return base + "/" + maj
}

// CheckModulePath reads the go.mod governing dir and checks that its
// module path suits version. It never modifies go.mod.
func CheckModulePath(dir, version string) (*ModuleCheck, error) {
	modDir, err := locateGoModDir(dir)
	if err != nil {
		return nil, err
	}
	modPath := filepath.Join(modDir, "go.mod")
	data, err := os.ReadFile(modPath)
	if err != nil {
		return nil, fmt.Errorf("reading go.mod: %w", err)
	}
	f, err := modfile.ParseLax(modPath, data, nil)
	if err != nil {
		return nil, fmt.Errorf("parsing go.mod: %w", err)
	}
	if f.Module == nil {
		return nil, fmt.Errorf("parsing go.mod: module directive not found")
	}

	c := &ModuleCheck{
		GoMod:        modPath,
		ModulePath:   f.Module.Mod.Path,
		ExpectedPath: expectedModulePath(f.Module.Mod.Path, version),
	}
	_, pathMajor, _ := module.SplitPathVersion(c.ModulePath)
	if err := module.CheckPathMajor("v"+version, pathMajor); err != nil {
		c.Problem = err.Error()
		return c, nil
	}
	c.OK = true
	return c, nil
}
