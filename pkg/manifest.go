package tagver

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// versionExpr matches a version with an optional "v" prefix and an
// optional prerelease suffix.
const versionExpr = `v?(\d+\.\d+\.\d+(?:-[a-zA-Z0-9.-]+)?)`

// VersionPattern is a named pattern locating a declared version in a file.
// The version is the first capture group of Pattern.
type VersionPattern struct {
	Pattern *regexp.Regexp
	Name    string
}

func versionPattern(name, before, after string) VersionPattern {
	return VersionPattern{Name: name, Pattern: regexp.MustCompile(before + versionExpr + after)}
}

// ManifestPatterns find version declarations anywhere in a file.
var ManifestPatterns = []VersionPattern{
	versionPattern("JSON version field", `"version"\s*:\s*"`, `"`),
	versionPattern("VERSION assignment", `(?i)VERSION\s*[:=]\s*["']?`, `["']?`),
	versionPattern("doc comment version", `@version\s+`, ``),
	versionPattern("XML version tag", `<version>`, `</version>`),
	versionPattern("TOML version field", `version\s*=\s*"`, `"`),
	versionPattern("markdown version header", `(?i)#\s*version\s+`, ``),
}

// MainVersionPatterns match declarations that are the primary version of
// a project rather than a dependency version.
var MainVersionPatterns = []VersionPattern{
	versionPattern("root JSON version field", `^\s*"version"\s*:\s*"`, `"`),
	versionPattern("root TOML version field", `^\s*version\s*=\s*"`, `"`),
	versionPattern("root VERSION assignment", `(?i)^\s*VERSION\s*[:=]\s*["']?`, `["']?`),
}

// VersionMatch is a version declaration found in a file.
type VersionMatch struct {
	Line    int
	Version string
	Pattern string
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return strings.Split(string(data), "\n"), nil
}

// FindVersionsInFile returns every version declaration in the file, in
// line order. A position matched by several patterns is reported once.
func FindVersionsInFile(path string) ([]VersionMatch, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	var matches []VersionMatch
	for i, line := range lines {
		seen := make(map[[2]int]bool)
		for _, vp := range ManifestPatterns {
			for _, m := range vp.Pattern.FindAllStringSubmatchIndex(line, -1) {
				key := [2]int{m[2], m[3]}
				if seen[key] {
					continue
				}
				seen[key] = true
				matches = append(matches, VersionMatch{
					Line:    i + 1,
					Version: line[m[2]:m[3]],
					Pattern: vp.Name,
				})
			}
		}
	}
	return matches, nil
}

// FindMainVersionInFile returns the primary version declared in the file,
// or nil when it declares none. Root-level declarations win; otherwise a
// TOML [package] section, then the first declaration found.
func FindMainVersionInFile(path string) (*VersionMatch, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	for i, line := range lines {
		for _, vp := range MainVersionPatterns {
			if m := vp.Pattern.FindStringSubmatch(line); m != nil {
				return &VersionMatch{Line: i + 1, Version: m[1], Pattern: vp.Name}, nil
			}
		}
	}

	matches, err := FindVersionsInFile(path)
	if err != nil || len(matches) == 0 {
		return nil, err
	}

	if strings.HasSuffix(path, ".toml") {
		for i, m := range matches {
			if tomlSection(lines, m.Line) == "package" {
				return &matches[i], nil
			}
		}
	}
	return &matches[0], nil
}

// tomlSection returns the name of the TOML table containing line (1-based).
func tomlSection(lines []string, line int) string {
	for j := line - 1; j >= 1; j-- {
		s := strings.TrimSpace(lines[j-1])
		if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
			return strings.Trim(s, "[]")
		}
	}
	return ""
}

// ManifestCheck compares the version declared in a manifest with an
// expected version.
type ManifestCheck struct {
	Path     string `json:"path"`
	Declared string `json:"declared,omitempty"`
	Line     int    `json:"line,omitempty"`
	OK       bool   `json:"ok"`
	Problem  string `json:"problem,omitempty"`
}

// CheckManifests looks up the main version of each manifest (relative
// paths are resolved against root) and compares it with version.
func CheckManifests(root string, manifests []string, version string) []ManifestCheck {
	checks := make([]ManifestCheck, 0, len(manifests))
	for _, m := range manifests {
		p := m
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		c := ManifestCheck{Path: m}

		match, err := FindMainVersionInFile(p)
		switch {
		case err != nil:
			c.Problem = err.Error()
		case match == nil:
			c.Problem = "no version declared"
		default:
			c.Declared = match.Version
			c.Line = match.Line
			c.OK = match.Version == version
			if !c.OK {
				c.Problem = fmt.Sprintf("declares %s, expected %s", match.Version, version)
			}
		}
		checks = append(checks, c)
	}
	return checks
}
