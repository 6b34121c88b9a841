package tagver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ConfigFileNames are the configuration files FindConfigFile looks for, in
// order of preference.
var ConfigFileNames = []string{".tagver.toml", ".tagver.yaml", ".tagver.yml"}

// FileConfig is the on-disk configuration. Unset fields leave the
// corresponding option untouched.
type FileConfig struct {
	// TagPrefix is stripped from tag names. Use "-" for no prefix.
	TagPrefix string `toml:"tag_prefix" yaml:"tag_prefix"`

	// TrunkBranches lists trunk branch names or globs.
	TrunkBranches []string `toml:"trunk_branches" yaml:"trunk_branches"`

	// EnableCommitBumps turns bump marker analysis on trunk on or off.
	// Default: true
	EnableCommitBumps *bool `toml:"enable_commit_bumps" yaml:"enable_commit_bumps"`

	// Strategy is "targeted" or "exhaustive".
	Strategy string `toml:"strategy" yaml:"strategy"`

	// ExhaustiveLimit caps an exhaustive scan.
	ExhaustiveLimit int `toml:"exhaustive_limit" yaml:"exhaustive_limit"`

	// ExplicitPrecedence is "absolute" or "floor".
	ExplicitPrecedence string `toml:"explicit_precedence" yaml:"explicit_precedence"`

	// Backend is "git" or "go-git".
	Backend string `toml:"backend" yaml:"backend"`

	// Patterns overrides bump patterns per category.
	Patterns BumpPatterns `toml:"patterns" yaml:"patterns"`

	// Manifests lists files whose declared version "tagver check" compares
	// against the computed version. Paths are relative to the repository.
	Manifests []string `toml:"manifests" yaml:"manifests"`
}

// FindConfigFile returns the first configuration file present in dir, or
// "" when there is none.
func FindConfigFile(dir string) string {
	for _, name := range ConfigFileNames {
		p := filepath.Join(dir, name)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// LoadConfigFile reads a TOML or YAML configuration file, chosen by
// extension. A missing file yields an empty configuration.
func LoadConfigFile(path string) (*FileConfig, error) {
	cfg := &FileConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the enumerated values.
func (c *FileConfig) Validate() error {
	if _, err := ParseScanStrategy(c.Strategy); err != nil {
		return err
	}
	if _, err := ParseExplicitPrecedence(c.ExplicitPrecedence); err != nil {
		return err
	}
	switch Backend(c.Backend) {
	case "", BackendGit, BackendGoGit:
	default:
		return fmt.Errorf("unknown backend: %q (want git or go-git)", c.Backend)
	}
	if c.ExhaustiveLimit < 0 {
		return fmt.Errorf("exhaustive_limit cannot be negative, got %d", c.ExhaustiveLimit)
	}
	if _, err := NewClassifier(c.Patterns); err != nil {
		return err
	}
	return nil
}

// Apply copies the set fields of c onto opts.
func (c *FileConfig) Apply(opts *Options) {
	if c == nil {
		return
	}
	if c.TagPrefix != "" {
		opts.TagPrefix = c.TagPrefix
	}
	if len(c.TrunkBranches) > 0 {
		opts.TrunkBranches = c.TrunkBranches
	}
	if c.EnableCommitBumps != nil {
		opts.DisableCommitBumps = !*c.EnableCommitBumps
	}
	if c.Strategy != "" {
		opts.Strategy = ScanStrategy(c.Strategy)
	}
	if c.ExhaustiveLimit > 0 {
		opts.ExhaustiveLimit = c.ExhaustiveLimit
	}
	if c.ExplicitPrecedence != "" {
		opts.Precedence = ExplicitPrecedence(c.ExplicitPrecedence)
	}
	if c.Backend != "" {
		opts.Backend = Backend(c.Backend)
	}
	if c.Patterns.Explicit != "" {
		opts.Patterns.Explicit = c.Patterns.Explicit
	}
	if c.Patterns.Major != "" {
		opts.Patterns.Major = c.Patterns.Major
	}
	if c.Patterns.Minor != "" {
		opts.Patterns.Minor = c.Patterns.Minor
	}
	if c.Patterns.Patch != "" {
		opts.Patterns.Patch = c.Patterns.Patch
	}
}
