package tagver

import (
	"fmt"
	"regexp"
	"strings"
)

// Default bump patterns. Patterns are Go regular expressions; the git
// backend pre-filters history with a POSIX rendering of them.
const (
	DefaultExplicitPattern = `\[v:([0-9]+)\.([0-9]+)\.([0-9]+)\]`
	DefaultMajorPattern    = `\[major\]|BREAKING CHANGE|^[a-zA-Z]+(\([^)]*\))?!:`
	DefaultMinorPattern    = `\[minor\]|^feat(\([^)]*\))?:`
	DefaultPatchPattern    = `\[patch\]|^fix(\([^)]*\))?:`
)

// BumpPatterns holds one regular expression per bump category. Empty
// fields fall back to the defaults.
type BumpPatterns struct {
	Explicit string `toml:"explicit" yaml:"explicit" json:"explicit,omitempty"`
	Major    string `toml:"major" yaml:"major" json:"major,omitempty"`
	Minor    string `toml:"minor" yaml:"minor" json:"minor,omitempty"`
	Patch    string `toml:"patch" yaml:"patch" json:"patch,omitempty"`
}

// withDefaults fills empty fields with the default patterns.
func (p BumpPatterns) withDefaults() BumpPatterns {
	if p.Explicit == "" {
		p.Explicit = DefaultExplicitPattern
	}
	if p.Major == "" {
		p.Major = DefaultMajorPattern
	}
	if p.Minor == "" {
		p.Minor = DefaultMinorPattern
	}
	if p.Patch == "" {
		p.Patch = DefaultPatchPattern
	}
	return p
}

// list returns the patterns in classification order.
func (p BumpPatterns) list() []string {
	p = p.withDefaults()
	return []string{p.Explicit, p.Major, p.Minor, p.Patch}
}

// BumpKind is the intent a commit message expresses.
type BumpKind int

const (
	BumpNone BumpKind = iota
	BumpPatch
	BumpMinor
	BumpMajor
	BumpExplicit
)

// String returns the lower-case bump kind name.
func (k BumpKind) String() string {
	switch k {
	case BumpPatch:
		return "patch"
	case BumpMinor:
		return "minor"
	case BumpMajor:
		return "major"
	case BumpExplicit:
		return "explicit"
	default:
		return "none"
	}
}

// Bump is the classification of a single commit message. Version is set
// only for BumpExplicit.
type Bump struct {
	Kind    BumpKind
	Version *Version
}

// Classifier maps commit messages to bump intents.
type Classifier struct {
	explicit *regexp.Regexp
	major    *regexp.Regexp
	minor    *regexp.Regexp
	patch    *regexp.Regexp
}

// NewClassifier compiles the given patterns, using defaults for empty ones.
// The explicit pattern must capture major, minor and patch in its first
// three groups, or capture the whole "x.y.z" string in its first group.
func NewClassifier(p BumpPatterns) (*Classifier, error) {
	p = p.withDefaults()

	compile := func(name, expr string) (*regexp.Regexp, error) {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", name, expr, err)
		}
		return re, nil
	}

	var c Classifier
	var err error
	if c.explicit, err = compile("explicit", p.Explicit); err != nil {
		return nil, err
	}
	if c.explicit.NumSubexp() < 1 {
		return nil, fmt.Errorf("invalid explicit pattern %q: must capture the version", p.Explicit)
	}
	if c.major, err = compile("major", p.Major); err != nil {
		return nil, err
	}
	if c.minor, err = compile("minor", p.Minor); err != nil {
		return nil, err
	}
	if c.patch, err = compile("patch", p.Patch); err != nil {
		return nil, err
	}
	return &c, nil
}

// Classify returns the highest priority intent found in message:
// explicit, then major, minor and patch.
func (c *Classifier) Classify(message string) Bump {
	if v, ok := c.explicitVersion(message); ok {
		return Bump{Kind: BumpExplicit, Version: &v}
	}
	switch {
	case c.major.MatchString(message):
		return Bump{Kind: BumpMajor}
	case c.minor.MatchString(message):
		return Bump{Kind: BumpMinor}
	case c.patch.MatchString(message):
		return Bump{Kind: BumpPatch}
	}
	return Bump{Kind: BumpNone}
}

// explicitVersion extracts the version named by an explicit marker.
// Markers that do not carry a parsable version are ignored.
func (c *Classifier) explicitVersion(message string) (Version, bool) {
	m := c.explicit.FindStringSubmatch(message)
	if m == nil {
		return Version{}, false
	}

	var raw string
	if len(m) >= 4 && m[1] != "" && m[2] != "" && m[3] != "" && !strings.Contains(m[1], ".") {
		raw = m[1] + "." + m[2] + "." + m[3]
	} else {
		raw = strings.TrimPrefix(m[1], "v")
	}

	v, err := ParseVersion(raw)
	if err != nil {
		return Version{}, false
	}
	return v, true
}
