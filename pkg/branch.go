package tagver

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultTrunkBranches are the branch names treated as trunk when none are
// configured.
var DefaultTrunkBranches = []string{"main", "master"}

// unknownBranch stands in for a branch name that cannot be determined or
// that sanitizes to nothing.
const unknownBranch = "unknown"

// BranchPolicy decides between trunk and feature-branch formatting.
type BranchPolicy struct {
	// Trunks are exact branch names or doublestar globs such as
	// "release/**".
	Trunks []string
}

// IsTrunk reports whether branch is one of the trunk branches.
func (p BranchPolicy) IsTrunk(branch string) bool {
	trunks := p.Trunks
	if len(trunks) == 0 {
		trunks = DefaultTrunkBranches
	}
	for _, t := range trunks {
		if t == branch {
			return true
		}
		if ok, err := doublestar.Match(t, branch); err == nil && ok {
			return true
		}
	}
	return false
}

// SanitizeBranch replaces every character outside [A-Za-z0-9-] with "-"
// and trims leading and trailing dashes.
func SanitizeBranch(branch string) string {
	var b strings.Builder
	b.Grow(len(branch))
	for _, r := range branch {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// FormatInput carries everything needed to render the final version.
type FormatInput struct {
	IsTrunk     bool
	Branch      string
	Composition Composition
}

// FormatVersion renders the version string. Trunk branches get the
// composed release version; other branches get a prerelease of the next
// patch release named after the branch and the commit count. A branch
// that sanitizes to nothing is named "unknown" so the result stays valid
// semver.
func FormatVersion(in FormatInput) string {
	if in.IsTrunk {
		return Compose(in.Composition).String()
	}

	next := Version{Patch: 1}
	if b := in.Composition.Baseline; b != nil {
		next = Version{Major: b.Major, Minor: b.Minor, Patch: b.Patch + 1}
	}

	id := SanitizeBranch(in.Branch)
	if id == "" {
		id = unknownBranch
	}
	return formatSemVer(next, fmt.Sprintf("%s.%d", id, in.Composition.CommitsSinceBaseline))
}
