package tagver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidBumpKind is returned when a bump directive is not recognized.
var ErrInvalidBumpKind = errors.New("invalid bump kind")

// Version is a release version with exactly three numeric components.
// Prerelease and build metadata are not part of a release version.
type Version struct {
	Major uint64 `json:"major"`
	Minor uint64 `json:"minor"`
	Patch uint64 `json:"patch"`
}

// String renders the version as "major.minor.patch" without a "v" prefix.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// canonical renders the version the way golang.org/x/mod/semver expects it.
func (v Version) canonical() string {
	return "v" + v.String()
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal
// to, or after w.
func (v Version) Compare(w Version) int {
	return semver.Compare(v.canonical(), w.canonical())
}

// ParseVersion parses "major.minor.patch" (no prefix). Anything else,
// including prerelease or build suffixes and leading zeros, is rejected.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("unexpected version format: %s", s)
	}
	for _, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return Version{}, fmt.Errorf("unexpected version format: %s", s)
		}
	}
	if !semver.IsValid("v" + s) {
		return Version{}, fmt.Errorf("version %q is not valid semver", s)
	}

	var v Version
	var err error
	if v.Major, err = strconv.ParseUint(parts[0], 10, 64); err != nil {
		return Version{}, err
	}
	if v.Minor, err = strconv.ParseUint(parts[1], 10, 64); err != nil {
		return Version{}, err
	}
	if v.Patch, err = strconv.ParseUint(parts[2], 10, 64); err != nil {
		return Version{}, err
	}
	return v, nil
}

// formatSemVer renders a version with an optional prerelease identifier.
func formatSemVer(v Version, prerelease string) string {
	if prerelease != "" {
		return v.String() + "-" + prerelease
	}
	return v.String()
}

// bumpVersion applies a standard semver increment to current.
// Supported bump kinds are: "major", "minor", "patch", "premajor",
// "preminor", "prepatch".
func bumpVersion(current Version, bump string) (string, error) {
	next := current
	prerelease := ""

	switch bump {
	case "major":
		next = Version{Major: current.Major + 1}
	case "minor":
		next = Version{Major: current.Major, Minor: current.Minor + 1}
	case "patch":
		next.Patch++
	case "premajor":
		next = Version{Major: current.Major + 1}
		prerelease = "0"
	case "preminor":
		next = Version{Major: current.Major, Minor: current.Minor + 1}
		prerelease = "0"
	case "prepatch":
		next.Patch++
		prerelease = "0"
	default:
		return "", fmt.Errorf("%w: %q (want major, minor, patch, premajor, preminor or prepatch)", ErrInvalidBumpKind, bump)
	}

	return formatSemVer(next, prerelease), nil
}
