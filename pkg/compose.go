package tagver

import "fmt"

// ExplicitPrecedence decides how an explicit version marker interacts with
// the bump markers of commits newer than it.
type ExplicitPrecedence string

const (
	// PrecedenceAbsolute makes the explicit version win over every bump
	// marker. Commits newer than the marker still count as patch
	// increments.
	PrecedenceAbsolute ExplicitPrecedence = "absolute"
	// PrecedenceFloor treats the explicit version as a new baseline and
	// applies newer bump markers on top of it.
	PrecedenceFloor ExplicitPrecedence = "floor"
)

// ParseExplicitPrecedence validates a precedence name. Empty means absolute.
func ParseExplicitPrecedence(s string) (ExplicitPrecedence, error) {
	switch ExplicitPrecedence(s) {
	case PrecedenceAbsolute, "":
		return PrecedenceAbsolute, nil
	case PrecedenceFloor:
		return PrecedenceFloor, nil
	default:
		return "", fmt.Errorf("unknown explicit precedence: %q (want absolute or floor)", s)
	}
}

// Composition is the input of Compose.
type Composition struct {
	// Baseline is nil when no release tag is reachable.
	Baseline *Version
	Tally    BumpTally
	// CommitsSinceBaseline counts every commit since the baseline (or the
	// root of history).
	CommitsSinceBaseline uint64
	// CommitsSinceExplicit counts the commits newer than
	// Tally.ExplicitCommit. Ignored without an explicit version.
	CommitsSinceExplicit uint64
	Precedence           ExplicitPrecedence
}

// Compose folds a baseline and a tally into the trunk release version.
func Compose(c Composition) Version {
	if c.Tally.Explicit != nil {
		explicit := *c.Tally.Explicit
		if c.Precedence == PrecedenceFloor {
			newer := c.Tally
			newer.Explicit = nil
			newer.ExplicitCommit = ""
			return applyBumps(explicit, newer, c.CommitsSinceExplicit)
		}
		explicit.Patch += c.CommitsSinceExplicit
		return explicit
	}

	var base Version
	if c.Baseline != nil {
		base = *c.Baseline
	}
	return applyBumps(base, c.Tally, c.CommitsSinceBaseline)
}

// applyBumps applies major, minor and patch counters to base. Without any
// counters every commit counts as one patch increment.
func applyBumps(base Version, t BumpTally, commits uint64) Version {
	switch {
	case t.Major > 0:
		return Version{Major: base.Major + t.Major, Patch: t.Patch}
	case t.Minor > 0:
		return Version{Major: base.Major, Minor: base.Minor + t.Minor, Patch: t.Patch}
	default:
		return Version{Major: base.Major, Minor: base.Minor, Patch: base.Patch + commits}
	}
}
