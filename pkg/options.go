package tagver

import (
	"fmt"

	"github.com/bcomnes/tagver/internal/logging"
)

// Options configures a version computation. The zero value is usable:
// every empty field takes its documented default.
type Options struct {
	// RepositoryPath is the checkout to inspect. Default ".".
	RepositoryPath string

	// TrunkBranches lists trunk branch names or globs. Default main, master.
	TrunkBranches []string

	// TagPrefix is stripped from tag names before parsing. Default "v".
	// Use NoTagPrefix to match bare "x.y.z" tags.
	TagPrefix string

	// DisableCommitBumps makes trunk versions ignore bump markers and use
	// the commit count only.
	DisableCommitBumps bool

	// Strategy selects targeted (default) or exhaustive scanning.
	Strategy ScanStrategy

	// ExhaustiveLimit caps an exhaustive scan when > 0. A targeted scan
	// ignores it unless it falls back to an exhaustive one.
	ExhaustiveLimit int

	// Patterns overrides the bump patterns per category.
	Patterns BumpPatterns

	// Precedence decides how explicit markers combine with newer bumps.
	// Default absolute.
	Precedence ExplicitPrecedence

	// Backend selects the repository implementation. Default git.
	Backend Backend

	// Branch overrides the detected branch, e.g. on a detached CI checkout.
	Branch string

	// Repository, when set, is used instead of opening RepositoryPath.
	Repository Repository

	// Progress receives progress events.
	Progress ProgressFunc

	// Log receives diagnostics. Nil disables logging.
	Log *logging.Logger
}

// NoTagPrefix selects tags without any prefix.
const NoTagPrefix = "-"

// withDefaults returns a copy of o with defaults applied.
func (o Options) withDefaults() Options {
	if o.RepositoryPath == "" {
		o.RepositoryPath = "."
	}
	if len(o.TrunkBranches) == 0 {
		o.TrunkBranches = DefaultTrunkBranches
	}
	switch o.TagPrefix {
	case "":
		o.TagPrefix = "v"
	case NoTagPrefix:
		o.TagPrefix = ""
	}
	if o.Strategy == "" {
		o.Strategy = StrategyTargeted
	}
	if o.Precedence == "" {
		o.Precedence = PrecedenceAbsolute
	}
	if o.Backend == "" {
		o.Backend = BackendGit
	}
	return o
}

// Validate reports invalid option values.
func (o Options) Validate() error {
	if _, err := ParseScanStrategy(string(o.Strategy)); err != nil {
		return err
	}
	if _, err := ParseExplicitPrecedence(string(o.Precedence)); err != nil {
		return err
	}
	switch o.Backend {
	case "", BackendGit, BackendGoGit:
	default:
		return fmt.Errorf("unknown backend: %q (want git or go-git)", o.Backend)
	}
	if o.ExhaustiveLimit < 0 {
		return fmt.Errorf("exhaustive limit cannot be negative, got %d", o.ExhaustiveLimit)
	}
	return nil
}
