package tagver

import (
	"context"
	"fmt"

	"github.com/bcomnes/tagver/internal/logging"
)

// RepositoryState is the checkout the version is computed for.
type RepositoryState struct {
	Branch  string `json:"branch"`
	Head    string `json:"head"`
	IsTrunk bool   `json:"isTrunk"`
}

// VersionResult is the outcome of ComputeVersion.
type VersionResult struct {
	Version              string       `json:"version"`
	Baseline             *VersionTag  `json:"baseline,omitempty"`
	CommitsSinceBaseline uint64       `json:"commitsSinceBaseline"`
	Tally                BumpTally    `json:"tally"`
	Branch               string       `json:"branch"`
	IsTrunk              bool         `json:"isTrunk"`
	Head                 string       `json:"head,omitempty"`
	Strategy             ScanStrategy `json:"strategy,omitempty"`
	Truncated            bool         `json:"truncated,omitempty"`
	Path                 string       `json:"path,omitempty"`
}

// BaselineVersion returns the baseline version, or 0.0.0 without one.
func (r VersionResult) BaselineVersion() Version {
	if r.Baseline == nil {
		return Version{}
	}
	return r.Baseline.Version
}

// readState determines branch, HEAD and trunk membership. Query failures
// degrade to an unknown branch and no HEAD.
func readState(ctx context.Context, repo Repository, o Options, log *logging.Logger) (RepositoryState, error) {
	var st RepositoryState

	head, err := repo.Head(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return st, ctxErr
		}
		log.Warnf("resolving HEAD failed, assuming an empty history: %v", err)
	}
	st.Head = head

	st.Branch = o.Branch
	if st.Branch == "" {
		branch, err := repo.CurrentBranch(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return st, ctxErr
			}
			log.Warnf("resolving the current branch failed: %v", err)
		}
		st.Branch = branch
	}
	if st.Branch == "" {
		st.Branch = unknownBranch
	}

	st.IsTrunk = BranchPolicy{Trunks: o.TrunkBranches}.IsTrunk(st.Branch)
	return st, nil
}

// ComputeVersion derives the version of the checkout described by opts.
// Absent data (no repository, no tags, no commits) never fails; invalid
// options and cancellation do.
func ComputeVersion(ctx context.Context, opts Options) (VersionResult, error) {
	if err := opts.Validate(); err != nil {
		return VersionResult{}, err
	}
	o := opts.withDefaults()

	classifier, err := NewClassifier(o.Patterns)
	if err != nil {
		return VersionResult{}, err
	}

	log := o.Log.Component("engine")

	repo := o.Repository
	if repo == nil {
		repo, err = OpenRepository(o.RepositoryPath, o.Backend)
		if err != nil {
			log.Warnf("cannot read repository at %s, continuing with an empty history: %v", o.RepositoryPath, err)
			repo = emptyRepository{}
		}
	}

	state, err := readState(ctx, repo, o, log)
	if err != nil {
		return VersionResult{}, fmt.Errorf("computing version: %w", err)
	}
	log.Debugf("branch %s (trunk=%t) at %s", state.Branch, state.IsTrunk, state.Head)

	o.Progress.emit(StageTags, 0, 0)
	baseline, err := ResolveBaseline(ctx, repo, o.TagPrefix, state.Head, o.Log.Component("tags"))
	if err != nil {
		return VersionResult{}, fmt.Errorf("computing version: %w", err)
	}

	from := ""
	comp := Composition{Precedence: o.Precedence}
	if baseline != nil {
		from = baseline.Commit
		v := baseline.Version
		comp.Baseline = &v
		log.Debugf("baseline %s at %s", baseline.Name, baseline.Commit)
	}

	scanner := &Scanner{
		Repo:     repo,
		Strategy: o.Strategy,
		Limit:    o.ExhaustiveLimit,
		Patterns: o.Patterns,
		Progress: o.Progress,
		Log:      o.Log.Component("scan"),
	}

	if comp.CommitsSinceBaseline, err = scanner.Count(ctx, from, state.Head); err != nil {
		return VersionResult{}, fmt.Errorf("computing version: %w", err)
	}

	res := VersionResult{
		Baseline:             baseline,
		CommitsSinceBaseline: comp.CommitsSinceBaseline,
		Branch:               state.Branch,
		IsTrunk:              state.IsTrunk,
		Head:                 state.Head,
		Path:                 o.RepositoryPath,
	}

	if state.IsTrunk && !o.DisableCommitBumps {
		scan, err := scanner.Commits(ctx, from, state.Head)
		if err != nil {
			return VersionResult{}, fmt.Errorf("computing version: %w", err)
		}
		res.Strategy = scan.Strategy
		res.Truncated = scan.Truncated

		comp.Tally = Aggregate(scan.Commits, classifier)
		if comp.Tally.Explicit != nil {
			if comp.CommitsSinceExplicit, err = scanner.Count(ctx, comp.Tally.ExplicitCommit, state.Head); err != nil {
				return VersionResult{}, fmt.Errorf("computing version: %w", err)
			}
		}
		res.Tally = comp.Tally
	}

	if err := ctx.Err(); err != nil {
		return VersionResult{}, fmt.Errorf("computing version: %w", err)
	}

	o.Progress.emit(StageCompose, 0, 0)
	res.Version = FormatVersion(FormatInput{
		IsTrunk:     state.IsTrunk,
		Branch:      state.Branch,
		Composition: comp,
	})
	log.Debugf("computed %s", res.Version)
	return res, nil
}

// SuggestBump computes the version of the checkout and then applies a
// standard increment of the given kind to its baseline (0.0.0 without
// one). Commit bump markers are ignored.
func SuggestBump(ctx context.Context, kind string, opts Options) (string, error) {
	if _, err := bumpVersion(Version{}, kind); err != nil {
		return "", err
	}
	res, err := ComputeVersion(ctx, opts)
	if err != nil {
		return "", err
	}
	return bumpVersion(res.BaselineVersion(), kind)
}
