package tagver

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func TestComputeVersionScenarios(t *testing.T) {
	tests := []struct {
		name  string
		setup func() *fakeRepo
		opts  Options
		want  string
	}{
		{
			name: "no tags, plain commits on trunk",
			setup: func() *fakeRepo {
				return newFakeRepo("main", "a", "b", "c", "d", "e")
			},
			want: "0.0.5",
		},
		{
			name: "no tags, feature branch",
			setup: func() *fakeRepo {
				return newFakeRepo("topic/x", "a", "b", "c")
			},
			want: "0.0.1-topic-x.3",
		},
		{
			name: "plain commits after baseline",
			setup: func() *fakeRepo {
				r := newFakeRepo("master", "release")
				r.tag("v1.2.3", 1)
				r.commit("one", "two", "three")
				return r
			},
			want: "1.2.6",
		},
		{
			name: "tag on HEAD",
			setup: func() *fakeRepo {
				r := newFakeRepo("main", "a", "b")
				r.tag("v2.3.4", 2)
				return r
			},
			want: "2.3.4",
		},
		{
			name: "minor and patch markers",
			setup: func() *fakeRepo {
				r := newFakeRepo("main", "release")
				r.tag("v1.2.0", 1)
				r.commit("feat: a", "feat: b", "fix: c")
				return r
			},
			// Each minor marker adds one to minor and patch counts the
			// patch markers. DESIGN.md records why this is not 1.2.1.
			want: "1.4.1",
		},
		{
			name: "major marker resets minor and patch",
			setup: func() *fakeRepo {
				r := newFakeRepo("main", "release")
				r.tag("v1.2.3", 1)
				r.commit("feat: a", "feat!: b", "fix: c", "docs")
				return r
			},
			want: "2.0.1",
		},
		{
			name: "feature branch with markers",
			setup: func() *fakeRepo {
				r := newFakeRepo("feature/test@123", "release")
				r.tag("v1.0.0", 1)
				r.commit("feat!: a", "b")
				return r
			},
			want: "1.0.1-feature-test-123.2",
		},
		{
			name: "explicit version then plain commits",
			setup: func() *fakeRepo {
				r := newFakeRepo("main", "release")
				r.tag("v1.0.0", 1)
				r.commit("[v:2.0.0] jump", "one", "two")
				return r
			},
			want: "2.0.2",
		},
		{
			name: "explicit version with newer markers, absolute",
			setup: func() *fakeRepo {
				r := newFakeRepo("main", "release")
				r.tag("v1.0.0", 1)
				r.commit("[v:2.0.0] jump", "feat: x")
				return r
			},
			want: "2.0.1",
		},
		{
			name: "explicit version with newer markers, floor",
			setup: func() *fakeRepo {
				r := newFakeRepo("main", "release")
				r.tag("v1.0.0", 1)
				r.commit("[v:2.0.0] jump", "feat: x")
				return r
			},
			opts: Options{Precedence: PrecedenceFloor},
			want: "2.1.0",
		},
		{
			name: "commit bumps disabled",
			setup: func() *fakeRepo {
				r := newFakeRepo("main", "release")
				r.tag("v1.0.0", 1)
				r.commit("feat!: a", "[v:5.0.0]", "fix: c")
				return r
			},
			opts: Options{DisableCommitBumps: true},
			want: "1.0.3",
		},
		{
			name: "unreachable higher tag is ignored",
			setup: func() *fakeRepo {
				r := newFakeRepo("main", "a", "b")
				r.tag("v1.0.0", 1)
				r.tags = append(r.tags, TagRef{Name: "v3.0.0", Commit: "other-branch"})
				return r
			},
			want: "1.0.1",
		},
		{
			name: "custom tag prefix",
			setup: func() *fakeRepo {
				r := newFakeRepo("main", "a", "b")
				r.tag("v9.0.0", 1)
				r.tag("release-1.0.0", 1)
				return r
			},
			opts: Options{TagPrefix: "release-"},
			want: "1.0.1",
		},
		{
			name: "no tag prefix",
			setup: func() *fakeRepo {
				r := newFakeRepo("main", "a", "b")
				r.tag("v9.0.0", 1)
				r.tag("1.0.0", 1)
				return r
			},
			opts: Options{TagPrefix: NoTagPrefix},
			want: "1.0.1",
		},
		{
			name: "release branch glob is trunk",
			setup: func() *fakeRepo {
				r := newFakeRepo("release/1.x", "a")
				r.tag("v1.0.0", 1)
				r.commit("feat: b")
				return r
			},
			opts: Options{TrunkBranches: []string{"main", "release/**"}},
			want: "1.1.0",
		},
		{
			name: "branch override",
			setup: func() *fakeRepo {
				return newFakeRepo("HEAD", "a", "b")
			},
			opts: Options{Branch: "main"},
			want: "0.0.2",
		},
		{
			name: "exhaustive scan",
			setup: func() *fakeRepo {
				r := newFakeRepo("main", "release")
				r.tag("v0.1.0", 1)
				r.commit("fix: a", "feat: b")
				return r
			},
			opts: Options{Strategy: StrategyExhaustive},
			want: "0.2.1",
		},
		{
			name: "exhaustive scan misses markers beyond the limit",
			setup: func() *fakeRepo {
				r := newFakeRepo("main", "release")
				r.tag("v1.0.0", 1)
				r.commit("feat!: old", "a", "b")
				return r
			},
			opts: Options{Strategy: StrategyExhaustive, ExhaustiveLimit: 2},
			want: "1.0.3",
		},
		{
			name: "branch lookup failure",
			setup: func() *fakeRepo {
				r := newFakeRepo("", "a")
				r.branchErr = errors.New("boom")
				return r
			},
			want: "0.0.1-unknown.1",
		},
		{
			name: "empty repository",
			setup: func() *fakeRepo {
				return newFakeRepo("main")
			},
			want: "0.0.0",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := tc.opts
			opts.Repository = tc.setup()
			res, err := ComputeVersion(context.Background(), opts)
			if err != nil {
				t.Fatalf("ComputeVersion failed: %v", err)
			}
			if res.Version != tc.want {
				t.Errorf("version = %s, expected %s (result %+v)", res.Version, tc.want, res)
			}
		})
	}
}

func TestComputeVersionResultDetails(t *testing.T) {
	repo := newFakeRepo("main", "release")
	repo.tag("v1.2.0", 1)
	repo.commit("feat: a", "feat: b", "fix: c", "docs")

	res, err := ComputeVersion(context.Background(), Options{Repository: repo})
	if err != nil {
		t.Fatalf("ComputeVersion failed: %v", err)
	}
	if res.Baseline == nil || res.Baseline.Name != "v1.2.0" {
		t.Errorf("baseline = %+v, expected v1.2.0", res.Baseline)
	}
	if res.BaselineVersion() != (Version{1, 2, 0}) {
		t.Errorf("BaselineVersion() = %v", res.BaselineVersion())
	}
	if res.CommitsSinceBaseline != 4 {
		t.Errorf("commits since baseline = %d, expected 4", res.CommitsSinceBaseline)
	}
	if res.Tally.Minor != 2 || res.Tally.Patch != 1 {
		t.Errorf("tally = %+v, expected 2 minor and 1 patch", res.Tally)
	}
	if !res.IsTrunk || res.Branch != "main" || res.Head != "c5" || res.Strategy != StrategyTargeted {
		t.Errorf("unexpected state in %+v", res)
	}
}

func TestComputeVersionTargetedFallback(t *testing.T) {
	repo := newFakeRepo("main", "release")
	repo.tag("v1.0.0", 1)
	repo.commit("feat: a", "b")
	repo.grepErr = errors.New("regex not supported")

	res, err := ComputeVersion(context.Background(), Options{Repository: repo})
	if err != nil {
		t.Fatalf("ComputeVersion failed: %v", err)
	}
	if res.Version != "1.1.0" || res.Strategy != StrategyExhaustive {
		t.Errorf("expected 1.1.0 via exhaustive fallback, got %s via %s", res.Version, res.Strategy)
	}
}

func TestComputeVersionIsDeterministic(t *testing.T) {
	repo := newFakeRepo("main", "release")
	repo.tag("v1.0.0", 1)
	repo.commit("feat: a", "[v:1.5.0]", "fix: c", "d")

	first, err := ComputeVersion(context.Background(), Options{Repository: repo})
	if err != nil {
		t.Fatalf("ComputeVersion failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := ComputeVersion(context.Background(), Options{Repository: repo})
		if again.Version != first.Version {
			t.Fatalf("run %d: %s != %s", i, again.Version, first.Version)
		}
	}
}

func TestComputeVersionProgress(t *testing.T) {
	repo := newFakeRepo("main", "a", "feat: b")

	var mu sync.Mutex
	var stages []Stage
	opts := Options{
		Repository: repo,
		Progress: func(ev ProgressEvent) {
			mu.Lock()
			stages = append(stages, ev.Stage)
			mu.Unlock()
		},
	}
	if _, err := ComputeVersion(context.Background(), opts); err != nil {
		t.Fatalf("ComputeVersion failed: %v", err)
	}
	if len(stages) == 0 || stages[0] != StageTags || stages[len(stages)-1] != StageCompose {
		t.Errorf("stages = %v, expected tags first and compose last", stages)
	}
}

func TestComputeVersionErrors(t *testing.T) {
	repo := newFakeRepo("main", "a")

	invalid := []Options{
		{Repository: repo, Strategy: "sampled"},
		{Repository: repo, Precedence: "ceiling"},
		{Repository: repo, Backend: "svn"},
		{Repository: repo, ExhaustiveLimit: -1},
		{Repository: repo, Patterns: BumpPatterns{Minor: "("}},
	}
	for _, opts := range invalid {
		if _, err := ComputeVersion(context.Background(), opts); err == nil {
			t.Errorf("ComputeVersion(%+v) expected error", opts)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ComputeVersion(ctx, Options{Repository: repo}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestComputeVersionNotARepository(t *testing.T) {
	dir := t.TempDir()
	res, err := ComputeVersion(context.Background(), Options{
		RepositoryPath: filepath.Join(dir, "missing"),
		Backend:        BackendGoGit,
	})
	if err != nil {
		t.Fatalf("expected degraded result, got error %v", err)
	}
	if res.Version != "0.0.1-unknown.0" || res.Baseline != nil {
		t.Errorf("unexpected result for a missing repository: %+v", res)
	}
}

func TestSuggestBump(t *testing.T) {
	repo := newFakeRepo("main", "release")
	repo.tag("v1.2.3", 1)
	repo.commit("feat!: ignored by bump", "fix: also ignored")

	tests := []struct {
		kind, want string
	}{
		{"major", "2.0.0"},
		{"minor", "1.3.0"},
		{"patch", "1.2.4"},
		{"prepatch", "1.2.4-0"},
	}
	for _, tc := range tests {
		got, err := SuggestBump(context.Background(), tc.kind, Options{Repository: repo})
		if err != nil {
			t.Errorf("SuggestBump(%s) failed: %v", tc.kind, err)
			continue
		}
		if got != tc.want {
			t.Errorf("SuggestBump(%s) = %s, expected %s", tc.kind, got, tc.want)
		}
	}

	empty := newFakeRepo("main", "a")
	if got, _ := SuggestBump(context.Background(), "minor", Options{Repository: empty}); got != "0.1.0" {
		t.Errorf("SuggestBump without baseline = %s, expected 0.1.0", got)
	}

	if _, err := SuggestBump(context.Background(), "gigantic", Options{Repository: repo}); !errors.Is(err, ErrInvalidBumpKind) {
		t.Errorf("expected ErrInvalidBumpKind, got %v", err)
	}
	if len(repo.queries) != 4 {
		t.Errorf("invalid kind should fail before reading the repository; %d queries recorded", len(repo.queries))
	}
}
