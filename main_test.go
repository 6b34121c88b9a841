package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	tagver "github.com/bcomnes/tagver/pkg"
)

// TestMain triggers the CLI as a subprocess when GO_HELPER_PROCESS is set.
func TestMain(m *testing.M) {
	if os.Getenv("GO_HELPER_PROCESS") == "1" {
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// runCLI runs the CLI in helper process mode inside dir.
func runCLI(dir string, args ...string) (string, error) {
	cmd := exec.Command(os.Args[0], args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GO_HELPER_PROCESS=1")
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// gitRepo initializes a repository on branch main in a temp dir. The test
// is skipped when git is not installed.
func gitRepo(t *testing.T) (dir string, runGit func(args ...string)) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir = t.TempDir()
	runGit = func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Test User",
			"GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=Test User",
			"GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}
	runGit("init")
	runGit("symbolic-ref", "HEAD", "refs/heads/main")
	runGit("config", "user.email", "test@example.com")
	runGit("config", "user.name", "Test User")
	return dir, runGit
}

// commitAll creates one empty commit per message.
func commitAll(runGit func(args ...string), messages ...string) {
	for _, m := range messages {
		runGit("commit", "-q", "--allow-empty", "-m", m)
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"text", "json", "table"} {
		if err := validateFormat(f); err != nil {
			t.Errorf("validateFormat(%q) = %v", f, err)
		}
	}
	if err := validateFormat("yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func sampleResults() []tagver.VersionResult {
	return []tagver.VersionResult{
		{
			Path:                 "svc-a",
			Version:              "1.4.1",
			Baseline:             &tagver.VersionTag{Name: "v1.2.0", Version: tagver.Version{Major: 1, Minor: 2}},
			CommitsSinceBaseline: 3,
			Tally:                tagver.BumpTally{Minor: 2, Patch: 1},
			Branch:               "main",
			IsTrunk:              true,
		},
		{
			Path:                 "svc-b",
			Version:              "0.0.1-topic.2",
			CommitsSinceBaseline: 2,
			Branch:               "topic",
		},
	}
}

func TestWriteResultsText(t *testing.T) {
	results := sampleResults()

	var single bytes.Buffer
	if err := writeResults(&single, formatText, results[:1]); err != nil {
		t.Fatal(err)
	}
	if single.String() != "1.4.1\n" {
		t.Errorf("single result = %q, expected bare version", single.String())
	}

	var multi bytes.Buffer
	if err := writeResults(&multi, formatText, results); err != nil {
		t.Fatal(err)
	}
	if multi.String() != "svc-a: 1.4.1\nsvc-b: 0.0.1-topic.2\n" {
		t.Errorf("multiple results = %q", multi.String())
	}
}

func TestWriteResultsJSON(t *testing.T) {
	results := sampleResults()

	var single bytes.Buffer
	if err := writeResults(&single, formatJSON, results[:1]); err != nil {
		t.Fatal(err)
	}
	var res tagver.VersionResult
	if err := json.Unmarshal(single.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON %q: %v", single.String(), err)
	}
	if res.Version != "1.4.1" || res.Baseline == nil || res.Baseline.Name != "v1.2.0" || res.Tally.Minor != 2 {
		t.Errorf("decoded result = %+v", res)
	}

	var multi bytes.Buffer
	if err := writeResults(&multi, formatJSON, results); err != nil {
		t.Fatal(err)
	}
	var list []tagver.VersionResult
	if err := json.Unmarshal(multi.Bytes(), &list); err != nil || len(list) != 2 {
		t.Errorf("expected a JSON array of 2 results, got %q (%v)", multi.String(), err)
	}
}

func TestWriteResultsTable(t *testing.T) {
	var buf bytes.Buffer
	if err := writeResults(&buf, formatTable, sampleResults()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"svc-a", "1.4.1", "v1.2.0", "0.0.1-topic.2"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestDescribeTally(t *testing.T) {
	tests := []struct {
		tally tagver.BumpTally
		want  string
	}{
		{tagver.BumpTally{}, "-"},
		{tagver.BumpTally{Major: 1, Patch: 2}, "major 1, minor 0, patch 2"},
		{tagver.BumpTally{Minor: 1, Explicit: &tagver.Version{Major: 2}}, "explicit 2.0.0"},
	}
	for _, tc := range tests {
		if got := describeTally(tc.tally); got != tc.want {
			t.Errorf("describeTally(%+v) = %q, expected %q", tc.tally, got, tc.want)
		}
	}
}

func TestRootCommandInProcess(t *testing.T) {
	dir, runGit := gitRepo(t)
	commitAll(runGit, "initial")
	runGit("tag", "v0.3.0")
	commitAll(runGit, "fix: one", "chore: two")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--quiet", dir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("root command failed: %v", err)
	}
	if out.String() != "0.3.2\n" {
		t.Errorf("output = %q, expected 0.3.2", out.String())
	}
}

func TestBuildOptionsPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfg := "tag_prefix = \"rel-\"\nstrategy = \"exhaustive\"\ntrunk_branches = [\"develop\"]\n"
	if err := os.WriteFile(filepath.Join(dir, ".tagver.toml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--strategy", "targeted", "--limit", "10"}); err != nil {
		t.Fatal(err)
	}
	flags := &cliFlags{strategy: "targeted", limit: 10}
	opts, fc, err := buildOptions(cmd, flags, dir)
	if err != nil {
		t.Fatalf("buildOptions failed: %v", err)
	}
	if fc == nil || opts.TagPrefix != "rel-" || opts.TrunkBranches[0] != "develop" {
		t.Errorf("config file not applied: %+v", opts)
	}
	if opts.Strategy != tagver.StrategyTargeted || opts.ExhaustiveLimit != 10 {
		t.Errorf("flags should override the config file: %+v", opts)
	}
}
