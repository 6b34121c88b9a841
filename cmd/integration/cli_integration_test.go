package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestCLIBinaryIntegration(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	// 1. Build the CLI binary.
	tmpBuildDir := t.TempDir()
	binPath := filepath.Join(tmpBuildDir, "tagver")
	// This test resides in cmd/integration; the main package is the module root.
	buildCmd := exec.Command("go", "build", "-o", binPath, "../..")
	if buildOutput, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build CLI binary: %v; build output: %s", err, string(buildOutput))
	}

	// 2. Set up a temporary git repository for testing.
	tmpRepo := t.TempDir()
	runGit := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = tmpRepo
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Test User",
			"GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=Test User",
			"GIT_COMMITTER_EMAIL=test@example.com",
		)
		if output, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v; output: %s", args, err, string(output))
		}
	}
	runGit("init")
	runGit("symbolic-ref", "HEAD", "refs/heads/master")

	// 3. Record a release and some history after it.
	runGit("commit", "--allow-empty", "-m", "initial")
	runGit("tag", "-a", "v0.9.0", "-m", "release 0.9.0")
	for _, msg := range []string{"fix: crash on empty input", "feat: add --format", "docs: usage"} {
		runGit("commit", "--allow-empty", "-m", msg)
	}

	run := func(args ...string) string {
		t.Helper()
		cmd := exec.Command(binPath, args...)
		cmd.Dir = tmpRepo
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("tagver %v failed: %v; output: %s", args, err, string(out))
		}
		return strings.TrimSpace(string(out))
	}

	// 4. Check the computed versions.
	if got := run(); got != "0.10.1" {
		t.Errorf("expected 0.10.1, got %q", got)
	}
	if got := run("--backend", "go-git"); got != "0.10.1" {
		t.Errorf("go-git backend: expected 0.10.1, got %q", got)
	}
	if got := run("bump", "major"); got != "1.0.0" {
		t.Errorf("bump major: expected 1.0.0, got %q", got)
	}

	runGit("checkout", "-b", "topic/improve")
	runGit("commit", "--allow-empty", "-m", "wip")
	if got := run(); got != "0.9.1-topic-improve.4" {
		t.Errorf("topic branch: expected 0.9.1-topic-improve.4, got %q", got)
	}

	// 5. Confirm that nothing was written to the repository.
	statusCmd := exec.Command("git", "status", "--porcelain")
	statusCmd.Dir = tmpRepo
	status, err := statusCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git status failed: %v", err)
	}
	if len(strings.TrimSpace(string(status))) != 0 {
		t.Errorf("expected a clean working tree, got:\n%s", status)
	}
	tagsCmd := exec.Command("git", "tag")
	tagsCmd.Dir = tmpRepo
	tags, _ := tagsCmd.CombinedOutput()
	if strings.TrimSpace(string(tags)) != "v0.9.0" {
		t.Errorf("expected only the original tag, got:\n%s", tags)
	}
}
