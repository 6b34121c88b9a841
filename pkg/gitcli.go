package tagver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

const (
	// logFormat separates the commit id from the message with a unit
	// separator and terminates each record with a record separator.
	logFormat = "--format=%H%x1f%B%x1e"

	// parseChunk is the number of records parsed between cancellation
	// checks and progress events.
	parseChunk = 256
)

// GitCLI is a Repository backed by the git binary.
type GitCLI struct {
	dir string
}

// checkGit verifies that git is available on the system.
func checkGit() error {
	cmd := exec.Command("git", "--version")
	if err := cmd.Run(); err != nil {
		return errors.New("git is not available on the system")
	}
	return nil
}

// NewGitCLI returns a Repository that runs git in dir.
func NewGitCLI(dir string) (*GitCLI, error) {
	if err := checkGit(); err != nil {
		return nil, err
	}
	return &GitCLI{dir: dir}, nil
}

func (g *GitCLI) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	return cmd
}

// run executes git and returns its trimmed stdout.
func (g *GitCLI) run(ctx context.Context, args ...string) (string, error) {
	cmd := g.command(ctx, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("git %s failed: %v, detail: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(out)), nil
}

// revRange expresses "reachable from to but not from from" as rev-list
// arguments.
func revRange(from, to string) []string {
	if from == "" {
		return []string{to}
	}
	return []string{to, "^" + from}
}

// Tags lists tags with annotated tags peeled to their commit.
func (g *GitCLI) Tags(ctx context.Context) ([]TagRef, error) {
	out, err := g.run(ctx, "for-each-ref", "--format=%(refname)%09%(objectname)%09%(*objectname)", "refs/tags")
	if err != nil {
		return nil, err
	}
	return parseTagRefs(out), nil
}

// parseTagRefs parses for-each-ref output of the form
// "refs/tags/<name>\t<object>\t<peeled object>".
func parseTagRefs(out string) []TagRef {
	var refs []TagRef
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 || !strings.HasPrefix(fields[0], "refs/tags/") {
			continue
		}
		ref := TagRef{
			Name:   strings.TrimPrefix(fields[0], "refs/tags/"),
			Commit: fields[1],
		}
		if len(fields) >= 3 && fields[2] != "" {
			ref.Commit = fields[2]
		}
		refs = append(refs, ref)
	}
	return refs
}

// CurrentBranch returns the checked-out branch, or "HEAD" when detached.
func (g *GitCLI) CurrentBranch(ctx context.Context) (string, error) {
	if branch, err := g.run(ctx, "symbolic-ref", "--short", "-q", "HEAD"); err == nil && branch != "" {
		return branch, nil
	} else if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if _, err := g.run(ctx, "rev-parse", "--verify", "-q", "HEAD"); err != nil {
		return "", err
	}
	return "HEAD", nil
}

// Head returns the commit id of HEAD.
func (g *GitCLI) Head(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "--verify", "-q", "HEAD^{commit}")
}

// IsAncestor reports whether commit is an ancestor of, or equal to, head.
func (g *GitCLI) IsAncestor(ctx context.Context, commit, head string) (bool, error) {
	cmd := g.command(ctx, "merge-base", "--is-ancestor", commit, head)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("git merge-base failed: %v, detail: %s", err, strings.TrimSpace(stderr.String()))
}

// CountCommits counts commits reachable from to but not from from.
func (g *GitCLI) CountCommits(ctx context.Context, from, to string) (uint64, error) {
	args := append([]string{"rev-list", "--count"}, revRange(from, to)...)
	args = append(args, "--")
	out, err := g.run(ctx, args...)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(out, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", out, err)
	}
	return n, nil
}

// CommitMessages streams git log output newest-first. Grep patterns are
// rewritten as POSIX extended regular expressions and ORed together; the
// rewrite may admit extra commits but never drops one a pattern matches.
// A pattern git cannot evaluate fails the query with errGrepDialect.
func (g *GitCLI) CommitMessages(ctx context.Context, q LogQuery) ([]CommitRecord, error) {
	args := []string{"log", logFormat}
	if len(q.Grep) > 0 {
		args = append(args, "--extended-regexp")
		for _, p := range q.Grep {
			expr, ok := posixERE(p)
			if !ok {
				return nil, fmt.Errorf("%w: %q", errGrepDialect, p)
			}
			args = append(args, "--grep="+expr)
		}
	}
	if q.Limit > 0 {
		args = append(args, fmt.Sprintf("--max-count=%d", q.Limit))
	}
	args = append(args, revRange(q.From, q.To)...)
	args = append(args, "--")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := g.command(runCtx, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("git log failed: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("git log failed: %w", err)
	}

	commits, parseErr := parseLog(ctx, stdout, q.Progress)
	if parseErr != nil {
		cancel()
		_ = cmd.Wait()
		return nil, parseErr
	}
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("git log failed: %v, detail: %s", err, strings.TrimSpace(stderr.String()))
	}
	return commits, nil
}

// splitRecords is a bufio.SplitFunc that splits on the record separator.
func splitRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, 0x1e); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// parseLog parses records produced with logFormat. The context is checked
// and progress reported every parseChunk records.
func parseLog(ctx context.Context, r io.Reader, progress ProgressFunc) ([]CommitRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	sc.Split(splitRecords)

	var commits []CommitRecord
	for sc.Scan() {
		rec := strings.TrimLeft(sc.Text(), "\n")
		if rec == "" {
			continue
		}
		id, msg, ok := strings.Cut(rec, "\x1f")
		if !ok {
			continue
		}
		commits = append(commits, CommitRecord{ID: id, Message: strings.TrimRight(msg, "\n")})

		if len(commits)%parseChunk == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			progress.emit(StageScan, len(commits), 0)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading git log output: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	progress.emit(StageScan, len(commits), len(commits))
	return commits, nil
}
