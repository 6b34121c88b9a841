package tagver

import (
	"context"
	"fmt"
)

// TagRef is a tag name and the commit it points at. Annotated tags are
// peeled to their target commit.
type TagRef struct {
	Name   string
	Commit string
}

// CommitRecord is a commit id and its full message.
type CommitRecord struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// LogQuery selects commits reachable from To but not from From.
// An empty From means "from the root of history".
type LogQuery struct {
	From string
	To   string
	// Grep restricts the result to commits whose message matches any of
	// the patterns. Implementations may return a superset.
	Grep []string
	// Limit caps the number of commits returned when > 0.
	Limit int
	// Progress, when set, is told about parsing progress at chunk
	// boundaries.
	Progress ProgressFunc
}

// Repository is the read-only view of version control the engine needs.
// Implementations must never modify the repository.
type Repository interface {
	// Tags lists every tag together with the commit it resolves to.
	Tags(ctx context.Context) ([]TagRef, error)
	// CurrentBranch returns the checked-out branch name, or "HEAD" when
	// detached.
	CurrentBranch(ctx context.Context) (string, error)
	// Head returns the commit id of HEAD.
	Head(ctx context.Context) (string, error)
	// IsAncestor reports whether commit is an ancestor of, or equal to, head.
	IsAncestor(ctx context.Context, commit, head string) (bool, error)
	// CountCommits counts commits reachable from to but not from from.
	CountCommits(ctx context.Context, from, to string) (uint64, error)
	// CommitMessages returns commits newest-first.
	CommitMessages(ctx context.Context, q LogQuery) ([]CommitRecord, error)
}

// Backend names a Repository implementation.
type Backend string

const (
	// BackendGit shells out to the git binary.
	BackendGit Backend = "git"
	// BackendGoGit reads the repository in-process with go-git.
	BackendGoGit Backend = "go-git"
)

// OpenRepository opens path with the selected backend.
func OpenRepository(path string, backend Backend) (Repository, error) {
	switch backend {
	case BackendGit, "":
		repo, err := NewGitCLI(path)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case BackendGoGit:
		repo, err := OpenGoGit(path)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// emptyRepository answers every query with "nothing". The engine falls
// back to it when a repository cannot be opened at all.
type emptyRepository struct{}

func (emptyRepository) Tags(context.Context) ([]TagRef, error)        { return nil, nil }
func (emptyRepository) CurrentBranch(context.Context) (string, error) { return "", nil }
func (emptyRepository) Head(context.Context) (string, error)          { return "", nil }
func (emptyRepository) IsAncestor(context.Context, string, string) (bool, error) {
	return false, nil
}
func (emptyRepository) CountCommits(context.Context, string, string) (uint64, error) {
	return 0, nil
}
func (emptyRepository) CommitMessages(context.Context, LogQuery) ([]CommitRecord, error) {
	return nil, nil
}
