package tagver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// GoGit is a Repository read in-process with go-git. It needs no git
// binary. Message filters are evaluated with Go regular expressions.
type GoGit struct {
	repo *git.Repository

	mu sync.Mutex
	// excluded caches ancestry sets by commit id. The sets are never
	// modified once stored.
	excluded map[string]map[plumbing.Hash]bool
}

// OpenGoGit opens the repository containing path.
func OpenGoGit(path string) (*GoGit, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	return &GoGit{repo: repo}, nil
}

// NewGoGit wraps an already opened go-git repository.
func NewGoGit(repo *git.Repository) *GoGit {
	return &GoGit{repo: repo}
}

// Tags lists tags with annotated tags peeled to their commit. Tags that
// do not point at a commit are skipped.
func (g *GoGit) Tags(ctx context.Context) ([]TagRef, error) {
	iter, err := g.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer iter.Close()

	var refs []TagRef
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		hash := ref.Hash()
		if tag, err := g.repo.TagObject(hash); err == nil {
			commit, err := tag.Commit()
			if err != nil {
				return nil
			}
			hash = commit.Hash
		} else if !errors.Is(err, plumbing.ErrObjectNotFound) {
			return fmt.Errorf("reading tag %s: %w", ref.Name().Short(), err)
		}
		refs = append(refs, TagRef{Name: ref.Name().Short(), Commit: hash.String()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// CurrentBranch returns the checked-out branch, or "HEAD" when detached.
// An unborn branch is reported by name.
func (g *GoGit) CurrentBranch(ctx context.Context) (string, error) {
	head, err := g.repo.Head()
	if err == nil {
		if head.Name().IsBranch() {
			return head.Name().Short(), nil
		}
		return "HEAD", nil
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	sym, err := g.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	return sym.Target().Short(), nil
}

// Head returns the commit id of HEAD.
func (g *GoGit) Head(ctx context.Context) (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

func (g *GoGit) commit(id string) (*object.Commit, error) {
	c, err := g.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", id, err)
	}
	return c, nil
}

// IsAncestor reports whether commit is an ancestor of, or equal to, head.
func (g *GoGit) IsAncestor(ctx context.Context, commit, head string) (bool, error) {
	if commit == head {
		return true, nil
	}
	c, err := g.commit(commit)
	if err != nil {
		return false, err
	}
	h, err := g.commit(head)
	if err != nil {
		return false, err
	}
	return c.IsAncestor(h)
}

// reachable returns the set of commits reachable from id, id included.
// A set is computed once per id and shared by later walks.
func (g *GoGit) reachable(ctx context.Context, id string) (map[plumbing.Hash]bool, error) {
	if id == "" {
		return nil, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if seen, ok := g.excluded[id]; ok {
		return seen, nil
	}

	seen := make(map[plumbing.Hash]bool)
	c, err := g.commit(id)
	if err != nil {
		return nil, err
	}
	iter := object.NewCommitPreorderIter(c, nil, nil)
	defer iter.Close()
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if g.excluded == nil {
		g.excluded = make(map[string]map[plumbing.Hash]bool)
	}
	g.excluded[id] = seen
	return seen, nil
}

// walk visits commits reachable from to but not from from, newest
// committer time first. Returning storer.ErrStop from fn ends the walk.
func (g *GoGit) walk(ctx context.Context, from, to string, fn func(*object.Commit) error) error {
	excluded, err := g.reachable(ctx, from)
	if err != nil {
		return err
	}
	start, err := g.commit(to)
	if err != nil {
		return err
	}
	if excluded[start.Hash] {
		return nil
	}
	iter := object.NewCommitIterCTime(start, excluded, nil)
	defer iter.Close()
	return iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(c)
	})
}

// CountCommits counts commits reachable from to but not from from.
func (g *GoGit) CountCommits(ctx context.Context, from, to string) (uint64, error) {
	var n uint64
	err := g.walk(ctx, from, to, func(*object.Commit) error {
		n++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// CommitMessages returns commits newest-first, keeping only those whose
// message matches one of q.Grep when it is set. Like git log --grep, the
// filters match line by line.
func (g *GoGit) CommitMessages(ctx context.Context, q LogQuery) ([]CommitRecord, error) {
	filters := make([]*regexp.Regexp, 0, len(q.Grep))
	for _, p := range q.Grep {
		re, err := regexp.Compile("(?m)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid message filter %q: %w", p, err)
		}
		filters = append(filters, re)
	}

	var commits []CommitRecord
	visited := 0
	err := g.walk(ctx, q.From, q.To, func(c *object.Commit) error {
		visited++
		if visited%parseChunk == 0 {
			q.Progress.emit(StageScan, visited, 0)
		}
		if len(filters) > 0 && !matchesAny(filters, c.Message) {
			return nil
		}
		commits = append(commits, CommitRecord{ID: c.Hash.String(), Message: strings.TrimRight(c.Message, "\n")})
		if q.Limit > 0 && len(commits) >= q.Limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	q.Progress.emit(StageScan, visited, visited)
	return commits, nil
}

func matchesAny(filters []*regexp.Regexp, s string) bool {
	for _, re := range filters {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
