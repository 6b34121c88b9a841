package tagver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// fakeRepo is a linear in-memory history. Commit ids are "c1", "c2", ...
// in commit order; commits holds them oldest first.
type fakeRepo struct {
	commits []CommitRecord
	tags    []TagRef
	branch  string

	tagsErr   error
	grepErr   error
	logErr    error
	countErr  error
	branchErr error

	queries []LogQuery
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo(branch string, messages ...string) *fakeRepo {
	r := &fakeRepo{branch: branch}
	r.commit(messages...)
	return r
}

// commit appends commits and returns the id of the last one.
func (r *fakeRepo) commit(messages ...string) string {
	for _, m := range messages {
		r.commits = append(r.commits, CommitRecord{ID: fmt.Sprintf("c%d", len(r.commits)+1), Message: m})
	}
	return r.head()
}

// tag points name at the commit with the given 1-based position.
func (r *fakeRepo) tag(name string, pos int) {
	r.tags = append(r.tags, TagRef{Name: name, Commit: r.commits[pos-1].ID})
}

func (r *fakeRepo) head() string {
	if len(r.commits) == 0 {
		return ""
	}
	return r.commits[len(r.commits)-1].ID
}

func (r *fakeRepo) index(id string) int {
	for i, c := range r.commits {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (r *fakeRepo) Tags(ctx context.Context) ([]TagRef, error) {
	return r.tags, r.tagsErr
}

func (r *fakeRepo) CurrentBranch(ctx context.Context) (string, error) {
	return r.branch, r.branchErr
}

func (r *fakeRepo) Head(ctx context.Context) (string, error) {
	return r.head(), nil
}

// IsAncestor treats ids outside the history as commits on another branch.
func (r *fakeRepo) IsAncestor(ctx context.Context, commit, head string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ci, hi := r.index(commit), r.index(head)
	if hi < 0 {
		return false, errors.New("unknown head")
	}
	return ci >= 0 && ci <= hi, nil
}

func (r *fakeRepo) CountCommits(ctx context.Context, from, to string) (uint64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	hi := r.index(to)
	lo := -1
	if from != "" {
		lo = r.index(from)
	}
	if hi < lo {
		return 0, nil
	}
	return uint64(hi - lo), nil
}

func (r *fakeRepo) CommitMessages(ctx context.Context, q LogQuery) ([]CommitRecord, error) {
	r.queries = append(r.queries, q)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(q.Grep) > 0 && r.grepErr != nil {
		return nil, r.grepErr
	}
	if r.logErr != nil {
		return nil, r.logErr
	}

	var res []CommitRecord
	hi := r.index(q.To)
	lo := -1
	if q.From != "" {
		lo = r.index(q.From)
	}
	for i := hi; i > lo; i-- {
		c := r.commits[i]
		if len(q.Grep) > 0 && !matchesGrep(q.Grep, c.Message) {
			continue
		}
		res = append(res, c)
		if q.Limit > 0 && len(res) == q.Limit {
			break
		}
	}
	return res, nil
}

func matchesGrep(patterns []string, msg string) bool {
	for _, p := range patterns {
		if regexp.MustCompile("(?m)" + p).MatchString(msg) {
			return true
		}
	}
	return false
}

func mustClassifier(p BumpPatterns) *Classifier {
	c, err := NewClassifier(p)
	if err != nil {
		panic(err)
	}
	return c
}
