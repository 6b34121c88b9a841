package tagver

import (
	"context"
	"errors"
	"fmt"

	"github.com/bcomnes/tagver/internal/logging"
)

// ScanStrategy selects how commit messages are fetched.
type ScanStrategy string

const (
	// StrategyTargeted asks the repository only for commits whose message
	// matches a bump or explicit-version pattern.
	StrategyTargeted ScanStrategy = "targeted"
	// StrategyExhaustive fetches every commit in range, optionally capped.
	StrategyExhaustive ScanStrategy = "exhaustive"
)

// ParseScanStrategy validates a strategy name. Empty means targeted.
func ParseScanStrategy(s string) (ScanStrategy, error) {
	switch ScanStrategy(s) {
	case StrategyTargeted, "":
		return StrategyTargeted, nil
	case StrategyExhaustive:
		return StrategyExhaustive, nil
	default:
		return "", fmt.Errorf("unknown scan strategy: %q (want targeted or exhaustive)", s)
	}
}

// ScanResult is the commit sequence used for bump aggregation.
type ScanResult struct {
	// Commits are newest-first.
	Commits []CommitRecord
	// Strategy is the strategy that produced Commits. It differs from the
	// configured one when a targeted query had to fall back.
	Strategy ScanStrategy
	// Truncated is set when an exhaustive scan hit its limit.
	Truncated bool
}

// Scanner fetches the commits between a baseline and HEAD.
type Scanner struct {
	Repo     Repository
	Strategy ScanStrategy
	// Limit caps an exhaustive scan, including the fallback of a targeted
	// one, when > 0.
	Limit    int
	Patterns BumpPatterns
	Progress ProgressFunc
	Log      *logging.Logger
}

// Count returns the authoritative number of commits reachable from to but
// not from from. Failures degrade to zero.
func (s *Scanner) Count(ctx context.Context, from, to string) (uint64, error) {
	if to == "" {
		return 0, nil
	}
	s.Progress.emit(StageCount, 0, 0)
	n, err := s.Repo.CountCommits(ctx, from, to)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		s.Log.Warnf("counting commits failed, assuming none: %v", err)
		return 0, nil
	}
	return n, nil
}

// Commits returns the commits to classify, newest-first. The result of a
// targeted scan is a subset of the range and must not be used for counting.
func (s *Scanner) Commits(ctx context.Context, from, to string) (ScanResult, error) {
	if to == "" {
		return ScanResult{Strategy: s.Strategy}, nil
	}

	if s.Strategy == StrategyTargeted || s.Strategy == "" {
		commits, err := s.Repo.CommitMessages(ctx, LogQuery{From: from, To: to, Grep: s.Patterns.list(), Progress: s.Progress})
		if err == nil {
			s.Log.Debugf("targeted scan matched %d commits", len(commits))
			if s.Limit > 0 {
				s.Log.Warnf("exhaustive limit %d ignored: the targeted scan reads only matching commits", s.Limit)
			}
			return ScanResult{Commits: commits, Strategy: StrategyTargeted}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ScanResult{}, ctxErr
		}
		if errors.Is(err, errGrepDialect) {
			s.Log.Debugf("targeted scan unavailable, falling back to exhaustive scan: %v", err)
		} else {
			s.Log.Warnf("targeted scan failed, falling back to exhaustive scan: %v", err)
		}
	}

	q := LogQuery{From: from, To: to, Progress: s.Progress}
	if s.Limit > 0 {
		// One extra record tells a full range from a truncated one.
		q.Limit = s.Limit + 1
	}
	commits, err := s.Repo.CommitMessages(ctx, q)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ScanResult{}, ctxErr
		}
		s.Log.Warnf("reading commit history failed, assuming no commits: %v", err)
		return ScanResult{Strategy: StrategyExhaustive}, nil
	}

	res := ScanResult{Commits: commits, Strategy: StrategyExhaustive}
	if s.Limit > 0 && len(commits) > s.Limit {
		res.Commits = commits[:s.Limit]
		res.Truncated = true
		s.Log.Warnf("exhaustive scan capped at %d commits; older bump markers are ignored", s.Limit)
	}
	return res, nil
}
