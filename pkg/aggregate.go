package tagver

// BumpTally is the fold of every classified commit since the baseline.
type BumpTally struct {
	Major uint64 `json:"major"`
	Minor uint64 `json:"minor"`
	Patch uint64 `json:"patch"`
	// Explicit is the version named by the most recent explicit marker.
	Explicit *Version `json:"explicit,omitempty"`
	// ExplicitCommit is the commit carrying that marker.
	ExplicitCommit string `json:"explicitCommit,omitempty"`
}

// HasBumps reports whether any major, minor or patch marker was counted.
func (t BumpTally) HasBumps() bool {
	return t.Major > 0 || t.Minor > 0 || t.Patch > 0
}

// Aggregate classifies commits, which must be newest-first. The first
// explicit marker found ends the pass: only commits newer than it
// contribute to the counters.
func Aggregate(commits []CommitRecord, c *Classifier) BumpTally {
	var t BumpTally
	for _, commit := range commits {
		b := c.Classify(commit.Message)
		switch b.Kind {
		case BumpExplicit:
			v := *b.Version
			t.Explicit = &v
			t.ExplicitCommit = commit.ID
			return t
		case BumpMajor:
			t.Major++
		case BumpMinor:
			t.Minor++
		case BumpPatch:
			t.Patch++
		}
	}
	return t
}
