package tagver

import (
	"context"
	"sort"
	"strings"

	"github.com/bcomnes/tagver/internal/logging"
)

// VersionTag is a release tag whose name parsed as prefix + "x.y.z".
type VersionTag struct {
	Name    string  `json:"name"`
	Version Version `json:"version"`
	Commit  string  `json:"commit"`
}

// parseVersionTags keeps the tags named prefix + "x.y.z" and returns them
// sorted by version, highest first. Equal versions are ordered by name so
// the result is deterministic.
func parseVersionTags(refs []TagRef, prefix string, log *logging.Logger) []VersionTag {
	var tags []VersionTag
	for _, ref := range refs {
		if !strings.HasPrefix(ref.Name, prefix) {
			continue
		}
		v, err := ParseVersion(strings.TrimPrefix(ref.Name, prefix))
		if err != nil {
			log.Debugf("skipping tag %s: %v", ref.Name, err)
			continue
		}
		tags = append(tags, VersionTag{Name: ref.Name, Version: v, Commit: ref.Commit})
	}

	sort.SliceStable(tags, func(i, j int) bool {
		if c := tags[i].Version.Compare(tags[j].Version); c != 0 {
			return c > 0
		}
		return tags[i].Name < tags[j].Name
	})
	return tags
}

// ResolveBaseline returns the highest version tag whose commit is an
// ancestor of (or equal to) head, or nil when there is none. Query
// failures are logged and treated as "no tags".
func ResolveBaseline(ctx context.Context, repo Repository, prefix, head string, log *logging.Logger) (*VersionTag, error) {
	refs, err := repo.Tags(ctx)
	if err != nil {
		log.Warnf("listing tags failed, continuing without a baseline: %v", err)
		return nil, nil
	}
	if head == "" {
		return nil, nil
	}

	for _, tag := range parseVersionTags(refs, prefix, log) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if tag.Commit == head {
			return &tag, nil
		}
		ok, err := repo.IsAncestor(ctx, tag.Commit, head)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Debugf("ancestry check for %s failed: %v", tag.Name, err)
			continue
		}
		if ok {
			return &tag, nil
		}
	}
	return nil, nil
}
