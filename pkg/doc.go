// Package tagver derives a semantic version for a git checkout from its
// history alone: release tags, commit ancestry and commit messages.
//
// The computation runs in four stages:
//   - the baseline is the highest "v<major>.<minor>.<patch>" tag reachable
//     from HEAD (the tag prefix is configurable);
//   - the commits since the baseline are counted, and on trunk branches the
//     ones carrying bump markers are fetched;
//   - markers are folded into a tally: explicit version markers such as
//     "[v:2.0.0]" end the scan, otherwise major, minor and patch markers are
//     counted, newest commit first;
//   - the tally is applied to the baseline. Trunk branches get a release
//     version; any other branch gets a prerelease of the next patch, named
//     after the branch and the commit count, e.g. "1.0.1-feature-x.2".
//
// Without any marker every commit counts as one patch increment, so an
// untagged repository with five commits on main is at 0.0.5.
//
// The package only reads the repository. Two Repository implementations
// are provided: GitCLI runs the git binary, GoGit reads the object store
// in-process with go-git.
//
// Usage Example:
//
//	import (
//	    "context"
//	    "log"
//
//	    tagver "github.com/bcomnes/tagver/pkg"
//	)
//
//	func main() {
//	    res, err := tagver.ComputeVersion(context.Background(), tagver.Options{})
//	    if err != nil {
//	        log.Fatalf("computing version failed: %v", err)
//	    }
//	    log.Println(res.Version)
//	}
//
// For additional details and API documentation, see https://pkg.go.dev/github.com/bcomnes/tagver.
package tagver
