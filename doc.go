// Package main implements the tagver CLI tool.
//
// The tagver tool prints the semantic version of a git checkout, derived
// from release tags, commit ancestry and commit messages. It never modifies
// the repository: no files are written, nothing is committed or tagged.
//
// Command Usage:
//
//	tagver [flags] [path...]
//	tagver bump <kind> [path]
//	tagver check [path]
//
// Flags:
//
//	--config:          Configuration file. Defaults to .tagver.toml, .tagver.yaml
//	                   or .tagver.yml in the repository root.
//	--tag-prefix:      Prefix of release tags (default "v"; "-" for none).
//	--trunk:           Trunk branch name or doublestar glob. May be repeated.
//	--strategy:        targeted (ask git for marker commits only) or exhaustive.
//	--limit:           Cap on commits read by an exhaustive scan.
//	--no-commit-bumps: Treat every commit as a patch increment.
//	--precedence:      absolute or floor; how an explicit [v:x.y.z] marker
//	                   combines with newer markers.
//	--backend:         git (the git binary) or go-git (in-process).
//	--branch:          Branch name to use instead of the checked-out one.
//	--format, -o:      text, json or table.
//	--jobs, -j:        Number of repositories resolved concurrently.
//	--verbose, -v:     Log diagnostics to stderr.
//	--log-level:       Log level: debug, info, warn or error.
//	--quiet, -q:       Do not draw the progress spinner.
//	--version:         Displays the version of the tagver CLI tool and exits.
//
// Examples:
//
//	# Version of the current checkout (e.g. 1.4.1 on main, 1.2.1-feature-x.3 elsewhere)
//	tagver
//
//	# Several repositories at once, as a table
//	tagver -o table ./svc-a ./svc-b ./svc-c
//
//	# Treat release branches as trunks
//	tagver --trunk main --trunk 'release/**'
//
//	# Next minor release from the current baseline tag
//	tagver bump minor
//
//	# Verify go.mod and package.json agree with the computed version
//	tagver check --manifest package.json
//
// For more detailed API documentation, please see the documentation in the "pkg" package
// or visit [PkgGoDev](https://pkg.go.dev/github.com/bcomnes/tagver).
package main
