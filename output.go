package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	tagver "github.com/bcomnes/tagver/pkg"
)

const (
	formatText  = "text"
	formatJSON  = "json"
	formatTable = "table"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatTable:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or table)", format)
	}
}

// writeResults renders one or more results. A single result in text form
// is the bare version so the output can be captured by scripts.
func writeResults(w io.Writer, format string, results []tagver.VersionResult) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(results) == 1 {
			return enc.Encode(results[0])
		}
		return enc.Encode(results)

	case formatTable:
		table := tablewriter.NewWriter(w)
		table.Header("PATH", "VERSION", "BASELINE", "COMMITS", "BRANCH", "TRUNK", "BUMPS")
		for _, r := range results {
			_ = table.Append(r.Path, r.Version, baselineName(r), strconv.FormatUint(r.CommitsSinceBaseline, 10),
				r.Branch, strconv.FormatBool(r.IsTrunk), describeTally(r.Tally))
		}
		return table.Render()

	default:
		if len(results) == 1 {
			_, err := fmt.Fprintln(w, results[0].Version)
			return err
		}
		for _, r := range results {
			if _, err := fmt.Fprintf(w, "%s: %s\n", r.Path, r.Version); err != nil {
				return err
			}
		}
		return nil
	}
}

func baselineName(r tagver.VersionResult) string {
	if r.Baseline == nil {
		return "-"
	}
	return r.Baseline.Name
}

// describeTally summarizes a tally as e.g. "explicit 2.0.0" or
// "major 1, minor 0, patch 2".
func describeTally(t tagver.BumpTally) string {
	if t.Explicit != nil {
		return "explicit " + t.Explicit.String()
	}
	if !t.HasBumps() {
		return "-"
	}
	return fmt.Sprintf("major %d, minor %d, patch %d", t.Major, t.Minor, t.Patch)
}
