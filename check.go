package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	tagver "github.com/bcomnes/tagver/pkg"
)

type checkStatus string

const (
	checkOK    checkStatus = "ok"
	checkWarn  checkStatus = "warn"
	checkError checkStatus = "error"
)

type checkResult struct {
	Name    string      `json:"name"`
	Status  checkStatus `json:"status"`
	Message string      `json:"message"`
}

func newCheckCmd(flags *cliFlags) *cobra.Command {
	var manifests []string

	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Check that go.mod and manifests agree with the computed version",
		Long: `Compute the version of the checkout and verify that:
  - the go.mod module path carries the major version suffix the version requires
  - every configured manifest declares the computed version

Manifests come from the "manifests" key of the configuration file and the
--manifest flag. Exits with status 1 when a check fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(flags.format); err != nil {
				return err
			}
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			opts, fc, err := buildOptions(cmd, flags, path)
			if err != nil {
				return err
			}
			if opts.Log, err = newLogger(flags); err != nil {
				return err
			}

			res, err := tagver.ComputeVersion(cmd.Context(), opts)
			if err != nil {
				return err
			}
			results := runChecks(path, res, append(fc.Manifests, manifests...))
			if err := printCheckResults(cmd.OutOrStdout(), flags.format, results); err != nil {
				return err
			}
			for _, r := range results {
				if r.Status == checkError {
					return fmt.Errorf("check found issues")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&manifests, "manifest", nil, "Manifest file whose declared version is checked. May be repeated.")
	return cmd
}

func runChecks(path string, res tagver.VersionResult, manifests []string) []checkResult {
	results := []checkResult{{Name: "version", Status: checkOK, Message: res.Version}}

	mod, err := tagver.CheckModulePath(path, res.Version)
	switch {
	case errors.Is(err, tagver.ErrNoGoMod):
		results = append(results, checkResult{Name: "go.mod", Status: checkWarn, Message: "no go.mod found"})
	case err != nil:
		results = append(results, checkResult{Name: "go.mod", Status: checkError, Message: err.Error()})
	case !mod.OK:
		results = append(results, checkResult{
			Name:    "go.mod",
			Status:  checkError,
			Message: fmt.Sprintf("module %s: %s (expected %s)", mod.ModulePath, mod.Problem, mod.ExpectedPath),
		})
	default:
		results = append(results, checkResult{Name: "go.mod", Status: checkOK, Message: mod.ModulePath})
	}

	for _, m := range tagver.CheckManifests(path, manifests, res.Version) {
		r := checkResult{Name: m.Path, Status: checkOK, Message: m.Declared}
		if !m.OK {
			r.Status = checkError
			r.Message = m.Problem
		}
		results = append(results, r)
	}
	return results
}

func printCheckResults(w io.Writer, format string, results []checkResult) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	table := tablewriter.NewWriter(w)
	table.Header("CHECK", "STATUS", "DETAILS")
	for _, r := range results {
		status := string(r.Status)
		switch r.Status {
		case checkOK:
			status = "✓ ok"
		case checkWarn:
			status = "⚠ warn"
		case checkError:
			status = "✗ error"
		}
		_ = table.Append(r.Name, status, r.Message)
	}
	return table.Render()
}
