package main

import (
	"fmt"

	"github.com/spf13/cobra"

	tagver "github.com/bcomnes/tagver/pkg"
)

func newBumpCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "bump <kind> [path]",
		Short: "Print the version a standard increment of the baseline would give",
		Long: `Print the result of applying a standard increment to the current baseline
tag (0.0.0 when there is none). Commit bump markers are ignored.

Kinds: major, minor, patch, premajor, preminor, prepatch.

Nothing is written or tagged; use the output with your release tooling.`,
		Example: `  tagver bump minor
  git tag "v$(tagver bump patch)"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 2 {
				path = args[1]
			}
			opts, _, err := buildOptions(cmd, flags, path)
			if err != nil {
				return err
			}
			if opts.Log, err = newLogger(flags); err != nil {
				return err
			}

			next, err := tagver.SuggestBump(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), next)
			return err
		},
	}
}
