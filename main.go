// Package main implements the tagver CLI, which prints the semantic version
// of a git checkout derived from its tags and commit messages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bcomnes/tagver/internal/logging"
	tagver "github.com/bcomnes/tagver/pkg"
)

// cliFlags holds the flags shared by every command.
type cliFlags struct {
	config        string
	tagPrefix     string
	trunks        []string
	strategy      string
	limit         int
	noCommitBumps bool
	precedence    string
	backend       string
	branch        string
	jobs          int
	format        string
	verbose       bool
	logLevel      string
	quiet         bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	rootCmd := &cobra.Command{
		Use:   "tagver [path...]",
		Short: "Derive a semantic version from git tags and commit messages",
		Long: `tagver prints the semantic version of a git checkout.

The baseline is the highest v<major>.<minor>.<patch> tag reachable from HEAD.
On trunk branches (main, master by default) commits since the baseline are
classified by their messages:
  [v:1.2.3]                      sets the version explicitly
  [major], BREAKING CHANGE, feat!: bumps major
  [minor], feat:                 bumps minor
  [patch], fix:                  bumps patch
Without markers every commit counts as a patch increment. Other branches get
a prerelease such as 1.0.1-feature-x.2.

The repository is never modified.`,
		Example: `  tagver
  tagver --format json
  tagver --trunk main --trunk 'release/**' ../other-repo
  tagver bump minor
  tagver check`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, flags, args)
		},
	}
	rootCmd.SetVersionTemplate("tagver v{{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "Configuration file (default: .tagver.toml, .tagver.yaml or .tagver.yml in the repository)")
	pf.StringVar(&flags.tagPrefix, "tag-prefix", "", `Prefix of release tags (default "v"; "-" for none)`)
	pf.StringArrayVar(&flags.trunks, "trunk", nil, "Trunk branch name or glob. May be repeated. (default main, master)")
	pf.StringVar(&flags.strategy, "strategy", "", "Commit scan strategy: targeted or exhaustive (default targeted)")
	pf.IntVar(&flags.limit, "limit", 0, "Maximum commits read by an exhaustive scan (0 for no limit); ignored by targeted scans")
	pf.BoolVar(&flags.noCommitBumps, "no-commit-bumps", false, "Ignore bump markers; every commit is a patch increment")
	pf.StringVar(&flags.precedence, "precedence", "", "How explicit versions combine with newer markers: absolute or floor (default absolute)")
	pf.StringVar(&flags.backend, "backend", "", "Repository backend: git or go-git (default git)")
	pf.StringVar(&flags.branch, "branch", "", "Use this branch name instead of the checked-out one")
	pf.StringVarP(&flags.format, "format", "o", "text", "Output format: text, json or table")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log diagnostics to stderr")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error (default warn, debug with --verbose)")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "Do not show a progress spinner")
	rootCmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 4, "Repositories resolved concurrently")

	rootCmd.AddCommand(newBumpCmd(flags), newCheckCmd(flags))
	return rootCmd
}

// newLogger returns the stderr logger for the given verbosity.
func newLogger(flags *cliFlags) (*logging.Logger, error) {
	level := logging.LevelWarn
	if flags.verbose {
		level = logging.LevelDebug
	}
	if flags.logLevel != "" {
		l, err := logging.ParseLevel(flags.logLevel)
		if err != nil {
			return nil, err
		}
		level = l
	}
	return logging.New(os.Stderr, level), nil
}

// buildOptions merges, in increasing priority, defaults, the configuration
// file and command-line flags for the repository at path.
func buildOptions(cmd *cobra.Command, flags *cliFlags, path string) (tagver.Options, *tagver.FileConfig, error) {
	cfgPath := flags.config
	if cfgPath == "" {
		cfgPath = tagver.FindConfigFile(path)
	} else if _, err := os.Stat(cfgPath); err != nil {
		return tagver.Options{}, nil, fmt.Errorf("config file: %w", err)
	}
	fc, err := tagver.LoadConfigFile(cfgPath)
	if err != nil {
		return tagver.Options{}, nil, err
	}

	opts := tagver.Options{RepositoryPath: path}
	fc.Apply(&opts)

	changed := cmd.Flags().Changed
	if changed("tag-prefix") {
		opts.TagPrefix = flags.tagPrefix
	}
	if changed("trunk") {
		opts.TrunkBranches = flags.trunks
	}
	if changed("strategy") {
		opts.Strategy = tagver.ScanStrategy(flags.strategy)
	}
	if changed("limit") {
		opts.ExhaustiveLimit = flags.limit
	}
	if flags.noCommitBumps {
		opts.DisableCommitBumps = true
	}
	if changed("precedence") {
		opts.Precedence = tagver.ExplicitPrecedence(flags.precedence)
	}
	if changed("backend") {
		opts.Backend = tagver.Backend(flags.backend)
	}
	if changed("branch") {
		opts.Branch = flags.branch
	}
	if err := opts.Validate(); err != nil {
		return tagver.Options{}, nil, err
	}
	return opts, fc, nil
}

func runVersion(cmd *cobra.Command, flags *cliFlags, args []string) error {
	if err := validateFormat(flags.format); err != nil {
		return err
	}
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}
	if flags.jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", flags.jobs)
	}

	log, err := newLogger(flags)
	if err != nil {
		return err
	}
	spin := newSpinner(os.Stderr, !flags.quiet && !flags.verbose && flags.logLevel == "")
	spin.Start()

	results := make([]tagver.VersionResult, len(paths))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(flags.jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			opts, _, err := buildOptions(cmd, flags, path)
			if err != nil {
				return err
			}
			opts.Log = log
			if len(paths) > 1 {
				opts.Log = log.Component(path)
			}
			opts.Progress = spin.Update
			res, err := tagver.ComputeVersion(ctx, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}
	err = g.Wait()
	spin.Stop()
	if err != nil {
		return err
	}

	return writeResults(cmd.OutOrStdout(), flags.format, results)
}
