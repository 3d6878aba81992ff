package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gitpr.dev/gitpr/pkg/app"
	"gitpr.dev/gitpr/pkg/config"
	prerrors "gitpr.dev/gitpr/pkg/errors"
	"gitpr.dev/gitpr/pkg/git"
	"gitpr.dev/gitpr/pkg/github"
	"gitpr.dev/gitpr/pkg/tags"
	"gitpr.dev/gitpr/pkg/ui"
)

var (
	cfgFile    string
	verbose    bool
	updateOnly bool
	dryRun     bool
	writeInit  bool
	forceInit  bool
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "git-pr",
	Short: "Create GitHub pull requests with cross-linked ticket tags",
	Long: `git-pr creates a pull request from the current branch, detecting the
ticket tag from commit messages, collecting the body from configured form
fields, and keeping a "Related PRs" section synchronized across every open
PR that shares the tag.

Examples:
  git-pr                  # Create a PR from the current branch
  git-pr --update-only    # Only resync the Related PRs sections
  git-pr --dry-run        # Show what would happen without mutating anything
  git-pr --init           # Write a default config file`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if writeInit {
			return runInit()
		}
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().BoolVarP(&updateOnly, "update-only", "u", false, "Only resync the Related PRs sections, do not create a PR")
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Record mutations instead of performing them")
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is $HOME/.config/git-pr/config.yaml)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.Flags().BoolVar(&writeInit, "init", false, "Write a default config file and exit")
	rootCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file with --init")
}

// Execute runs the root command, mapping errors to exit codes.
// Cancellation is a clean exit; everything else exits 1 with a formatted
// message on stderr.
func Execute() {
	setupLogging()

	if err := rootCmd.Execute(); err != nil {
		if prerrors.IsCancelled(err) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, prerrors.FormatUserError(err))
		os.Exit(1)
	}
}

// setupLogging pre-parses --verbose so debug logging covers config loading,
// which happens before cobra parses flags for real.
func setupLogging() {
	fs := pflag.NewFlagSet("pre", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	v := fs.BoolP("verbose", "v", false, "")
	_ = fs.Parse(os.Args[1:])

	level := slog.LevelInfo
	if *v {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func runInit() error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}

	path, err := config.WriteDefault(dir, forceInit)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Wrote default config to %s\n", path)
	return nil
}

func run(ctx context.Context) error {
	if err := config.Init(cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	history, err := tags.LoadHistory(config.HistoryPath(dir))
	if err != nil {
		return err
	}

	client, err := github.NewClient(&cfg.GitHub, verbose)
	if err != nil {
		return err
	}

	var recorder *github.Recorder
	if dryRun {
		recorder = github.NewRecorder(client)
		client = recorder
	}

	prompter, err := ui.NewTerminalPrompter()
	if err != nil {
		return err
	}

	a, err := app.New(cfg, client, git.NewRepo(), prompter, history, app.Options{
		DryRun:  dryRun,
		Verbose: verbose,
		Out:     os.Stderr,
	})
	if err != nil {
		return err
	}

	if updateOnly {
		err = a.RunUpdateOnly(ctx)
	} else {
		err = a.RunCreate(ctx)
	}
	if err != nil {
		return err
	}

	if recorder != nil {
		printRecorded(recorder)
	}
	return nil
}

// printRecorded reports the mutations a dry run would have performed.
func printRecorded(rec *github.Recorder) {
	for _, opts := range rec.CreatedPRs() {
		fmt.Fprintf(os.Stderr, "dry-run: would create PR %q (%s -> %s)\n",
			opts.Title, opts.HeadBranch, opts.BaseBranch)
	}
	for _, edit := range rec.Edits() {
		fmt.Fprintf(os.Stderr, "dry-run: would update body of %s#%d\n", edit.Repo, edit.Number)
	}
	if len(rec.CreatedPRs()) == 0 && len(rec.Edits()) == 0 {
		fmt.Fprintln(os.Stderr, "dry-run: nothing to do")
	}
}
