package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/comment"
	"github.com/revqlabs/revq/internal/config"
	"github.com/revqlabs/revq/internal/confidence"
	"github.com/revqlabs/revq/internal/console"
	"github.com/revqlabs/revq/internal/escalate"
	"github.com/revqlabs/revq/internal/executor"
	"github.com/revqlabs/revq/internal/github"
	"github.com/revqlabs/revq/internal/history"
	"github.com/revqlabs/revq/internal/metrics"
	"github.com/revqlabs/revq/internal/pipeline"
	"github.com/revqlabs/revq/internal/provider"
)

var (
	reviewDiffFlag  string
	reviewTitleFlag string
	reviewDescFlag  string
	reviewModeFlag  string
	reviewPostFlag  bool
	reviewJSONFlag  bool
	reviewCheckFlag bool
)

var reviewCmd = &cobra.Command{
	Use:   "review [owner/repo] [number]",
	Short: "Review a pull request or a local diff",
	Long: `Run the review pipeline against a GitHub pull request or a local
unified diff.

The pipeline gates the change-set (size, lint, security scan,
coverage), classifies it, runs the reasoning review with adaptive
retry, and scores confidence in the result.

Examples:
  revq review acme/widgets 123             # Review a pull request
  revq review acme/widgets 123 --post      # Post the result as a comment
  revq review --diff my.diff --title "fix" # Review a local diff
  revq review --diff my.diff --json        # Machine-readable output
  revq review acme/widgets 123 --check     # Non-zero exit unless auto-accepted`,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringVar(&reviewDiffFlag, "diff", "", "Path to a local unified diff to review")
	reviewCmd.Flags().StringVar(&reviewTitleFlag, "title", "", "Change title (local diff mode)")
	reviewCmd.Flags().StringVar(&reviewDescFlag, "description", "", "Change description (local diff mode)")
	reviewCmd.Flags().StringVar(&reviewModeFlag, "mode", "full", "Degradation level (full, reduced, gates-only)")
	reviewCmd.Flags().BoolVar(&reviewPostFlag, "post", false, "Post the result as a pull request comment")
	reviewCmd.Flags().BoolVar(&reviewJSONFlag, "json", false, "Emit the outcome as JSON")
	reviewCmd.Flags().BoolVar(&reviewCheckFlag, "check", false, "Exit non-zero unless the review auto-accepts")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path := configPathFlag
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	cs, src, err := loadChangeSet(ctx, args)
	if err != nil {
		return err
	}

	mode, err := parseMode(reviewModeFlag)
	if err != nil {
		return err
	}

	var exec *executor.Executor
	if mode != pipeline.ModeGatesOnly {
		timeout := time.Duration(cfg.Reasoning.TimeoutSeconds) * time.Second
		prov, err := provider.NewAnthropic(timeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v, degrading to gates-only\n", err)
			mode = pipeline.ModeGatesOnly
		} else {
			exec = executor.New(prov)
		}
	}

	opts := []pipeline.Option{pipeline.WithMode(mode)}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		} else {
			defer store.Close()
			opts = append(opts, pipeline.WithHistory(store))
		}
	}

	out, err := pipeline.New(cfg, exec, opts...).Run(ctx, cs)
	if err != nil {
		return err
	}

	report(ctx, out, cfg, src, store)

	if reviewCheckFlag && !accepted(out) {
		os.Exit(1)
	}
	return nil
}

// loadChangeSet resolves the change-set from either GitHub arguments or
// the local --diff flag.
func loadChangeSet(ctx context.Context, args []string) (*changeset.ChangeSet, *github.Source, error) {
	if reviewDiffFlag != "" {
		raw, err := os.ReadFile(reviewDiffFlag)
		if err != nil {
			return nil, nil, fmt.Errorf("reading diff: %w", err)
		}
		cs, err := changeset.FromDiff(string(raw))
		if err != nil {
			return nil, nil, err
		}
		cs.Title = reviewTitleFlag
		if cs.Title == "" {
			cs.Title = reviewDiffFlag
		}
		cs.Description = reviewDescFlag
		cs.Repo = "local"
		return cs, nil, nil
	}

	if len(args) != 2 {
		return nil, nil, fmt.Errorf("expected owner/repo and number, or --diff")
	}
	owner, repo, ok := strings.Cut(args[0], "/")
	if !ok {
		return nil, nil, fmt.Errorf("invalid repository %q, expected owner/repo", args[0])
	}
	number, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid change number %q", args[1])
	}

	src := github.New()
	cs, err := src.Fetch(ctx, owner, repo, number)
	if err != nil {
		return nil, nil, err
	}
	return cs, src, nil
}

// report renders the outcome and fans it out to the configured sinks.
// Sink failures are warnings only; the review result already exists.
func report(ctx context.Context, out *pipeline.Outcome, cfg config.Config, src *github.Source, store *history.Store) {
	if reviewJSONFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "warning: encoding outcome: %v\n", err)
		}
	} else {
		console.New(os.Stdout).Render(out)
	}

	if reviewPostFlag && src != nil {
		cs := out.ChangeSet
		if err := src.PostComment(ctx, cs.Owner, cs.Repo, cs.Number, comment.Format(out)); err != nil {
			fmt.Fprintf(os.Stderr, "warning: posting comment: %v\n", err)
		}
	}

	if store != nil {
		if err := store.Record(ctx, out); err != nil {
			fmt.Fprintf(os.Stderr, "warning: recording history: %v\n", err)
		}
	}

	var sink metrics.Sink = metrics.Nop{}
	if dsn := os.Getenv("REVQ_METRICS_DSN"); dsn != "" {
		pg, err := metrics.NewPostgres(ctx, dsn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: metrics disabled: %v\n", err)
		} else {
			sink = pg
		}
	}
	defer sink.Close()
	if err := sink.Record(ctx, out); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording metrics: %v\n", err)
	}

	notifier := escalate.New(cfg.Escalation)
	if notifier.ShouldNotify(out) {
		if err := notifier.Notify(ctx, out); err != nil {
			fmt.Fprintf(os.Stderr, "warning: escalation webhook: %v\n", err)
		}
	}
}

func parseMode(s string) (pipeline.Mode, error) {
	switch s {
	case "full":
		return pipeline.ModeFull, nil
	case "reduced":
		return pipeline.ModeReduced, nil
	case "gates-only":
		return pipeline.ModeGatesOnly, nil
	default:
		return "", fmt.Errorf("invalid mode %q (full, reduced, gates-only)", s)
	}
}

func accepted(out *pipeline.Outcome) bool {
	if out.Status == pipeline.StatusGatesOnly {
		return true
	}
	return out.Status == pipeline.StatusCompleted &&
		out.Confidence.Recommendation == confidence.AutoAccept
}
