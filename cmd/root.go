package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"devdigest/internal/activity"
	"devdigest/internal/claude"
	"devdigest/internal/config"
	"devdigest/internal/github"
	"devdigest/internal/gitlab"
	"devdigest/internal/metrics"
	"devdigest/internal/notion"
	"devdigest/internal/pipeline"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	naturaldate "github.com/tj/go-naturaldate"
)

var (
	sinceFlag  string
	dryRunFlag bool
)

var rootCmd = &cobra.Command{
	Use:           "devdigest",
	Short:         "Generate the daily developer digest and publish it to Notion",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&sinceFlag, "since", "", `start of the activity window, e.g. "2026-01-28", "yesterday", "3 days ago" (default: 24 hours ago)`)
	rootCmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "generate the digest without writing to Notion")
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	since, err := parseSince(sinceFlag, time.Now())
	if err != nil {
		return err
	}

	return runOnce(cmd.Context(), cfg, logger, since, dryRunFlag)
}

// setup loads .env, the configuration, and the logger shared by both commands.
func setup() (*config.Config, *slog.Logger, error) {
	// Real env vars take precedence over .env values.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// runOnce wires every component for a single digest run and executes it.
// The run error is returned, not logged; the caller reports it.
func runOnce(ctx context.Context, cfg *config.Config, base *slog.Logger, since time.Time, dryRun bool) error {
	logger := base.With("run_id", uuid.NewString())

	sources, err := activitySources(cfg)
	if err != nil {
		return err
	}

	notionClient := notion.NewClient(cfg.NotionToken, cfg.NotionDatabaseID,
		notion.WithTimeout(cfg.HTTPTimeout()))
	recorder := metrics.NewRecorder()

	p := &pipeline.Pipeline{
		Activity: activity.NewCollector(logger, sources...),
		Requests: notion.NewRequestReader(notionClient),
		Feedback: notion.NewFeedbackAnalyzer(notionClient, logger),
		Generator: claude.NewClient(cfg.AnthropicAPIKey,
			claude.WithModel(cfg.Model),
			claude.WithMaxTokens(cfg.MaxTokens),
			claude.WithMaxContinuations(cfg.MaxContinuations),
			claude.WithWebSearchMaxUses(cfg.WebSearchMaxUses),
			claude.WithLogger(logger),
		),
		Publisher: notion.NewPublisher(notionClient, cfg.Location(), logger),
		Metrics:   recorder,
		Logger:    logger,
	}

	logger.Info("starting daily digest", "since", since.Format(time.RFC3339), "dry_run", dryRun)
	report, runErr := p.Run(ctx, pipeline.Options{Since: since, DryRun: dryRun})

	if cfg.PushgatewayURL != "" {
		if err := recorder.Push(cfg.PushgatewayURL, cfg.HTTPTimeout()); err != nil {
			logger.Warn("failed to push metrics", "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if dryRun {
		logger.Info("digest summary", "summary", report.Digest.Summary)
	}
	return nil
}

func activitySources(cfg *config.Config) ([]activity.Source, error) {
	gh, err := github.NewSource(cfg.GitHubUsername, cfg.GitHubToken,
		github.WithTimeout(cfg.HTTPTimeout()))
	if err != nil {
		return nil, fmt.Errorf("github source: %w", err)
	}
	sources := []activity.Source{gh}

	if cfg.GitLabToken != "" {
		gl, err := gitlab.NewSource(cfg.GitLabToken, cfg.GitLabBaseURL, cfg.HTTPTimeout())
		if err != nil {
			return nil, fmt.Errorf("gitlab source: %w", err)
		}
		sources = append(sources, gl)
	}
	return sources, nil
}

const dateFormat = "2006-01-02"

// parseSince resolves the --since flag into the start of the activity window.
//
// An exact date (YYYY-MM-DD) means the start of that day in the local zone.
// Anything else is read as a natural language expression relative to now,
// such as "yesterday" or "3 days ago". Empty means exactly 24 hours ago.
func parseSince(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.Add(-24 * time.Hour), nil
	}

	since, err := parseDate(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since value %q: %w", s, err)
	}
	if since.After(now) {
		return time.Time{}, fmt.Errorf("--since (%s) must not be in the future", since.Format(time.RFC3339))
	}
	return since, nil
}

// parseDate tries YYYY-MM-DD first, then falls back to go-naturaldate with
// ref as the reference point.
func parseDate(s string, ref time.Time) (time.Time, error) {
	if t, err := time.ParseInLocation(dateFormat, s, ref.Location()); err == nil {
		return t, nil
	}
	return naturaldate.Parse(s, ref)
}
