package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devdigest/internal/scheduler"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the digest every day at the configured time until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := scheduler.New(cfg.Location(), logger)
	hour, minute := cfg.ScheduleClock()
	err = s.Daily(hour, minute, dailyJob(ctx, logger, func(runCtx context.Context) error {
		return runOnce(runCtx, cfg, logger, time.Now().Add(-24*time.Hour), dryRunFlag)
	}))
	if err != nil {
		return err
	}

	s.Start()
	logger.Info("scheduler started", "time", cfg.ScheduleTime, "timezone", cfg.Timezone,
		"next_run", s.Next().Format(time.RFC3339))

	<-ctx.Done()
	logger.Info("shutting down, waiting for a running digest to finish")
	s.Stop()
	return nil
}

// dailyJob wraps run for the scheduler. Each run gets a context detached from
// shutdown, so a signal only stops future ticks and never cuts a publish short.
// A failed run is logged here and retried at the next tick.
func dailyJob(shutdown context.Context, logger *slog.Logger, run func(context.Context) error) func() {
	runCtx := context.WithoutCancel(shutdown)
	return func() {
		if err := run(runCtx); err != nil {
			logger.Error("daily digest failed", "error", err)
		}
	}
}
