package main

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ternarybob/pitwall/internal/app"
	"github.com/ternarybob/pitwall/internal/common"
)

var (
	watchBaseURL   string
	watchImmediate bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [scenario...]",
	Short: "Re-run verification scenarios on the watch schedule",
	Long:  `Keeps the local server running and re-runs the selected scenarios on the [watch] schedule (six-field cron, seconds first). A run still in progress when the next one is due is not overlapped.`,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchBaseURL, "base-url", "", "Verify an already running site instead of starting the local server")
	watchCmd.Flags().BoolVar(&watchImmediate, "now", false, "Run once immediately before waiting for the schedule")
}

func runWatch(cmd *cobra.Command, args []string) error {
	selected, err := selectScenarios(args)
	if err != nil {
		return err
	}

	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	baseURL := watchBaseURL
	if baseURL == "" {
		application.Preflight()
		if baseURL, err = application.Start(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	var running atomic.Bool
	job := func() {
		if !running.CompareAndSwap(false, true) {
			logger.Warn().Msg("Previous verification run still in progress, skipping")
			return
		}
		defer running.Store(false)

		application.PruneCache()
		report, err := application.Runner(out).Run(ctx, baseURL, selected)
		writeResults(out, report)
		if err != nil {
			logger.Warn().Err(err).Msg("Verification run did not pass")
		}
	}

	scheduler := cron.New(cron.WithParser(common.ScheduleParser))
	if _, err := scheduler.AddFunc(config.Watch.Schedule, job); err != nil {
		return err
	}
	scheduler.Start()
	logger.Info().
		Str("schedule", config.Watch.Schedule).
		Str("base_url", baseURL).
		Int("scenarios", len(selected)).
		Msg("Watch scheduler started - Press Ctrl+C to stop")

	// The immediate run is not tracked by the scheduler
	var immediate sync.WaitGroup
	if watchImmediate {
		common.SafeGoTracked(&immediate, logger, "watch-now", job)
	}

	<-ctx.Done()
	logger.Info().Msg("Interrupt signal received, waiting for the current run")
	<-scheduler.Stop().Done()
	immediate.Wait()
	return nil
}
