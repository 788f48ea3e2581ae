package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/pitwall/internal/app"
	"github.com/ternarybob/pitwall/internal/harness"
	"github.com/ternarybob/pitwall/internal/models"
	"github.com/ternarybob/pitwall/internal/scenarios"
)

var runBaseURL string

var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Run verification scenarios once",
	Long:  `Starts the local server, runs the named scenarios (all enabled scenarios when none are given) and writes screenshots and reports. Exits non-zero when any scenario fails.`,
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runBaseURL, "base-url", "", "Verify an already running site instead of starting the local server")
}

func runRun(cmd *cobra.Command, args []string) error {
	selected, err := selectScenarios(args)
	if err != nil {
		return err
	}

	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	runner := application.Runner(out)

	if runBaseURL != "" {
		report, err := runner.Run(ctx, runBaseURL, selected)
		writeResults(out, report)
		return err
	}

	application.Preflight()
	if err := application.Server.Start(); err != nil {
		return err
	}
	baseURL := application.Server.URL()

	var report *models.RunReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return application.Server.Serve()
	})
	g.Go(func() error {
		defer application.Server.Shutdown(context.Background())
		var runErr error
		report, runErr = runner.Run(gctx, baseURL, selected)
		return runErr
	})
	err = g.Wait()

	writeResults(out, report)
	return err
}

// selectScenarios resolves names, falling back to the configured list, then to every scenario.
func selectScenarios(names []string) ([]harness.Scenario, error) {
	if len(names) == 0 {
		names = config.Scenarios.Enabled
	}
	return harness.Select(scenarios.All(), names)
}

// writeResults prints the summary and writes the report files.
func writeResults(out io.Writer, report *models.RunReport) {
	if report == nil {
		return
	}
	harness.PrintSummary(out, report)

	if !config.Output.Report {
		return
	}
	paths, err := harness.WriteReports(config.Output.Dir, report)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to write reports")
		return
	}
	logger.Info().Strs("files", paths).Msg("Reports written")
}
