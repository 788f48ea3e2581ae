package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pitwall/internal/common"
	"github.com/ternarybob/pitwall/internal/fixtures"
	"github.com/ternarybob/pitwall/internal/models"
	"github.com/ternarybob/pitwall/internal/verify"
)

// ErrVerificationFailed is returned by Runner.Run when any scenario recorded a FAIL.
var ErrVerificationFailed = errors.New("verification failed")

// LaunchFunc creates the harness for one scenario.
type LaunchFunc func(ctx context.Context, name string) (*Harness, error)

// Runner executes scenarios one after another, each against a fresh browser.
type Runner struct {
	config   *common.Config
	fixtures *fixtures.Set
	logger   arbor.ILogger
	out      io.Writer
	launch   LaunchFunc
}

func NewRunner(config *common.Config, set *fixtures.Set, logger arbor.ILogger, out io.Writer) *Runner {
	if out == nil {
		out = os.Stdout
	}
	return &Runner{config: config, fixtures: set, logger: logger, out: out}
}

// Run executes scenarios against baseURL and returns the aggregated report.
// The error is ErrVerificationFailed when any scenario failed, or the launch
// error when a browser could not be started.
func (r *Runner) Run(ctx context.Context, baseURL string, scenarios []Scenario) (*models.RunReport, error) {
	report := &models.RunReport{
		ID:        common.NewRunID(),
		Version:   common.GetVersion(),
		BaseURL:   baseURL,
		StartedAt: time.Now(),
		Scenarios: []models.ScenarioResult{},
	}

	if err := os.MkdirAll(r.config.Output.Dir, 0755); err != nil {
		return report, fmt.Errorf("failed to create output directory: %w", err)
	}

	launch := r.launch
	if launch == nil {
		launch = func(ctx context.Context, name string) (*Harness, error) {
			return New(ctx, name, Options{
				Config:   r.config,
				BaseURL:  baseURL,
				Fixtures: r.fixtures,
				Logger:   r.logger,
				Out:      r.out,
			})
		}
	}

	r.logger.Info().Str("run_id", report.ID).Str("base_url", baseURL).Int("scenarios", len(scenarios)).Msg("Starting verification run")

	for _, scenario := range scenarios {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now()
			return report, err
		}

		result, err := r.runScenario(ctx, scenario, launch)
		if err != nil {
			report.FinishedAt = time.Now()
			return report, err
		}
		report.Scenarios = append(report.Scenarios, result)
	}

	report.FinishedAt = time.Now()
	pass, warn, fail := report.Counts()
	r.logger.Info().Str("run_id", report.ID).Int("pass", pass).Int("warn", warn).Int("fail", fail).Msg("Verification run complete")

	if fail > 0 {
		return report, ErrVerificationFailed
	}
	return report, nil
}

func (r *Runner) runScenario(parent context.Context, scenario Scenario, launch LaunchFunc) (models.ScenarioResult, error) {
	result := models.ScenarioResult{
		Name:        scenario.Name,
		Description: scenario.Description,
		StartedAt:   time.Now(),
	}

	fmt.Fprintf(r.out, "\n=== %s ===\n", scenario.Name)

	// The browser follows parent; only the scenario body is bounded by the timeout.
	h, err := launch(parent, scenario.Name)
	if err != nil {
		return result, fmt.Errorf("failed to launch browser for %s: %w", scenario.Name, err)
	}
	defer func() {
		if err := h.Close(); err != nil {
			r.logger.Warn().Err(err).Str("scenario", scenario.Name).Msg("Failed to close browser cleanly")
		}
	}()

	cancel := h.withTimeout(r.config.ScenarioTimeout())
	runErr := r.execute(scenario, h)
	cancel()
	if runErr != nil {
		result.Error = runErr.Error()
		// Step errors are already recorded
		if !verify.IsStepError(runErr) {
			h.Record.Fail(scenario.Name, runErr.Error())
		}
		r.captureDiagnostic(h)
	}

	result.Steps = h.Record.Steps()
	result.Status = h.Record.Status()
	if runErr != nil {
		result.Status = models.StatusFail
	}
	result.Screenshots = h.Capture.Captured()
	if h.Page != nil {
		result.Console = h.Page.ConsoleMessages()
	}
	result.DurationMs = time.Since(result.StartedAt).Milliseconds()

	r.logger.Info().
		Str("scenario", scenario.Name).
		Str("status", string(result.Status)).
		Int("steps", len(result.Steps)).
		Msgf("Scenario finished in %dms", result.DurationMs)

	return result, nil
}

// execute runs the scenario body, converting a panic into an error.
func (r *Runner) execute(scenario Scenario, h *Harness) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("scenario", scenario.Name).
				Str("panic", fmt.Sprintf("%v", rec)).
				Str("stack", string(debug.Stack())).
				Msg("Scenario panicked")
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return scenario.Run(h)
}

// captureDiagnostic saves <scenario>_error.png when the page is still reachable.
func (r *Runner) captureDiagnostic(h *Harness) {
	if h.Page == nil {
		return
	}

	ctx, cancel := context.WithTimeout(h.Page.Context(), 5*time.Second)
	defer cancel()

	path, err := h.Capture.Page(ctx, h.Name+"_error")
	if err != nil {
		r.logger.Warn().Err(err).Str("scenario", h.Name).Msg("Failed to capture diagnostic screenshot")
		return
	}
	h.Record.Screenshot(h.Name+"_error", path)
}
