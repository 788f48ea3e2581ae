// uitest_context.go - Shared UI test context and helpers.
// NOTE: This is NOT a test file - it contains shared test infrastructure.

package ui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pitwall/internal/app"
	"github.com/ternarybob/pitwall/internal/common"
	"github.com/ternarybob/pitwall/internal/harness"
	"github.com/ternarybob/pitwall/internal/models"
	"github.com/ternarybob/pitwall/internal/scenarios"
)

// browserCandidates are the executable names chromedp looks for.
var browserCandidates = []string{
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
}

// findBrowser returns the configured or discovered Chrome executable.
func findBrowser() (string, error) {
	if path := os.Getenv("PITWALL_BROWSER_EXEC_PATH"); path != "" {
		return path, nil
	}
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no Chrome or Chromium executable found")
}

// UITestContext holds a running fixture site and the application serving it.
type UITestContext struct {
	T       *testing.T
	App     *app.App
	Config  *common.Config
	BaseURL string
	Out     *bytes.Buffer
	Ctx     context.Context

	cleanup []func()
}

// NewUITestContext serves testdata/public on an ephemeral port. It skips the test
// in -short mode or when no browser is installed.
func NewUITestContext(t *testing.T, timeout time.Duration) *UITestContext {
	if testing.Short() {
		t.Skip("browser tests skipped in -short mode")
	}
	execPath, err := findBrowser()
	if err != nil {
		t.Skip(err.Error())
	}

	public, err := filepath.Abs(filepath.Join("testdata", "public"))
	require.NoError(t, err)

	config := common.NewDefaultConfig()
	config.Server.Host = "127.0.0.1"
	config.Server.Port = 0
	config.Server.PublicDir = public
	config.Browser.ExecPath = execPath
	config.Browser.NoSandbox = os.Geteuid() == 0
	config.Browser.ScenarioTimeout = "90s"
	config.Proxy.Enabled = false
	config.Output.Dir = t.TempDir()
	config.Logging.Level = "warn"
	require.NoError(t, config.Validate())

	logger := arbor.NewLogger()
	application, err := app.New(config, logger)
	require.NoError(t, err)

	baseURL, err := application.Start()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	utc := &UITestContext{
		T:       t,
		App:     application,
		Config:  config,
		BaseURL: baseURL,
		Out:     &bytes.Buffer{},
		Ctx:     ctx,
	}
	utc.cleanup = append(utc.cleanup, func() { application.Close() })
	utc.cleanup = append(utc.cleanup, cancel)
	return utc
}

// Cleanup releases all resources. Call this with defer.
func (utc *UITestContext) Cleanup() {
	if utc.T.Failed() {
		utc.T.Logf("=== Scenario output ===\n%s", utc.Out.String())
	}
	for i := len(utc.cleanup) - 1; i >= 0; i-- {
		utc.cleanup[i]()
	}
}

// Run executes the named scenarios against the fixture site.
func (utc *UITestContext) Run(names ...string) (*models.RunReport, error) {
	selected, err := harness.Select(scenarios.All(), names)
	require.NoError(utc.T, err)
	return utc.App.Runner(utc.Out).Run(utc.Ctx, utc.BaseURL, selected)
}

// Launch opens a harness directly, for tests that drive the page themselves.
func (utc *UITestContext) Launch(name string) *harness.Harness {
	h, err := harness.New(utc.Ctx, name, harness.Options{
		Config:   utc.Config,
		BaseURL:  utc.BaseURL,
		Fixtures: utc.App.Fixtures,
		Logger:   utc.App.Logger,
		Out:      utc.Out,
	})
	require.NoError(utc.T, err)
	utc.cleanup = append(utc.cleanup, func() { h.Close() })
	return h
}

// Screenshot returns the path of an output screenshot.
func (utc *UITestContext) Screenshot(name string) string {
	return filepath.Join(utc.Config.Output.Dir, name+".png")
}

// RequirePassed fails the test when any scenario in report failed. Warnings are logged.
func (utc *UITestContext) RequirePassed(report *models.RunReport, err error) {
	utc.T.Helper()
	require.NotNil(utc.T, report)
	for _, s := range report.Scenarios {
		for _, step := range s.Steps {
			if step.Status != models.StatusPass {
				utc.T.Logf("%s: %s %s - %s", s.Name, step.Status, step.Name, step.Message)
			}
		}
	}
	require.NoError(utc.T, err)
	require.NotEqual(utc.T, models.StatusFail, report.Status())
}
