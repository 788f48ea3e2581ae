package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pitwall/internal/browser"
	"github.com/ternarybob/pitwall/internal/common"
	"github.com/ternarybob/pitwall/internal/driver"
	"github.com/ternarybob/pitwall/internal/fixtures"
	"github.com/ternarybob/pitwall/internal/intercept"
	"github.com/ternarybob/pitwall/internal/verify"
)

const networkCloseTimeout = 5 * time.Second

// Harness is everything one scenario needs: a fresh browser with a single page, an
// interaction driver, a network interceptor, a screenshot capturer and a step recorder.
type Harness struct {
	Name     string
	Config   *common.Config
	BaseURL  string
	Logger   arbor.ILogger
	Fixtures *fixtures.Set

	Session *browser.Session
	Page    *browser.Page
	Driver  *driver.Driver
	Network *intercept.Interceptor
	Capture *verify.Capturer
	Record  *verify.Recorder

	ctx       context.Context
	closeOnce sync.Once
	closeErr  error
}

// Options configures New.
type Options struct {
	Config   *common.Config
	BaseURL  string
	Fixtures *fixtures.Set
	Logger   arbor.ILogger
	Out      io.Writer // Verdict lines
}

// New launches a browser for the scenario called name. The browser lives until Close or ctx ends.
func New(ctx context.Context, name string, opts Options) (*Harness, error) {
	logger := opts.Logger
	if logger == nil {
		logger = common.GetLogger()
	}

	session, err := browser.NewSession(ctx, browser.SessionConfigFrom(opts.Config), logger)
	if err != nil {
		return nil, err
	}

	page, err := session.NewPage(browser.PageOptions{})
	if err != nil {
		session.Close()
		return nil, err
	}

	return &Harness{
		Name:     name,
		Config:   opts.Config,
		BaseURL:  strings.TrimRight(opts.BaseURL, "/"),
		Logger:   logger,
		Fixtures: opts.Fixtures,
		Session:  session,
		Page:     page,
		Driver:   driver.New(page.Context(), logger, opts.Config.DefaultTimeout()),
		Network:  intercept.New(page.Context(), logger),
		Capture:  verify.NewCapturer(opts.Config.Output.Dir, logger),
		Record:   verify.NewRecorder(name, logger, opts.Out),
	}, nil
}

// Ctx returns the context for direct chromedp actions. While a scenario runs it
// is the page context bounded by the scenario timeout.
func (h *Harness) Ctx() context.Context {
	if h.ctx != nil {
		return h.ctx
	}
	if h.Page == nil {
		return context.Background()
	}
	return h.Page.Context()
}

// withTimeout bounds scenario actions by d without bounding the browser itself,
// so the page outlives an expired scenario long enough for diagnostics.
func (h *Harness) withTimeout(d time.Duration) context.CancelFunc {
	base := context.Background()
	if h.Page != nil {
		base = h.Page.Context()
	}
	ctx, cancel := context.WithTimeout(base, d)
	h.ctx = ctx
	if h.Driver != nil {
		h.Driver = h.Driver.WithContext(ctx)
	}
	return cancel
}

// URL resolves path against the base URL.
func (h *Harness) URL(path string) string {
	if path == "" {
		return h.BaseURL + "/"
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return h.BaseURL + "/" + strings.TrimLeft(path, "/")
}

// Open navigates to path under the base URL. Navigation failure aborts the scenario.
func (h *Harness) Open(path string) error {
	return h.Record.Step("navigate "+h.URL(path), verify.Require, h.Driver.Navigate(h.URL(path)))
}

// Expect waits for cond and records the outcome under policy.
func (h *Harness) Expect(policy verify.Policy, cond verify.Condition, timeout time.Duration) error {
	return h.Record.Step(cond.Description, policy, verify.Expect(h.Ctx(), cond, timeout))
}

// Do records the outcome of an interaction under policy.
func (h *Harness) Do(name string, policy verify.Policy, err error) error {
	return h.Record.Step(name, policy, err)
}

// Screenshot captures the viewport to <output>/<name>.png.
func (h *Harness) Screenshot(name string) error {
	path, err := h.Capture.Page(h.Ctx(), name)
	if err != nil {
		return h.Record.Step("screenshot "+name, verify.Check, err)
	}
	h.Record.Screenshot(name, path)
	return nil
}

// FullScreenshot captures the whole page to <output>/<name>.png.
func (h *Harness) FullScreenshot(name string) error {
	path, err := h.Capture.FullPage(h.Ctx(), name)
	if err != nil {
		return h.Record.Step("screenshot "+name, verify.Check, err)
	}
	h.Record.Screenshot(name, path)
	return nil
}

// ElementScreenshot captures selector to <output>/<name>.png.
func (h *Harness) ElementScreenshot(selector, name string, policy verify.Policy) error {
	path, err := h.Capture.Element(h.Ctx(), selector, name)
	if err != nil {
		return h.Record.Step("screenshot "+name, policy, err)
	}
	h.Record.Screenshot(name, path)
	return nil
}

// MockJSON answers requests matching pattern with the named fixture.
func (h *Harness) MockJSON(pattern, fixture string) error {
	body, err := h.Fixtures.Get(fixture)
	if err == nil {
		err = h.Network.FulfillJSON(pattern, body)
	}
	return h.Record.Step(fmt.Sprintf("mock %s with %s", pattern, fixture), verify.Require, err)
}

// CheckLayout measures selector and records whether every bound holds.
func (h *Harness) CheckLayout(name, selector string, policy verify.Policy, bounds ...verify.Bound) error {
	box, err := h.Driver.BoundingBox(selector)
	if err == nil {
		if violations := verify.CheckLayout(box, bounds...); len(violations) > 0 {
			err = fmt.Errorf("%s: %s", selector, strings.Join(violations, "; "))
		}
	}
	if err == nil {
		h.Logger.Info().Str("selector", selector).Msgf("%s: x=%.0f y=%.0f w=%.0f h=%.0f", name, box.X, box.Y, box.Width, box.Height)
	}
	return h.Record.Step(name, policy, err)
}

// Close releases every held request, then closes the browser. Safe to call more than once.
func (h *Harness) Close() error {
	h.closeOnce.Do(func() {
		var errs []error
		if h.Network != nil {
			ctx, cancel := context.WithTimeout(context.Background(), networkCloseTimeout)
			err := h.Network.Close(ctx)
			cancel()
			if err != nil {
				errs = append(errs, err)
			}
		}
		if h.Session != nil {
			if err := h.Session.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		h.closeErr = errors.Join(errs...)
	})
	return h.closeErr
}
