package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pitwall/internal/dom"
)

// ErrTimeout is returned when an implicit wait expires.
var ErrTimeout = errors.New("timed out")

const pollInterval = 100 * time.Millisecond

// Driver performs user-level interactions on one page. Every interaction first waits
// for its precondition for at most the default timeout; there are no retries beyond polling.
type Driver struct {
	ctx     context.Context
	logger  arbor.ILogger
	timeout time.Duration
}

// New creates a driver for the page bound to ctx.
func New(ctx context.Context, logger arbor.ILogger, timeout time.Duration) *Driver {
	return &Driver{ctx: ctx, logger: logger, timeout: timeout}
}

// WithContext returns a driver for the same page whose actions are bounded by ctx.
// ctx must derive from the page context.
func (d *Driver) WithContext(ctx context.Context) *Driver {
	return &Driver{ctx: ctx, logger: d.logger, timeout: d.timeout}
}

// Timeout returns the implicit wait applied to interactions.
func (d *Driver) Timeout() time.Duration { return d.timeout }

// Navigate loads url and waits for the load event.
func (d *Driver) Navigate(url string) error {
	d.logger.Debug().Str("url", url).Msg("Navigating")
	if err := chromedp.Run(d.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Reload reloads the current page.
func (d *Driver) Reload() error {
	if err := chromedp.Run(d.ctx, chromedp.Reload()); err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	return nil
}

// SetViewport resizes the emulated viewport.
func (d *Driver) SetViewport(width, height int) error {
	d.logger.Debug().Int("width", width).Int("height", height).Msg("Setting viewport")
	if err := chromedp.Run(d.ctx, chromedp.EmulateViewport(int64(width), int64(height))); err != nil {
		return fmt.Errorf("failed to set viewport %dx%d: %w", width, height, err)
	}
	return nil
}

// WaitForFunction polls expr until it is truthy.
func (d *Driver) WaitForFunction(expr string, timeout time.Duration) error {
	err := chromedp.Run(d.ctx, chromedp.Poll(expr, nil,
		chromedp.WithPollingTimeout(timeout),
		chromedp.WithPollingInterval(pollInterval),
	))
	if errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	return err
}

// WaitForSelector waits until selector reaches state.
func (d *Driver) WaitForSelector(selector string, state dom.State, timeout time.Duration) error {
	if err := d.WaitForFunction(dom.StateExpr(selector, state), timeout); err != nil {
		return fmt.Errorf("waiting for %s to be %s: %w", selector, state, err)
	}
	return nil
}

// WaitForOptions waits until the select has more than min options.
func (d *Driver) WaitForOptions(selector string, min int, timeout time.Duration) error {
	expr := fmt.Sprintf(`(%s) > %d`, dom.OptionCountExpr(selector), min)
	if err := d.WaitForFunction(expr, timeout); err != nil {
		return fmt.Errorf("waiting for more than %d options in %s: %w", min, selector, err)
	}
	return nil
}

// SelectByValue waits for the option to exist, selects it and fires input and change.
func (d *Driver) SelectByValue(selector, value string) error {
	if err := d.WaitForFunction(dom.HasOptionValueExpr(selector, value), d.timeout); err != nil {
		return fmt.Errorf("waiting for option %q in %s: %w", value, selector, err)
	}
	return d.runSelect(selector, dom.SelectByValueScript(selector, value), fmt.Sprintf("value %q", value))
}

// SelectByIndex waits for the option at index to exist, selects it and fires input and change.
func (d *Driver) SelectByIndex(selector string, index int) error {
	if err := d.WaitForOptions(selector, index, d.timeout); err != nil {
		return err
	}
	return d.runSelect(selector, dom.SelectByIndexScript(selector, index), fmt.Sprintf("index %d", index))
}

func (d *Driver) runSelect(selector, script, what string) error {
	var ok bool
	if err := chromedp.Run(d.ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("failed to select %s in %s: %w", what, selector, err)
	}
	if !ok {
		return fmt.Errorf("failed to select %s in %s: option not found", what, selector)
	}
	d.logger.Debug().Str("selector", selector).Str("option", what).Msg("Option selected")
	return nil
}

// Click waits for the element to be visible and clicks it.
func (d *Driver) Click(selector string) error {
	if err := d.WaitForSelector(selector, dom.Visible, d.timeout); err != nil {
		return err
	}
	if err := chromedp.Run(d.ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

// Hover waits for the element to be visible, scrolls it into view and moves the mouse to its centre.
func (d *Driver) Hover(selector string) error {
	if err := d.WaitForSelector(selector, dom.Visible, d.timeout); err != nil {
		return err
	}
	if err := chromedp.Run(d.ctx, chromedp.ScrollIntoView(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to scroll %s into view: %w", selector, err)
	}

	box, err := d.BoundingBox(selector)
	if err != nil {
		return err
	}
	x, y := box.X+box.Width/2, box.Y+box.Height/2
	if err := chromedp.Run(d.ctx, chromedp.MouseEvent(input.MouseMoved, x, y)); err != nil {
		return fmt.Errorf("failed to hover %s: %w", selector, err)
	}
	return nil
}

// BoundingBox returns the element's box relative to the viewport.
func (d *Driver) BoundingBox(selector string) (dom.Box, error) {
	var box *dom.Box
	if err := chromedp.Run(d.ctx, chromedp.Evaluate(dom.BoundingBoxExpr(selector), &box)); err != nil {
		return dom.Box{}, fmt.Errorf("failed to measure %s: %w", selector, err)
	}
	if box == nil {
		return dom.Box{}, fmt.Errorf("failed to measure %s: element not found", selector)
	}
	return *box, nil
}

// Evaluate runs expr in the page and decodes the result into res (may be nil).
func (d *Driver) Evaluate(expr string, res interface{}) error {
	return chromedp.Run(d.ctx, chromedp.Evaluate(expr, res))
}

// Pause waits d, returning early if the page context ends.
func (d *Driver) Pause(duration time.Duration) error {
	return chromedp.Run(d.ctx, chromedp.Sleep(duration))
}
