package scenarios

import (
	"fmt"
	"time"

	"github.com/ternarybob/pitwall/internal/dom"
	"github.com/ternarybob/pitwall/internal/fixtures"
	"github.com/ternarybob/pitwall/internal/harness"
	"github.com/ternarybob/pitwall/internal/intercept"
	"github.com/ternarybob/pitwall/internal/verify"
)

const (
	settleDelay = time.Second
	holdWindow  = 5 * time.Second
)

// LoadingOverlay holds radar metadata requests so the session load stays pending,
// then checks the overlay is shown while they are outstanding.
func LoadingOverlay(h *harness.Harness) error {
	if err := mockAPIs(h, fixtures.F1Current); err != nil {
		return err
	}

	held, err := h.Network.Hold(RainViewerPattern)
	if err := h.Do("hold "+RainViewerPattern, verify.Require, err); err != nil {
		return err
	}
	defer release(h, held, "release held requests")

	if err := h.Open("/"); err != nil {
		return err
	}

	// The app only initialises once its first radar request completes
	release(h, held, "release initial requests")

	timeout := h.Driver.Timeout()
	if err := h.Do("round options loaded", verify.Require, h.Driver.WaitForOptions("#roundSelect", 1, timeout)); err != nil {
		return err
	}
	if err := h.Do("select round 1", verify.Require, h.Driver.SelectByValue("#roundSelect", "1")); err != nil {
		return err
	}
	release(h, held, "release round requests")

	if err := h.Do("session options loaded", verify.Require, h.Driver.WaitForOptions("#sessionSelect", 1, timeout)); err != nil {
		return err
	}
	if err := h.Do("select session race", verify.Require, h.Driver.SelectByValue("#sessionSelect", "race")); err != nil {
		return err
	}

	if held.WaitForRequest(h.Ctx(), holdWindow) {
		h.Record.Pass("request held during session load", fmt.Sprintf("%d pending", held.Len()))
	} else {
		h.Record.Warn("request held during session load", "no request was intercepted during session selection")
	}

	overlay := verify.Visible("#loadingOverlay")
	overlayErr := verify.Expect(h.Ctx(), overlay, 2*time.Second)
	h.Do(overlay.Description, verify.Check, overlayErr)
	if overlayErr == nil {
		return h.Screenshot("loading_visible")
	}

	var desc *struct {
		ClassName string `json:"className"`
		Style     string `json:"style"`
	}
	if err := h.Driver.Evaluate(dom.DescribeExpr("#loadingOverlay"), &desc); err == nil && desc != nil {
		h.Logger.Info().Str("class", desc.ClassName).Str("style", desc.Style).Msg("Loading overlay state")
	}
	return nil
}

// release waits for the page to issue requests, then continues everything held.
func release(h *harness.Harness, held *intercept.HoldQueue, step string) {
	n, err := held.Settle(h.Ctx(), settleDelay)
	if n > 0 {
		h.Logger.Info().Int("released", n).Str("pattern", held.Pattern()).Msg(step)
	}
	h.Do(step, verify.Check, err)
}
