package scenarios

import (
	"time"

	"github.com/ternarybob/pitwall/internal/fixtures"
	"github.com/ternarybob/pitwall/internal/harness"
	"github.com/ternarybob/pitwall/internal/verify"
)

// RadarControls selects round 8, hovers the radar slider and captures the controls.
// Every step is a soft check so the capture is attempted regardless.
func RadarControls(h *harness.Harness) error {
	if err := openWithMocks(h, fixtures.F1Season); err != nil {
		return err
	}

	h.Expect(verify.Check, verify.Hidden("#loadingOverlay"), 30*time.Second)
	h.Do("select round 8", verify.Check, h.Driver.SelectByValue("#roundSelect", "8"))
	h.Expect(verify.Check, verify.Visible("#radarControls"), 10*time.Second)
	h.Do("hover #radarSlider", verify.Check, h.Driver.Hover("#radarSlider"))

	return h.ElementScreenshot("#radarControls", "radar_controls", verify.Check)
}

// RoundSmoke selects the first round and checks the map and radar controls render.
func RoundSmoke(h *harness.Harness) error {
	if err := openWithMocks(h, fixtures.F1Current); err != nil {
		return err
	}

	if err := h.Expect(verify.Require, verify.Hidden("#loadingOverlay"), 15*time.Second); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, verify.Attached(`#roundSelect option[value="1"]`), 10*time.Second); err != nil {
		return err
	}
	if err := h.Do("select round index 1", verify.Require, h.Driver.SelectByIndex("#roundSelect", 1)); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, verify.Visible(".leaflet-container"), 10*time.Second); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, verify.Visible("#radarControls"), 10*time.Second); err != nil {
		return err
	}
	return h.Screenshot("final_verification")
}

// RangeCircles waits for the map and its range labels, then captures the page.
func RangeCircles(h *harness.Harness) error {
	if err := resize(h, desktopWidth, 720); err != nil {
		return err
	}
	if err := openWithMocks(h, fixtures.F1Current); err != nil {
		return err
	}

	if err := h.Expect(verify.Require, verify.Visible(".leaflet-container"), h.Driver.Timeout()); err != nil {
		return err
	}
	h.Expect(verify.Warn, verify.Attached(".range-label"), 10*time.Second)
	h.Do("wait for tiles", verify.Check, h.Driver.Pause(2*time.Second))

	return h.Screenshot("verification_frontend")
}
