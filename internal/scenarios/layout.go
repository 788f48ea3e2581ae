package scenarios

import (
	"fmt"
	"time"

	"github.com/ternarybob/pitwall/internal/fixtures"
	"github.com/ternarybob/pitwall/internal/harness"
	"github.com/ternarybob/pitwall/internal/verify"
)

// Viewports
const (
	desktopWidth  = 1280
	desktopHeight = 800
	mobileWidth   = 375
	mobileHeight  = 812
)

// ResponsiveLayout measures the map controls on a desktop viewport and again after resizing to mobile.
func ResponsiveLayout(h *harness.Harness) error {
	if err := resize(h, desktopWidth, desktopHeight); err != nil {
		return err
	}
	if err := openWithMocks(h, fixtures.F1Current); err != nil {
		return err
	}

	if err := h.Expect(verify.Require, verify.Visible(".leaflet-control-zoom"), h.Driver.Timeout()); err != nil {
		return err
	}
	h.Expect(verify.Check, verify.Hidden("#loadingOverlay"), h.Driver.Timeout())

	h.Do("wait for layout", verify.Check, h.Driver.Pause(500*time.Millisecond))
	h.Screenshot("desktop_layout")
	h.CheckLayout("desktop zoom controls bottom right", ".leaflet-control-zoom", verify.Check,
		verify.MinX(1000), verify.MinY(500))
	h.CheckLayout("desktop radar controls bottom centre", ".radar-controls", verify.Check,
		verify.MinX(200), verify.MinY(600))

	if err := resize(h, mobileWidth, mobileHeight); err != nil {
		return err
	}
	h.Do("wait for layout", verify.Check, h.Driver.Pause(time.Second))
	h.Screenshot("mobile_layout")
	h.CheckLayout("mobile controls container bottom right", ".map-controls-container", verify.Check,
		verify.MinX(250), verify.MinY(600))
	h.CheckLayout("mobile radar controls bottom left", ".radar-controls", verify.Check,
		verify.MaxX(50), verify.MinY(700))

	return nil
}

func resize(h *harness.Harness, width, height int) error {
	return h.Do(fmt.Sprintf("viewport %dx%d", width, height), verify.Require, h.Driver.SetViewport(width, height))
}
