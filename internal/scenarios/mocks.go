// Package scenarios holds the UI verifications run against the circuit weather dashboard.
package scenarios

import (
	"github.com/ternarybob/pitwall/internal/fixtures"
	"github.com/ternarybob/pitwall/internal/harness"
)

// URL patterns of the external APIs the dashboard calls. The F1 pattern covers
// both the direct Ergast host and the local /api/f1 proxy.
const (
	F1Pattern         = "**/f1/current*"
	RainViewerPattern = "**/weather-maps.json"
	OpenMeteoPattern  = "**/api.open-meteo.com/v1/forecast*"
	WeatherAPIPattern = "**/api/weather*"
)

// mockAPIs answers every external API with a fixture, using f1 for the race calendar.
// Routes registered afterwards take precedence.
func mockAPIs(h *harness.Harness, f1 string) error {
	mocks := []struct{ pattern, fixture string }{
		{F1Pattern, f1},
		{RainViewerPattern, fixtures.RainViewer},
		{OpenMeteoPattern, fixtures.OpenMeteo},
		{WeatherAPIPattern, fixtures.WeatherAPI},
	}
	for _, m := range mocks {
		if err := h.MockJSON(m.pattern, m.fixture); err != nil {
			return err
		}
	}
	return nil
}

// openWithMocks mocks the APIs and navigates to the dashboard.
func openWithMocks(h *harness.Harness, f1 string) error {
	if err := mockAPIs(h, f1); err != nil {
		return err
	}
	return h.Open("/")
}
