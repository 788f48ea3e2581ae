package scenarios

import "github.com/ternarybob/pitwall/internal/harness"

// All returns every registered scenario in execution order.
func All() []harness.Scenario {
	return []harness.Scenario{
		{Name: "loading-overlay", Description: "Holds radar metadata and checks the loading overlay while a session loads", Run: LoadingOverlay},
		{Name: "share-button", Description: "Clicks share and checks the copied feedback", Run: ShareButton},
		{Name: "responsive-layout", Description: "Checks control placement on desktop and mobile viewports", Run: ResponsiveLayout},
		{Name: "weather-widget", Description: "Checks the desktop widget and mobile card appear after selecting a round", Run: WeatherWidget},
		{Name: "weather-card", Description: "Checks the weather control shows precipitation for a race session", Run: WeatherCard},
		{Name: "forecast", Description: "Checks forecast metrics render for a race session", Run: Forecast},
		{Name: "radar-controls", Description: "Hovers the radar slider and captures the controls", Run: RadarControls},
		{Name: "round-smoke", Description: "Selects the first round and checks the map and radar controls", Run: RoundSmoke},
		{Name: "mobile-padding", Description: "Checks the mobile weather control shows a temperature", Run: MobilePadding},
		{Name: "mobile-final", Description: "Captures the final mobile layout with a populated temperature", Run: MobileFinal},
		{Name: "widget-temperature", Description: "Checks the live widget temperature is populated", Run: WidgetTemperature},
		{Name: "range-circles", Description: "Captures the map with range circles", Run: RangeCircles},
	}
}
