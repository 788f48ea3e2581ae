package scenarios

import (
	"github.com/ternarybob/pitwall/internal/fixtures"
	"github.com/ternarybob/pitwall/internal/harness"
	"github.com/ternarybob/pitwall/internal/verify"
)

const compactHeight = 667

// WeatherWidget checks the desktop widget and the mobile card appear once a round is selected.
func WeatherWidget(h *harness.Harness) error {
	if err := openWithMocks(h, fixtures.F1TwoRounds); err != nil {
		return err
	}
	timeout := h.Driver.Timeout()

	if err := h.Expect(verify.Require, verify.Hidden(".weather-widget"), timeout); err != nil {
		return err
	}
	if err := h.Do("select round 1", verify.Require, h.Driver.SelectByValue("#roundSelect", "1")); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, verify.Visible(".weather-widget"), timeout); err != nil {
		return err
	}
	h.Screenshot("desktop_widget")

	if err := resize(h, mobileWidth, compactHeight); err != nil {
		return err
	}
	if err := h.Do("reload", verify.Require, h.Driver.Reload()); err != nil {
		return err
	}

	if err := h.Expect(verify.Require, verify.Hidden("#mobileWeatherCard"), timeout); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, verify.Attached(`#roundSelect option[value="2"]`), timeout); err != nil {
		return err
	}
	if err := h.Do("select round 2", verify.Require, h.Driver.SelectByValue("#roundSelect", "2")); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, verify.Visible("#mobileWeatherCard"), timeout); err != nil {
		return err
	}
	return h.Screenshot("mobile_widget")
}

// selectRace opens the dashboard, picks round 1, checks the session-scoped state
// with before, then picks the race session.
func selectRace(h *harness.Harness, before verify.Condition) error {
	if err := openWithMocks(h, fixtures.F1Current); err != nil {
		return err
	}
	if err := h.Do("select round 1", verify.Require, h.Driver.SelectByValue("#roundSelect", "1")); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, before, h.Driver.Timeout()); err != nil {
		return err
	}
	return h.Do("select session race", verify.Require, h.Driver.SelectByValue("#sessionSelect", "race"))
}

const (
	weatherControl       = ".leaflet-control-weather"
	precipitationMetric  = weatherControl + ` div[title="Precipitation"] span`
	precipitationPending = "--%"
	forecastMetric       = "#weather-widget-container .weather-widget-metric"
)

// WeatherCard checks the weather control's precipitation goes from placeholder to a value for the race session.
func WeatherCard(h *harness.Harness) error {
	if err := selectRace(h, verify.TextEquals(precipitationMetric, precipitationPending)); err != nil {
		return err
	}

	if err := h.Expect(verify.Require, verify.Visible(weatherControl), h.Driver.Timeout()); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, verify.TextNotEqual(precipitationMetric, precipitationPending), h.Driver.Timeout()); err != nil {
		return err
	}
	return h.ElementScreenshot(weatherControl, "weather_card", verify.Check)
}

// Forecast checks the forecast metrics are hidden until the race session is selected, then render.
func Forecast(h *harness.Harness) error {
	if err := selectRace(h, verify.Hidden(forecastMetric)); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, verify.Visible(forecastMetric), h.Driver.Timeout()); err != nil {
		return err
	}
	return h.Screenshot("forecast")
}

// openCompact opens the dashboard on a small phone viewport.
func openCompact(h *harness.Harness) error {
	if err := resize(h, mobileWidth, compactHeight); err != nil {
		return err
	}
	if err := openWithMocks(h, fixtures.F1Current); err != nil {
		return err
	}
	return h.Expect(verify.Require, verify.Visible(".leaflet-control-weather"), h.Driver.Timeout())
}

// MobilePadding checks the mobile weather control shows a real temperature.
func MobilePadding(h *harness.Harness) error {
	if err := openCompact(h); err != nil {
		return err
	}
	temperature := "#weatherWidget .temperature"
	if err := h.Expect(verify.Require, verify.Visible(temperature), h.Driver.Timeout()); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, verify.TextNotEqual(temperature, "--°"), h.Driver.Timeout()); err != nil {
		return err
	}
	return h.Screenshot("verify_padding_fix")
}

// MobileFinal captures the mobile layout once the temperature metric is populated.
func MobileFinal(h *harness.Harness) error {
	if err := openCompact(h); err != nil {
		return err
	}
	metric := `.leaflet-control-weather .weather-widget-metric[title="Temperature"] span`
	if err := h.Expect(verify.Require, verify.TextNotEqual(metric, "--"), h.Driver.Timeout()); err != nil {
		return err
	}
	return h.Screenshot("final_padding_fix_verification")
}

// WidgetTemperature selects the first round and checks the live widget temperature.
func WidgetTemperature(h *harness.Harness) error {
	if err := openWithMocks(h, fixtures.F1Current); err != nil {
		return err
	}
	if err := h.Do("select round index 1", verify.Require, h.Driver.SelectByIndex("#roundSelect", 1)); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, verify.TextNotEqual("#widgetTemp", "--"), h.Driver.Timeout()); err != nil {
		return err
	}
	return h.Expect(verify.Require, verify.Visible(".weather-widget"), h.Driver.Timeout())
}
