package scenarios

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/pitwall/internal/harness"
	"github.com/ternarybob/pitwall/internal/intercept"
)

func TestAll_UniqueAndRunnable(t *testing.T) {
	all := All()
	require.Len(t, all, 12)

	seen := map[string]bool{}
	for _, s := range all {
		assert.False(t, seen[s.Name], "duplicate scenario %s", s.Name)
		seen[s.Name] = true
		assert.NotEmpty(t, s.Description, s.Name)
		assert.NotNil(t, s.Run, s.Name)
	}
}

func TestAll_Selectable(t *testing.T) {
	selected, err := harness.Select(All(), []string{"share-button", "loading-overlay"})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "share-button", selected[0].Name)
}

func TestPatterns(t *testing.T) {
	tests := []struct {
		pattern string
		url     string
		want    bool
	}{
		{F1Pattern, "https://api.jolpi.ca/ergast/f1/current", true},
		{F1Pattern, "https://api.jolpi.ca/ergast/f1/current.json", true},
		{F1Pattern, "http://localhost:8000/api/f1/current", true},
		{F1Pattern, "https://api.jolpi.ca/ergast/f1/2024/results", false},
		{RainViewerPattern, "https://api.rainviewer.com/public/weather-maps.json", true},
		{OpenMeteoPattern, "https://api.open-meteo.com/v1/forecast?latitude=26.03&longitude=50.51", true},
		{WeatherAPIPattern, "http://localhost:8000/api/weather?lat=1&lon=2", true},
		{WeatherAPIPattern, "http://localhost:8000/api/f1/current", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, intercept.ParsePattern(tt.pattern).Match(tt.url), "%s vs %s", tt.pattern, tt.url)
	}
}
