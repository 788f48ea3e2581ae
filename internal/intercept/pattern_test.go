package intercept

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		pattern string
		url     string
		want    bool
	}{
		{"**/weather-maps.json", "https://api.rainviewer.com/public/weather-maps.json", true},
		{"**/weather-maps.json", "https://api.rainviewer.com/public/weather-maps.json?t=1", false},
		{"**/api/f1/current**", "http://localhost:8000/api/f1/current.json", true},
		{"https://api.open-meteo.com/v1/forecast**", "https://api.open-meteo.com/v1/forecast?latitude=26.03", true},
		{"https://api.open-meteo.com/v1/forecast**", "https://example.com/v1/forecast", false},
		{"**/api/weather**", "http://localhost:8000/api/weather?lat=1&lon=2", true},
		{"**/round?.json", "http://x/round1.json", true},
		{"**", "anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePattern(tt.pattern).Match(tt.url))
		})
	}
}

func TestPatternURLPattern(t *testing.T) {
	p := ParsePattern("https://api.jolpi.ca/ergast/f1/***")
	assert.Equal(t, "https://api.jolpi.ca/ergast/f1/*", p.URLPattern())
	assert.Equal(t, "https://api.jolpi.ca/ergast/f1/***", p.String())
}
