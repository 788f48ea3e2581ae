// Package fixtures provides the mock API payloads substituted for external endpoints during verification.
package fixtures

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.json
var embedded embed.FS

// Fixture names
const (
	F1Current   = "f1_current"    // One race: round 1, Bahrain Grand Prix
	F1Season    = "f1_season"     // Rounds 1, 2 and 8
	F1TwoRounds = "f1_two_rounds" // "Test Race 1" and "Test Race 2"
	RainViewer  = "rainviewer"    // Radar frame metadata
	OpenMeteo   = "openmeteo"     // Open-Meteo forecast, empty hourly series
	WeatherAPI  = "weather_api"   // /api/weather forecast
)

// Set is an immutable collection of validated payloads keyed by name.
type Set struct {
	payloads map[string][]byte
	sources  map[string]string
}

// Load returns the embedded fixtures with any overrides from dir applied.
// Files named <name>.json, <name>.yaml or <name>.yml replace or add the fixture called name.
func Load(dir string, logger arbor.ILogger) (*Set, error) {
	set := &Set{payloads: map[string][]byte{}, sources: map[string]string{}}

	entries, err := embedded.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded fixtures: %w", err)
	}
	for _, entry := range entries {
		data, err := embedded.ReadFile("data/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded fixture %s: %w", entry.Name(), err)
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		if err := set.put(name, data, "embedded"); err != nil {
			return nil, err
		}
	}

	if dir == "" {
		return set, nil
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures directory %s: %w", dir, err)
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(file.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, file.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
		}
		if ext != ".json" {
			if data, err = yamlToJSON(data); err != nil {
				return nil, fmt.Errorf("failed to convert fixture %s: %w", path, err)
			}
		}

		name := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
		if err := set.put(name, data, path); err != nil {
			return nil, err
		}
		logger.Debug().Str("fixture", name).Str("path", path).Msg("Fixture override loaded")
	}

	return set, nil
}

func (s *Set) put(name string, data []byte, source string) error {
	if err := Validate(name, data); err != nil {
		return fmt.Errorf("fixture %s from %s: %w", name, source, err)
	}
	s.payloads[name] = data
	s.sources[name] = source
	return nil
}

// Get returns the payload called name.
func (s *Set) Get(name string) ([]byte, error) {
	data, ok := s.payloads[name]
	if !ok {
		return nil, fmt.Errorf("unknown fixture %q", name)
	}
	return data, nil
}

// Source returns "embedded" or the override file path the fixture came from.
func (s *Set) Source(name string) string {
	return s.sources[name]
}

// Names returns the fixture names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.payloads))
	for name := range s.payloads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
