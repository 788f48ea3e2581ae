package fixtures

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Validate checks data is JSON and, for known fixtures, that it has the fields the frontend reads.
func Validate(name string, data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid JSON")
	}
	doc := gjson.ParseBytes(data)

	switch {
	case strings.HasPrefix(name, "f1_"):
		return validateRaces(doc)
	case name == RainViewer:
		return requirePaths(doc, "host", "radar.past")
	case name == OpenMeteo, name == WeatherAPI:
		if err := requirePaths(doc, "current.temperature_2m", "hourly.time"); err != nil {
			return err
		}
		if !doc.Get("hourly.time").IsArray() {
			return errors.New("hourly.time must be an array")
		}
	}
	return nil
}

func validateRaces(doc gjson.Result) error {
	races := doc.Get("MRData.RaceTable.Races")
	if !races.IsArray() || len(races.Array()) == 0 {
		return errors.New("MRData.RaceTable.Races must be a non-empty array")
	}

	var err error
	races.ForEach(func(i, race gjson.Result) bool {
		if e := requirePaths(race, "round", "raceName", "Circuit.Location.lat", "Circuit.Location.long"); e != nil {
			err = fmt.Errorf("race %d: %w", i.Int(), e)
			return false
		}
		return true
	})
	return err
}

func requirePaths(doc gjson.Result, paths ...string) error {
	var missing []string
	for _, path := range paths {
		if !doc.Get(path).Exists() {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}
