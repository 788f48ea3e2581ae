package harness

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownScenario is returned by Select for a name that is not registered.
var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario is one linear verification: navigate, wait, interact, assert, capture.
type Scenario struct {
	Name        string
	Description string
	Run         func(h *Harness) error
}

// Select returns the scenarios called names, in the order given.
// An empty names list selects everything.
func Select(all []Scenario, names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return all, nil
	}

	byName := make(map[string]Scenario, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}

	selected := make([]Scenario, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownScenario, name, Names(all))
		}
		if !seen[name] {
			seen[name] = true
			selected = append(selected, s)
		}
	}
	return selected, nil
}

// Names returns the sorted scenario names.
func Names(all []Scenario) []string {
	names := make([]string, 0, len(all))
	for _, s := range all {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}
