package intercept

import (
	"strings"

	"github.com/tidwall/match"
)

// Pattern is a URL glob as written by test authors, e.g. "**/weather-maps.json".
// "*" matches any run of characters including "/", "?" matches a single character.
// "**" is accepted and behaves like "*".
type Pattern struct {
	raw  string
	glob string
}

// ParsePattern normalises a glob so the same string can be matched in Go and sent to the Fetch domain.
func ParsePattern(raw string) Pattern {
	glob := raw
	for strings.Contains(glob, "**") {
		glob = strings.ReplaceAll(glob, "**", "*")
	}
	return Pattern{raw: raw, glob: glob}
}

// Match reports whether url matches the pattern.
func (p Pattern) Match(url string) bool {
	return match.Match(url, p.glob)
}

// URLPattern returns the form understood by Fetch.enable.
func (p Pattern) URLPattern() string {
	return p.glob
}

func (p Pattern) String() string {
	return p.raw
}
