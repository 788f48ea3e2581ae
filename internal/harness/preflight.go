package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"
)

// Preflight parses <publicDir>/index.html and returns the required element ids
// it does not contain. Missing ids are reported as warnings, not failures.
func Preflight(publicDir string, requiredIDs []string) ([]string, error) {
	path := filepath.Join(publicDir, "index.html")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	doc, err := goquery.NewDocumentFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	present := map[string]bool{}
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok {
			present[id] = true
		}
	})

	var missing []string
	for _, id := range requiredIDs {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
