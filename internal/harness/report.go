package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ternarybob/pitwall/internal/models"
)

// WriteReports writes report.json, report.md and report.html into dir, replacing earlier runs.
func WriteReports(dir string, report *models.RunReport) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	markdown := RenderMarkdown(report)
	page, err := RenderHTML(markdown, report)
	if err != nil {
		return nil, err
	}

	files := map[string][]byte{
		"report.json": data,
		"report.md":   []byte(markdown),
		"report.html": page,
	}

	var written []string
	for _, name := range []string{"report.json", "report.md", "report.html"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name], 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// RenderMarkdown renders the run as a GitHub-flavoured markdown document.
func RenderMarkdown(report *models.RunReport) string {
	var b strings.Builder
	pass, warn, fail := report.Counts()

	fmt.Fprintf(&b, "# Verification report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", report.ID)
	fmt.Fprintf(&b, "- Version: %s\n", report.Version)
	fmt.Fprintf(&b, "- Target: %s\n", report.BaseURL)
	fmt.Fprintf(&b, "- Started: %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Result: **%s** (%d passed, %d warned, %d failed)\n\n", report.Status(), pass, warn, fail)

	b.WriteString("| Scenario | Status | Duration | Steps |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, s := range report.Scenarios {
		fmt.Fprintf(&b, "| %s | %s | %dms | %d |\n", cell(s.Name), s.Status, s.DurationMs, len(s.Steps))
	}

	for _, s := range report.Scenarios {
		fmt.Fprintf(&b, "\n## %s\n\n", s.Name)
		if s.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", s.Description)
		}
		if s.Error != "" {
			fmt.Fprintf(&b, "> %s\n\n", s.Error)
		}

		b.WriteString("| Step | Status | Detail |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, step := range s.Steps {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(step.Name), step.Status, cell(step.Message))
		}

		for _, shot := range s.Screenshots {
			name := filepath.Base(shot)
			fmt.Fprintf(&b, "\n![%s](%s)\n", strings.TrimSuffix(name, ".png"), name)
		}

		if len(s.Console) > 0 {
			b.WriteString("\n```text\n")
			for _, line := range s.Console {
				b.WriteString(line)
				b.WriteString("\n")
			}
			b.WriteString("```\n")
		}
	}

	return b.String()
}

// RenderHTML converts the markdown report into a standalone HTML page.
func RenderHTML(markdown string, report *models.RunReport) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n", html.EscapeString("Verification report "+report.ID))
	page.WriteString("<style>body{font-family:sans-serif;max-width:1100px;margin:2em auto}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 8px}img{max-width:100%;border:1px solid #ddd}</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// PrintSummary writes one coloured line per scenario followed by the totals.
func PrintSummary(out io.Writer, report *models.RunReport) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Summary ===")
	for _, s := range report.Scenarios {
		fmt.Fprintf(out, "%s %s (%dms)\n", statusLabel(s.Status), s.Name, s.DurationMs)
	}

	pass, warn, fail := report.Counts()
	fmt.Fprintf(out, "\n%s %d passed, %d warned, %d failed\n", statusLabel(report.Status()), pass, warn, fail)
}

func statusLabel(status models.Status) string {
	switch status {
	case models.StatusPass:
		return color.New(color.FgGreen, color.Bold).Sprint("[PASS]")
	case models.StatusWarn:
		return color.New(color.FgYellow, color.Bold).Sprint("[WARN]")
	default:
		return color.New(color.FgRed, color.Bold).Sprint("[FAIL]")
	}
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
