package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// Capturer writes PNG screenshots to fixed paths under one directory.
// A capture overwrites the file of the same name from a previous run.
type Capturer struct {
	dir    string
	logger arbor.ILogger

	mu       sync.Mutex
	captured []string
}

func NewCapturer(dir string, logger arbor.ILogger) *Capturer {
	return &Capturer{dir: dir, logger: logger}
}

// Dir returns the output directory.
func (c *Capturer) Dir() string { return c.dir }

// Path returns where the screenshot called name is written.
func (c *Capturer) Path(name string) string {
	return filepath.Join(c.dir, name+".png")
}

// Page captures the current viewport.
func (c *Capturer) Page(ctx context.Context, name string) (string, error) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return "", fmt.Errorf("failed to capture screenshot %s: %w", name, err)
	}
	return c.write(name, buf)
}

// FullPage captures the whole scrollable page.
func (c *Capturer) FullPage(ctx context.Context, name string) (string, error) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return "", fmt.Errorf("failed to capture full page screenshot %s: %w", name, err)
	}
	return c.write(name, buf)
}

// Element captures the first element matching selector.
func (c *Capturer) Element(ctx context.Context, selector, name string) (string, error) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture %s as %s: %w", selector, name, err)
	}
	return c.write(name, buf)
}

func (c *Capturer) write(name string, data []byte) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid screenshot name %q", name)
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	path := c.Path(name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save screenshot: %w", err)
	}

	c.mu.Lock()
	c.captured = append(c.captured, path)
	c.mu.Unlock()

	c.logger.Info().Str("path", path).Int("bytes", len(data)).Msg("Screenshot saved")
	return path, nil
}

// Captured returns the paths written so far, in order.
func (c *Capturer) Captured() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.captured...)
}
