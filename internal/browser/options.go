package browser

import (
	"github.com/chromedp/chromedp"

	"github.com/ternarybob/pitwall/internal/common"
)

// SessionConfig holds browser process settings
type SessionConfig struct {
	Headless           bool
	DisableWebSecurity bool
	NoSandbox          bool
	ExecPath           string
	Width              int
	Height             int
	UserAgent          string
}

// SessionConfigFrom maps the [browser] config section.
func SessionConfigFrom(config *common.Config) SessionConfig {
	return SessionConfig{
		Headless:           config.Browser.Headless,
		DisableWebSecurity: config.Browser.DisableWebSecurity,
		NoSandbox:          config.Browser.NoSandbox,
		ExecPath:           config.Browser.ExecPath,
		Width:              config.Browser.Width,
		Height:             config.Browser.Height,
		UserAgent:          config.Browser.UserAgent,
	}
}

// allocatorFlags returns the command-line switches layered over chromedp's defaults
func allocatorFlags(config SessionConfig) map[string]interface{} {
	flags := map[string]interface{}{
		"headless":              config.Headless,
		"disable-gpu":           config.Headless,
		"disable-dev-shm-usage": true,
		"hide-scrollbars":       true,
		"mute-audio":            true,
		// Keep timers running so polling pages behave the same headed and headless
		"disable-background-timer-throttling": true,
		"disable-renderer-backgrounding":      true,
	}
	if config.NoSandbox {
		flags["no-sandbox"] = true
	}
	if config.DisableWebSecurity {
		flags["disable-web-security"] = true
	}
	return flags
}

// AllocatorOptions builds the exec allocator options for a session
func AllocatorOptions(config SessionConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range allocatorFlags(config) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if config.Width > 0 && config.Height > 0 {
		opts = append(opts, chromedp.WindowSize(config.Width, config.Height))
	}
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(config.ExecPath))
	}
	return opts
}
