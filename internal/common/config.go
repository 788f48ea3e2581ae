package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "ci" - ci forces headless
	Server      ServerConfig    `toml:"server"`
	Browser     BrowserConfig   `toml:"browser"`
	Output      OutputConfig    `toml:"output"`
	Proxy       ProxyConfig     `toml:"proxy"`
	Fixtures    FixturesConfig  `toml:"fixtures"`
	Logging     LoggingConfig   `toml:"logging"`
	Watch       WatchConfig     `toml:"watch"`
	Scenarios   ScenariosConfig `toml:"scenarios"`
	Preflight   PreflightConfig `toml:"preflight"`
}

// ServerConfig controls the local static server the browser is pointed at.
type ServerConfig struct {
	Port      int    `toml:"port" validate:"gte=0,lte=65535"`
	Host      string `toml:"host" validate:"required"`
	PublicDir string `toml:"public_dir" validate:"required"`
}

type BrowserConfig struct {
	Headless           bool   `toml:"headless"`
	DisableWebSecurity bool   `toml:"disable_web_security"` // Allows file:// and cross-origin fixtures
	NoSandbox          bool   `toml:"no_sandbox"`           // Required when running as root in containers
	ExecPath           string `toml:"exec_path"`            // Empty = chromedp auto-detect
	Width              int    `toml:"width" validate:"gt=0"`
	Height             int    `toml:"height" validate:"gt=0"`
	UserAgent          string `toml:"user_agent"`
	DefaultTimeout     string `toml:"default_timeout" validate:"required"`  // e.g. "10s" - implicit wait for driver actions
	ScenarioTimeout    string `toml:"scenario_timeout" validate:"required"` // e.g. "2m" - hard limit per scenario
}

type OutputConfig struct {
	Dir    string `toml:"dir" validate:"required"`
	Report bool   `toml:"report"` // Write report.json/.md/.html after each run
}

// ProxyConfig configures the /api/f1 pass-through proxy served next to the static files.
type ProxyConfig struct {
	Enabled        bool    `toml:"enabled"`
	UpstreamURL    string  `toml:"upstream_url" validate:"omitempty,url"`
	CacheTTL       string  `toml:"cache_ttl"`
	CachePath      string  `toml:"cache_path"` // Empty = in-memory cache
	RateLimit      float64 `toml:"rate_limit" validate:"gte=0"` // Upstream requests per second, 0 = unlimited
	Burst          int     `toml:"burst" validate:"gte=0"`
	RequestTimeout string  `toml:"request_timeout"`
	UserAgent      string  `toml:"user_agent"`
}

type FixturesConfig struct {
	Dir string `toml:"dir"` // Optional directory of .json/.yaml overrides
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output []string `toml:"output"` // "console", "stdout", "file"
}

type WatchConfig struct {
	Schedule string `toml:"schedule"` // Cron expression with seconds field
}

type ScenariosConfig struct {
	Enabled []string `toml:"enabled"` // Empty = all registered scenarios
}

type PreflightConfig struct {
	Enabled     bool     `toml:"enabled"`
	RequiredIDs []string `toml:"required_ids"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:      8000,
			Host:      "localhost",
			PublicDir: "public",
		},
		Browser: BrowserConfig{
			Headless:        true,
			Width:           1280,
			Height:          800,
			DefaultTimeout:  "10s",
			ScenarioTimeout: "2m",
		},
		Output: OutputConfig{
			Dir:    "verification",
			Report: true,
		},
		Proxy: ProxyConfig{
			Enabled:        true,
			UpstreamURL:    "https://api.jolpi.ca/ergast/f1",
			CacheTTL:       "1h",
			RateLimit:      4,
			Burst:          4,
			RequestTimeout: "15s",
			UserAgent:      "CircuitWeather/1.0",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"console"},
		},
		Watch: WatchConfig{
			Schedule: "0 */30 * * * *",
		},
		Preflight: PreflightConfig{
			Enabled: true,
			RequiredIDs: []string{
				"roundSelect",
				"sessionSelect",
				"loadingOverlay",
				"shareBtn",
				"radarControls",
				"radarSlider",
				"weatherWidget",
			},
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied afterwards with ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies PITWALL_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PITWALL_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if host := os.Getenv("PITWALL_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("PITWALL_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dir := os.Getenv("PITWALL_PUBLIC_DIR"); dir != "" {
		config.Server.PublicDir = dir
	}

	// Browser configuration
	if headless := os.Getenv("PITWALL_HEADLESS"); headless != "" {
		if b, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = b
		}
	}
	if execPath := os.Getenv("PITWALL_BROWSER_EXEC_PATH"); execPath != "" {
		config.Browser.ExecPath = execPath
	}
	if noSandbox := os.Getenv("PITWALL_NO_SANDBOX"); noSandbox != "" {
		if b, err := strconv.ParseBool(noSandbox); err == nil {
			config.Browser.NoSandbox = b
		}
	}

	if dir := os.Getenv("PITWALL_OUTPUT_DIR"); dir != "" {
		config.Output.Dir = dir
	}

	// Proxy configuration
	if enabled := os.Getenv("PITWALL_PROXY_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Proxy.Enabled = b
		}
	}
	if upstream := os.Getenv("PITWALL_PROXY_UPSTREAM"); upstream != "" {
		config.Proxy.UpstreamURL = upstream
	}

	if dir := os.Getenv("PITWALL_FIXTURES_DIR"); dir != "" {
		config.Fixtures.Dir = dir
	}

	// Logging configuration
	if level := os.Getenv("PITWALL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("PITWALL_LOG_OUTPUT"); output != "" {
		config.Logging.Output = splitList(output)
	}

	if schedule := os.Getenv("PITWALL_WATCH_SCHEDULE"); schedule != "" {
		config.Watch.Schedule = schedule
	}
	if scenarios := os.Getenv("PITWALL_SCENARIOS"); scenarios != "" {
		config.Scenarios.Enabled = splitList(scenarios)
	}
}

// FlagOverrides carries command-line values; zero values leave config untouched.
type FlagOverrides struct {
	Port      int
	Host      string
	PublicDir string
	OutputDir string
	LogLevel  string
	Headed    bool
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, flags FlagOverrides) {
	// Command-line flags have highest priority
	if flags.Port > 0 {
		config.Server.Port = flags.Port
	}
	if flags.Host != "" {
		config.Server.Host = flags.Host
	}
	if flags.PublicDir != "" {
		config.Server.PublicDir = flags.PublicDir
	}
	if flags.OutputDir != "" {
		config.Output.Dir = flags.OutputDir
	}
	if flags.LogLevel != "" {
		config.Logging.Level = flags.LogLevel
	}
	if flags.Headed {
		config.Browser.Headless = false
	}
}

// Validate checks struct constraints and parses every duration and schedule.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	durations := map[string]string{
		"browser.default_timeout":  c.Browser.DefaultTimeout,
		"browser.scenario_timeout": c.Browser.ScenarioTimeout,
		"proxy.cache_ttl":          c.Proxy.CacheTTL,
		"proxy.request_timeout":    c.Proxy.RequestTimeout,
	}
	for key, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
	}

	if c.Proxy.Enabled && c.Proxy.UpstreamURL == "" {
		return fmt.Errorf("proxy.upstream_url is required when the proxy is enabled")
	}

	if c.Watch.Schedule != "" {
		if err := ValidateSchedule(c.Watch.Schedule); err != nil {
			return err
		}
	}

	if c.IsCI() && !c.Browser.Headless {
		return fmt.Errorf("headed browser is not supported when environment is %q", c.Environment)
	}

	return nil
}

// ScheduleParser accepts six-field cron expressions (seconds first).
var ScheduleParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule validates a watch schedule expression
func ValidateSchedule(schedule string) error {
	if _, err := ScheduleParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}
	return nil
}

// DefaultTimeout returns the parsed implicit wait for driver actions.
func (c *Config) DefaultTimeout() time.Duration {
	return parseDurationOr(c.Browser.DefaultTimeout, 10*time.Second)
}

// ScenarioTimeout returns the parsed hard limit for one scenario.
func (c *Config) ScenarioTimeout() time.Duration {
	return parseDurationOr(c.Browser.ScenarioTimeout, 2*time.Minute)
}

func (c *Config) CacheTTL() time.Duration {
	return parseDurationOr(c.Proxy.CacheTTL, time.Hour)
}

func (c *Config) RequestTimeout() time.Duration {
	return parseDurationOr(c.Proxy.RequestTimeout, 15*time.Second)
}

// IsCI returns true when running in a CI environment
func (c *Config) IsCI() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "ci"
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// splitList splits a comma-separated value, dropping blanks
func splitList(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
