package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pitwall/internal/common"
)

var (
	// Command-line flags
	configFiles  []string // Multiple --config flags supported
	flagPort     int
	flagHost     string
	flagPublic   string
	flagOutput   string
	flagLogLevel string
	flagHeaded   bool

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:               "pitwall",
	Short:             "Browser-driven UI verification for the circuit weather dashboard",
	Long:              `Serves the dashboard locally, drives it in headless Chrome and records screenshots and assertions for each verification scenario.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	flags.IntVarP(&flagPort, "port", "p", 0, "Server port (overrides config)")
	flags.StringVar(&flagHost, "host", "", "Server host (overrides config)")
	flags.StringVar(&flagPublic, "public", "", "Directory served as the site root (overrides config)")
	flags.StringVarP(&flagOutput, "output", "o", "", "Screenshot and report directory (overrides config)")
	flags.StringVar(&flagLogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	flags.BoolVar(&flagHeaded, "headed", false, "Show the browser window")

	rootCmd.AddCommand(runCmd, listCmd, serveCmd, watchCmd, versionCmd)
}

// setup runs before every command. Startup sequence (REQUIRED ORDER):
// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
// 2. Apply CLI overrides (highest priority)
// 3. Validate
// 4. Initialize logger and print banner
func setup(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("pitwall.toml"); err == nil {
			configFiles = append(configFiles, "pitwall.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return err
	}

	common.ApplyFlagOverrides(config, common.FlagOverrides{
		Port:      flagPort,
		Host:      flagHost,
		PublicDir: flagPublic,
		OutputDir: flagOutput,
		LogLevel:  flagLogLevel,
		Headed:    flagHeaded,
	})

	if err := config.Validate(); err != nil {
		return err
	}

	logger = common.InitLogger(config)
	if cmd != listCmd {
		common.PrintBanner(common.GetVersion())
	}

	logger.Debug().
		Strs("config_files", configFiles).
		Str("public_dir", config.Server.PublicDir).
		Str("output_dir", config.Output.Dir).
		Bool("headless", config.Browser.Headless).
		Bool("proxy", config.Proxy.Enabled).
		Msg("Configuration loaded")

	return nil
}

func main() {
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error().Err(err).Msg("Command failed")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
