package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ternarybob/pitwall/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard and the F1 proxy without running scenarios",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	application.Preflight()
	baseURL, err := application.Start()
	if err != nil {
		return err
	}

	logger.Info().Str("url", baseURL).Msg("Server ready - Press Ctrl+C to stop")
	fmt.Fprintf(cmd.OutOrStdout(), "\nServing %s on %s\n", config.Server.PublicDir, baseURL)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info().Msg("Interrupt signal received")
	return nil
}
