// Package main provides the bidflow binary entry point.
// Bidflow is an automated bidding agent for freelance marketplace
// projects: it polls the project feed, qualifies candidates against a
// service catalog, derives a price and deadline, composes proposals and
// places sealed bids up to a configured cap.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	// Register LLM providers via init()
	_ "github.com/c360studio/bidflow/llm/providers"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "bidflow"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "bidflow",
		Short: "Automated marketplace bidding agent",
		Long: `Bidflow is an automated bidding agent for freelance marketplace projects.

It polls the active-project feed, filters out ineligible listings,
qualifies the rest against a configured service catalog, derives a bid
amount and deadline, composes proposal text and places sealed bids until
the configured attempt cap is reached.

The run command executes a single bidding run in the foreground. The
serve command starts the dashboard API for managing multiple named
sessions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(configPath, logLevel, dryRun)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Price and compose bids but skip placement")

	cmd.AddCommand(serveCmd())

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func serveCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		listen     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the session dashboard API",
		Long: `Serve starts the HTTP dashboard: named bidding sessions with
independent configuration overrides, run control, stored outcomes and
Prometheus metrics. The config file is watched and reloaded on change;
the new configuration applies to sessions started afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath, logLevel, listen)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&listen, "listen", "", "Dashboard listen address (overrides config)")

	return cmd
}

// setupLogger installs the process logger at the requested level.
func setupLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
