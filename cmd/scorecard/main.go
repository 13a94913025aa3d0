package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "scorecard",
	Short: "Scorecard dashboard backed by published Google Sheets",
	Long: `scorecard fetches published Google Sheets, extracts the scorecard metrics
and serves a render-ready view over HTTP, WebSocket and Prometheus exposition.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging loads .env when present and installs a JSON slog logger at the
// level named by LOGLEVEL.
func setupLogging() {
	envErr := godotenv.Load()

	level, known := parseLevel(os.Getenv("LOGLEVEL"))
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if !known {
		slog.Warn("unknown LOGLEVEL, defaulting to info", "loglevel", os.Getenv("LOGLEVEL"))
	}
	// Report on .env only now that logging is set up.
	if envErr == nil {
		slog.Debug("loaded environment variables from .env")
	}
}

// parseLevel maps a LOGLEVEL value to a slog level. Empty means info.
func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
