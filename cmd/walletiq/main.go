package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "walletiq"
	version = "v0.3.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Wallet analytics and scoring engine",
		Version: version,
		Long: `walletiq aggregates multi-chain wallet activity into eligibility
scores, trending rankings, funding-graph clusters and behavioral
health reports, served over a read-only JSON API.`,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the analytics HTTP server",
		RunE:  runServe,
	}
	serveCmd.Flags().String("config", "", "Path to YAML config file")
	serveCmd.Flags().Bool("offline", false, "Serve from the in-memory fake provider (no upstream calls)")
	serveCmd.Flags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
