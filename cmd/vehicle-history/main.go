// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the vehicle-history CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/vehicle-history/internal/config"
	"github.com/pdiddy/vehicle-history/internal/secrets"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is loaded once per invocation before any subcommand runs.
	cfg *types.PipelineConfig

	// loadedSecrets holds API tokens loaded from .secrets/ at startup.
	loadedSecrets map[string]string
)

// rootCmd is the base command for the vehicle-history CLI.
var rootCmd = &cobra.Command{
	Use:   "vehicle-history",
	Short: "Ingest and merge vehicle history reports",
	Long: `vehicle-history ingests HTML vehicle history reports from Carfax and
AutoCheck, extracts a normalized event timeline from each, and merges the
documents for one VIN into a single canonical report with provenance.

Stages are subcommands: fetch downloads documents into documents/raw/,
parse writes documents/parsed/, merge builds canonical reports, and report
queries the append-only report store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		c, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return err
		}
		if f := viper.ConfigFileUsed(); f != "" {
			zap.L().Debug("using config file", zap.String("path", f))
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			zap.L().Info("loaded secrets", zap.Strings("keys", secrets.Keys(s)))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./vehicle-history.yaml or ~/.config/vehicle-history/vehicle-history.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "console", "log format: console or json")
	flags.String("documents-dir", "documents", "base directory for documents (contains raw/, parsed/)")
	flags.String("reports-dir", "reports", "base directory for reports (contains merged/, index/)")

	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("ingest.documents_dir", flags.Lookup("documents-dir"))
	_ = viper.BindPFlag("fetch.documents_dir", flags.Lookup("documents-dir"))
	_ = viper.BindPFlag("store.reports_dir", flags.Lookup("reports-dir"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
