// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads pipeline configuration and installs the global logger.
//
// Settings come from an optional vehicle-history.yaml (working directory or
// ~/.config/vehicle-history), environment variables prefixed VEHICLE_HISTORY_
// and the defaults below, in decreasing precedence after any bound flags.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/vehicle-history/pkg/types"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "VEHICLE_HISTORY"

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.user_agent", "vehicle-history/0.1")
	v.SetDefault("fetch.max_retries", 5)
	v.SetDefault("fetch.download_delay", time.Second)
	v.SetDefault("fetch.documents_dir", "documents")

	v.SetDefault("ingest.documents_dir", "documents")
	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.provider_hint", "")
	v.SetDefault("ingest.force", false)

	v.SetDefault("store.reports_dir", "reports")
	v.SetDefault("store.max_results", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads configuration into a PipelineConfig. A nil v gets a fresh
// instance; the CLI passes the global one so bound flags take effect. An
// empty cfgFile searches the default locations, and a missing file there is
// not an error.
func Load(v *viper.Viper, cfgFile string) (*types.PipelineConfig, error) {
	if v == nil {
		v = viper.New()
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("vehicle-history")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "vehicle-history"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if cfg.Ingest.ProviderHint != "" && !cfg.Ingest.ProviderHint.Valid() {
		return nil, eris.Errorf("config: unknown provider hint %q", cfg.Ingest.ProviderHint)
	}
	if cfg.Ingest.Workers < 1 {
		cfg.Ingest.Workers = 1
	}
	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg types.LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
