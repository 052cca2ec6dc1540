// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "vehicle-history/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds the 429 backoff loop (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// FetchConfig holds settings for downloading raw provider documents.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay" mapstructure:"download_delay"`

	// DocumentsDir is the base directory for documents (contains raw/, parsed/).
	DocumentsDir string `json:"documents_dir" yaml:"documents_dir" mapstructure:"documents_dir"`

	// Tokens maps a provider to the bearer token sent with its requests.
	Tokens map[Provider]string `json:"-" yaml:"-" mapstructure:"-"`
}

// IngestConfig holds settings for the parse stage.
type IngestConfig struct {
	// DocumentsDir is the base directory for documents (contains raw/, parsed/).
	DocumentsDir string `json:"documents_dir" yaml:"documents_dir" mapstructure:"documents_dir"`

	// Workers bounds how many documents are parsed concurrently (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// ProviderHint forces a provider instead of running detection.
	ProviderHint Provider `json:"provider_hint,omitempty" yaml:"provider_hint,omitempty" mapstructure:"provider_hint"`

	// Force re-parses documents even when the parsed output is newer.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`
}

// StoreConfig holds settings for the canonical report store.
type StoreConfig struct {
	// ReportsDir is the base directory for reports (contains merged/, index/).
	ReportsDir string `json:"reports_dir" yaml:"reports_dir" mapstructure:"reports_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Fetch  FetchConfig  `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Ingest IngestConfig `json:"ingest" yaml:"ingest" mapstructure:"ingest"`
	Store  StoreConfig  `json:"store" yaml:"store" mapstructure:"store"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}
