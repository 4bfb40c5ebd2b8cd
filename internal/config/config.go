// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and environment variables.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RPCURL is the ledger JSON-RPC endpoint.
	RPCURL string `koanf:"rpc_url"`

	// ContractAddress is the prediction-market contract whose logs and
	// read functions feed the pipeline.
	ContractAddress string `koanf:"contract_address"`

	// LookbackBlocks bounds the discovery log scan, measured back from head.
	LookbackBlocks uint64 `koanf:"lookback_blocks"`

	// MinPredictions is the qualification threshold for the public leaderboard.
	MinPredictions int `koanf:"min_predictions"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// DefaultListSize is used when no limit is given (summary widgets).
	DefaultListSize int `koanf:"default_list_size"`

	// CacheTTLSeconds is how long a computed snapshot is served as fresh.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// RefreshBackoffSeconds delays the retry after a failed refresh.
	RefreshBackoffSeconds int `koanf:"refresh_backoff_seconds"`

	// AggregateWorkers bounds concurrent per-address aggregation fetches.
	AggregateWorkers int `koanf:"aggregate_workers"`

	// LedgerTimeoutMS bounds each individual ledger call.
	LedgerTimeoutMS int `koanf:"ledger_timeout_ms"`

	// PipelineTimeoutMS is the outer deadline for one full refresh run.
	PipelineTimeoutMS int `koanf:"pipeline_timeout_ms"`

	// RPCRateLimit caps ledger calls per second to avoid hammering the endpoint.
	RPCRateLimit float64 `koanf:"rpc_rate_limit"`

	// DisplayNames maps addresses to display names for the profile store.
	DisplayNames map[string]string `koanf:"display_names"`
}

// New creates a Config with engine defaults.
func New() *Config {
	c := &Config{
		LogLevel:              "info",
		Addr:                  ":9090",
		LookbackBlocks:        10_000,
		MinPredictions:        10,
		MaxLeaderboardLimit:   100,
		DefaultListSize:       10,
		CacheTTLSeconds:       300,
		RefreshBackoffSeconds: 30,
		AggregateWorkers:      runtime.NumCPU() * 2,
		LedgerTimeoutMS:       10_000,
		PipelineTimeoutMS:     120_000,
		RPCRateLimit:          20,
		DisplayNames:          map[string]string{},
	}
	return c
}
