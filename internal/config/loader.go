package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if PREDICTFUND_CONFIG is set
//  3. env (prefix PREDICTFUND_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("PREDICTFUND_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: PREDICTFUND_ADDR, PREDICTFUND_RPC_URL, ...
	// Map env keys like PREDICTFUND_LOOKBACK_BLOCKS -> lookback_blocks (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PREDICTFUND_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "predictfund_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations that cannot produce a working pipeline.
// These are fatal at startup, never recovered at runtime.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LookbackBlocks == 0:
		return fmt.Errorf("%w: lookback_blocks must be positive", ErrInvalidConfig)
	case c.MinPredictions < 0:
		return fmt.Errorf("%w: min_predictions must not be negative", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.DefaultListSize < 1:
		return fmt.Errorf("%w: default_list_size must be positive", ErrInvalidConfig)
	case c.CacheTTLSeconds < 1:
		return fmt.Errorf("%w: cache_ttl_seconds must be positive", ErrInvalidConfig)
	case c.RefreshBackoffSeconds < 1:
		return fmt.Errorf("%w: refresh_backoff_seconds must be positive", ErrInvalidConfig)
	case c.AggregateWorkers < 1:
		return fmt.Errorf("%w: aggregate_workers must be positive", ErrInvalidConfig)
	case c.LedgerTimeoutMS < 1 || c.PipelineTimeoutMS < 1:
		return fmt.Errorf("%w: ledger and pipeline timeouts must be positive", ErrInvalidConfig)
	case c.RPCRateLimit <= 0:
		return fmt.Errorf("%w: rpc_rate_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
