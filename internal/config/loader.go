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
//  1. defaults (New(ctx))
//  2. file (YAML) if LIVESCAN_CONFIG is set
//  3. env (prefix LIVESCAN_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("LIVESCAN_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: LIVESCAN_ADDR, LIVESCAN_UPSTREAM_URL, ...
	// Keys map to the koanf tags with underscores preserved.
	envProvider := env.Provider("LIVESCAN_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "livescan_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.UpstreamURL == "" {
		return fmt.Errorf("%w: upstream_url must not be empty", ErrInvalidConfig)
	}
	if c.SimulateMinMS <= 0 || c.SimulateMaxMS < c.SimulateMinMS {
		return fmt.Errorf("%w: simulate interval bounds are inverted", ErrInvalidConfig)
	}
	if len(c.TimelineSteps) == 1 {
		return fmt.Errorf("%w: timeline_steps needs at least two entries", ErrInvalidConfig)
	}
	return nil
}
