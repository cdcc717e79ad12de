// Package config defines gateway configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults, Load(...) to layer
//   file and environment overrides on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the gateway HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// UpstreamURL is the analysis engine base URL.
	UpstreamURL string `koanf:"upstream_url"`

	// GatewayURL is the gateway base URL used by the watch client.
	GatewayURL string `koanf:"gateway_url"`

	// SQLitePath backs the quota ledger with SQLite when set. Empty keeps
	// quota in memory, which resets on restart.
	SQLitePath string `koanf:"sqlite_path"`

	// ShardCount configures the in-memory quota store's shard count.
	ShardCount int `koanf:"shard_count"`

	// StreamEndpoint is the public relay path advertised in scan tickets.
	StreamEndpoint string `koanf:"stream_endpoint"`

	// SimulateMinMS and SimulateMaxMS bound the timeline fallback interval.
	SimulateMinMS int `koanf:"simulate_min_ms"`
	SimulateMaxMS int `koanf:"simulate_max_ms"`

	// TimelineSteps overrides the presentation ladder labels.
	TimelineSteps []string `koanf:"timeline_steps"`

	// EngineAddr and EngineStepDelayMS configure the scripted engine binary.
	EngineAddr        string `koanf:"engine_addr"`
	EngineStepDelayMS int    `koanf:"engine_step_delay_ms"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":8080",
		UpstreamURL:       "http://localhost:9090",
		GatewayURL:        "http://localhost:8080",
		SQLitePath:        "",
		ShardCount:        8,
		StreamEndpoint:    "/v1/scan/stream",
		SimulateMinMS:     1800,
		SimulateMaxMS:     4800,
		EngineAddr:        ":9090",
		EngineStepDelayMS: 400,
	}
}
