package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/verdictswarm/livescan/internal/config"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"LIVESCAN_CONFIG",
		"LIVESCAN_ADDR",
		"LIVESCAN_LOG_LEVEL",
		"LIVESCAN_UPSTREAM_URL",
		"LIVESCAN_SQLITE_PATH",
		"LIVESCAN_SHARD_COUNT",
		"LIVESCAN_SIMULATE_MIN_MS",
		"LIVESCAN_SIMULATE_MAX_MS",
		"LIVESCAN_ENGINE_ADDR",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "livescan.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.UpstreamURL, convey.ShouldEqual, "http://localhost:9090")
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 8)
				convey.So(cfg.SimulateMinMS, convey.ShouldEqual, 1800)
				convey.So(cfg.SimulateMaxMS, convey.ShouldEqual, 4800)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("LIVESCAN_ADDR", ":8888")
			_ = os.Setenv("LIVESCAN_UPSTREAM_URL", "http://engine:9090")
			_ = os.Setenv("LIVESCAN_SQLITE_PATH", "/var/lib/livescan/quota.db")
			_ = os.Setenv("LIVESCAN_SHARD_COUNT", "16")
			_ = os.Setenv("LIVESCAN_SIMULATE_MIN_MS", "500")
			_ = os.Setenv("LIVESCAN_SIMULATE_MAX_MS", "900")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8888")
				convey.So(cfg.UpstreamURL, convey.ShouldEqual, "http://engine:9090")
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/var/lib/livescan/quota.db")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 16)
				convey.So(cfg.SimulateMinMS, convey.ShouldEqual, 500)
				convey.So(cfg.SimulateMaxMS, convey.ShouldEqual, 900)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":7070"
upstream_url: "http://engine.internal:9090"
shard_count: 32
timeline_steps:
  - "Dispatching swarm"
  - "Crunching numbers"
  - "Reaching consensus"
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("LIVESCAN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.UpstreamURL, convey.ShouldEqual, "http://engine.internal:9090")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 32)
				convey.So(cfg.TimelineSteps, convey.ShouldHaveLength, 3)
			})
		})

		convey.Convey("When env vars override the YAML file", func() {
			tmpFile := createTempConfigFile(t, "addr: \":7070\"\n")
			_ = os.Setenv("LIVESCAN_CONFIG", tmpFile)
			_ = os.Setenv("LIVESCAN_ADDR", ":6060")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("LIVESCAN_CONFIG", "/nonexistent/livescan.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the simulate bounds are inverted", func() {
			_ = os.Setenv("LIVESCAN_SIMULATE_MIN_MS", "900")
			_ = os.Setenv("LIVESCAN_SIMULATE_MAX_MS", "100")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then validation rejects the config", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
