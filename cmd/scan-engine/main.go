// Command scan-engine runs the scripted analysis engine on its own port so
// the gateway has something real to relay during development.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verdictswarm/livescan/internal/config"
	"github.com/verdictswarm/livescan/internal/scanengine"
	"github.com/verdictswarm/livescan/pkg/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	engine := scanengine.New(
		scanengine.WithStepDelay(time.Duration(cfg.EngineStepDelayMS) * time.Millisecond),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/engine/scan/stream", engine.Handler())

	srv := &http.Server{
		Addr:              cfg.EngineAddr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting scan engine", logger.String("addr", cfg.EngineAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("engine server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down engine...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	log.Info(ctx, "engine stopped")
}
