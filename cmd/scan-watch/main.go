// Command scan-watch follows a live scan from a terminal. It begins a scan
// through the gateway, relays the event stream into the timeline director,
// and prints each frame as the session progresses.
//
// Usage: scan-watch <address> [wallet]
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"

	"github.com/verdictswarm/livescan/internal/config"
	"github.com/verdictswarm/livescan/internal/domain/types"
	"github.com/verdictswarm/livescan/internal/timeline"
	"github.com/verdictswarm/livescan/pkg/logger"
)

const requestTimeout = 10 * time.Second

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		os.Stderr.WriteString("usage: scan-watch <address> [wallet]\n")
		os.Exit(2)
	}
	address := os.Args[1]
	wallet := ""
	if len(os.Args) > 2 {
		wallet = os.Args[2]
	}

	if err := watch(ctx, cfg, address, wallet); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func watch(ctx context.Context, cfg *config.Config, address, wallet string) error {
	ticket, err := beginScan(ctx, cfg.GatewayURL, address, wallet)
	if err != nil {
		return err
	}
	fmt.Printf("scan %s admitted, %d of %d left today\n", ticket.ScanID, ticket.Quota.Remaining, ticket.Quota.Limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.GatewayURL+ticket.StreamURL, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	if wallet != "" {
		req.Header.Set("X-Wallet-Address", wallet)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("stream rejected: %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var opts []timeline.Option
	if len(cfg.TimelineSteps) > 0 {
		opts = append(opts, timeline.WithSteps(cfg.TimelineSteps))
	}
	if cfg.SimulateMinMS > 0 && cfg.SimulateMaxMS >= cfg.SimulateMinMS {
		opts = append(opts, timeline.WithSimulateInterval(
			time.Duration(cfg.SimulateMinMS)*time.Millisecond,
			time.Duration(cfg.SimulateMaxMS)*time.Millisecond,
		))
	}
	director := timeline.New(opts...)
	defer director.Destroy()

	steps := director.Steps()
	done := make(chan timeline.Verdict, 1)
	director.Subscribe(func(f timeline.Frame) {
		marker := "*"
		if f.Fading {
			marker = "~"
		}
		fmt.Printf("  %s %s\n", marker, steps[f.StepIndex])
		if f.Verdict != timeline.VerdictNone {
			select {
			case done <- f.Verdict:
			default:
			}
		}
	})
	director.Start()

	timeline.Feed(ctx, resp.Body, director)

	// The feed is over; give the loop a beat to deliver a verdict that was
	// still in flight, then park the timeline if none came.
	select {
	case verdict := <-done:
		fmt.Printf("verdict: %s\n", verdict)
		return nil
	case <-time.After(500 * time.Millisecond):
	}
	director.SkipToEnd()
	select {
	case verdict := <-done:
		fmt.Printf("verdict: %s\n", verdict)
	case <-time.After(100 * time.Millisecond):
		fmt.Println("stream ended without a verdict")
	}
	return nil
}

func beginScan(ctx context.Context, gatewayURL, address, wallet string) (types.ScanTicket, error) {
	body, err := sonic.Marshal(map[string]string{"address": address})
	if err != nil {
		return types.ScanTicket{}, fmt.Errorf("encode scan request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, gatewayURL+"/v1/scan", bytes.NewReader(body))
	if err != nil {
		return types.ScanTicket{}, fmt.Errorf("build scan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if wallet != "" {
		req.Header.Set("X-Wallet-Address", wallet)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return types.ScanTicket{}, fmt.Errorf("begin scan: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return types.ScanTicket{}, fmt.Errorf("read scan response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.ScanTicket{}, fmt.Errorf("scan rejected: %s: %s", resp.Status, bytes.TrimSpace(raw))
	}

	var ticket types.ScanTicket
	if err := sonic.Unmarshal(raw, &ticket); err != nil {
		return types.ScanTicket{}, fmt.Errorf("decode scan response: %w", err)
	}
	return ticket, nil
}
