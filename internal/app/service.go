// Package service wires the gateway's components together and implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/verdictswarm/livescan/internal/adapters/repository"
	"github.com/verdictswarm/livescan/internal/adapters/upstream"
	"github.com/verdictswarm/livescan/internal/domain/quota"
	"github.com/verdictswarm/livescan/internal/domain/tier"
	"github.com/verdictswarm/livescan/internal/domain/types"
	"github.com/verdictswarm/livescan/pkg/logger"
)

// defaultStreamEndpoint is the public relay path advertised in scan tickets.
const defaultStreamEndpoint = "/v1/scan/stream"

// Service implements the API dependencies for the live scan gateway.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  repository.Store
	ledger *quota.Ledger
	opener upstream.Opener

	// Configuration
	sqlitePath     string
	shardCount     int
	upstreamURL    string
	streamEndpoint string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSQLitePath backs the quota ledger with SQLite at path. Empty keeps
// the in-memory store.
func WithSQLitePath(path string) Option {
	return func(s *Service) {
		s.sqlitePath = path
	}
}

// WithShardCount sets the in-memory quota store's shard count.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithUpstreamURL sets the analysis engine base URL.
func WithUpstreamURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.upstreamURL = u
		}
	}
}

// WithStreamEndpoint sets the public stream path used in tickets.
func WithStreamEndpoint(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.streamEndpoint = path
		}
	}
}

// WithStore injects a quota store, bypassing Start's own construction.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithOpener injects an engine stream opener.
func WithOpener(opener upstream.Opener) Option {
	return func(s *Service) {
		if opener != nil {
			s.opener = opener
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		upstreamURL:    "http://localhost:9090",
		streamEndpoint: defaultStreamEndpoint,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		if s.sqlitePath != "" {
			store, err := repository.NewSQLiteStore(ctx, s.sqlitePath)
			if err != nil {
				return fmt.Errorf("open quota store: %w", err)
			}
			s.store = store
			s.logger.Info(ctx, "using sqlite quota store", logger.String("path", s.sqlitePath))
		} else {
			var opts []repository.Option
			if s.shardCount > 0 {
				opts = append(opts, repository.WithShardCount(s.shardCount))
			}
			s.store = repository.NewMemoryStore(opts...)
			s.logger.Info(ctx, "using in-memory quota store")
		}
	}
	s.ledger = quota.New(s.store)

	if s.opener == nil {
		s.opener = upstream.NewClient(s.upstreamURL)
	}

	s.started = true
	s.logger.Info(ctx, "live scan service started",
		logger.String("upstream", s.upstreamURL),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "live scan service stopped")
}

// BeginScan runs quota admission and mints a scan ticket. This is the only
// write path into the ledger.
func (s *Service) BeginScan(ctx context.Context, identity, tierKey string, req types.ScanRequest) (types.ScanTicket, error) {
	def, err := tier.Resolve(tierKey)
	if err != nil {
		return types.ScanTicket{}, err
	}

	q, err := s.ledger.Consume(ctx, identity, def.DailyAllowance)
	if err != nil {
		return types.ScanTicket{}, err
	}

	scanID := uuid.New().String()
	s.logger.Info(ctx, "scan admitted",
		logger.String("scan_id", scanID),
		logger.String("identity", quota.Normalize(identity)),
		logger.String("tier", string(def.Key)),
		logger.Int("remaining", q.Remaining),
	)
	return types.ScanTicket{
		ScanID:    scanID,
		StreamURL: s.streamURL(req, scanID),
		Quota:     q,
	}, nil
}

// Usage returns the caller's quota snapshot without consuming anything.
func (s *Service) Usage(ctx context.Context, identity, tierKey string) (types.Usage, error) {
	def, err := tier.Resolve(tierKey)
	if err != nil {
		return types.Usage{}, err
	}

	q, err := s.ledger.Usage(ctx, identity, def.DailyAllowance)
	if err != nil {
		return types.Usage{}, err
	}
	return types.Usage{
		Identity: quota.Normalize(identity),
		Tier:     string(def.Key),
		TierName: def.DisplayName,
		Quota:    q,
	}, nil
}

// Upstream returns the engine stream opener used by the relay.
func (s *Service) Upstream() upstream.Opener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opener
}

func (s *Service) streamURL(req types.ScanRequest, scanID string) string {
	q := url.Values{}
	q.Set("address", req.Address)
	q.Set("chain", req.Chain)
	q.Set("depth", req.Depth)
	q.Set("scan_id", scanID)
	return s.streamEndpoint + "?" + q.Encode()
}
