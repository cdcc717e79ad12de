package repository

import (
	"context"
	"hash/fnv"
	"sync"
)

// Default memory store configuration constants.
const (
	defaultShardCount = 8
)

// dayCount is the per-identity record: the day it was written and the
// consumption count for that day. A record from a previous day reads as
// zero and is replaced on the next increment, which prunes stale days
// without a background sweep.
type dayCount struct {
	dateKey string
	count   int
}

type shard struct {
	mu      sync.Mutex
	records map[string]dayCount
}

// MemoryStore implements Store with identity-sharded in-memory counters.
// Each shard's mutex serializes the read-increment-write for the identities
// hashed to it, so two racing consumes for one identity can never both win
// the last remaining slot.
type MemoryStore struct {
	shards []*shard
}

// NewMemoryStore creates an in-memory quota store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{}
	cfg := storeConfig{shardCount: defaultShardCount}
	for _, opt := range opts {
		opt(&cfg)
	}
	s.shards = make([]*shard, cfg.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]dayCount)}
	}
	return s
}

func (s *MemoryStore) shardFor(identity string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identity))
	return s.shards[int(h.Sum32())%len(s.shards)]
}

// IncrBelow atomically increments the counter for (dateKey, identity) when
// it is below ceiling.
func (s *MemoryStore) IncrBelow(ctx context.Context, dateKey, identity string, ceiling int) (int, bool, error) {
	if ceiling < 0 {
		return 0, false, ErrInvalidCeiling
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	sh := s.shardFor(identity)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec := sh.records[identity]
	if rec.dateKey != dateKey {
		rec = dayCount{dateKey: dateKey}
	}
	if rec.count >= ceiling {
		return rec.count, false, nil
	}
	rec.count++
	sh.records[identity] = rec
	return rec.count, true, nil
}

// Count returns the counter for (dateKey, identity) without mutation.
func (s *MemoryStore) Count(ctx context.Context, dateKey, identity string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	sh := s.shardFor(identity)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec := sh.records[identity]
	if rec.dateKey != dateKey {
		return 0, nil
	}
	return rec.count, nil
}
