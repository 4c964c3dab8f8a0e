// Package ristretto is an in-process store.Store backed by dgraph-io/ristretto.
// Useful for single-process deployments and tests where running Redis is overkill.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/cachecast/store"
)

type Store struct {
	c *rc.Cache
}

var _ store.Store = (*Store)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64 // bytes; cost of an entry is len(value)
	BufferItems int64
	Metrics     bool
}

// DefaultConfig sizes the cache for roughly maxBytes of payload.
func DefaultConfig(maxBytes int64) Config {
	return Config{
		NumCounters: 1e6,
		MaxCost:     maxBytes,
		BufferItems: 64,
	}
}

func New(cfg Config) (*Store, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
		// MaxCost counts payload bytes only
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// drop unexpected entry shape
		s.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set copies value, hands it to ristretto and waits for the write buffer to
// drain so a following Get observes it. Admission refusals surface as
// store.ErrRejected; an entry whose ttl ran out during the wait is not one.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0 // ristretto drops negative TTLs; 0 is "no expiry"
	}
	b := make([]byte, len(value))
	copy(b, value)
	start := time.Now()
	if !s.c.SetWithTTL(key, b, int64(len(b)), ttl) {
		return store.ErrRejected
	}
	s.c.Wait()
	if _, ok := s.c.Get(key); !ok {
		if ttl > 0 && !time.Now().Before(start.Add(ttl)) {
			return nil // admitted, already expired
		}
		return store.ErrRejected
	}
	return nil
}

func (s *Store) Del(_ context.Context, key string) error {
	s.c.Del(key)
	return nil
}

func (s *Store) Close(_ context.Context) error {
	s.c.Wait()
	s.c.Close()
	return nil
}

// Metrics exposes ristretto's counters when Config.Metrics is set (nil otherwise).
func (s *Store) Metrics() *rc.Metrics { return s.c.Metrics }
