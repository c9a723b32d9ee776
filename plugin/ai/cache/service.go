// Package cache provides the fingerprint-keyed response cache used by the
// AI summary service.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/triageai/voicetriage/internal/observability"
)

// ServiceConfig configures the response cache service.
type ServiceConfig struct {
	Capacity        int           // Maximum number of entries (default: 1000)
	DefaultTTL      time.Duration // Default TTL for entries (default: 30 minutes)
	CleanupInterval time.Duration // Interval for expired entry cleanup (default: 1 minute)
	Metrics         *observability.Metrics
}

// DefaultServiceConfig returns the default response cache configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Capacity:        1000,
		DefaultTTL:      30 * time.Minute,
		CleanupInterval: time.Minute,
		Metrics:         observability.GlobalMetrics(),
	}
}

// Service is a bounded-lifetime memoization layer keyed by canonicalized
// request fingerprints. It is a best-effort optimization over idempotent
// external calls, not a correctness-critical store.
type Service struct {
	lru *LRUCache

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cleanupInterval time.Duration
	metrics         *observability.Metrics
}

// NewService creates a new response cache service with a background cleanup
// loop.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1000
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.GlobalMetrics()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		lru:             NewLRUCache(cfg.Capacity, cfg.DefaultTTL),
		ctx:             ctx,
		cancel:          cancel,
		cleanupInterval: cfg.CleanupInterval,
		metrics:         cfg.Metrics,
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Close stops the cache service.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// Get retrieves a value by canonical key. Expired entries report absent.
func (s *Service) Get(key string) ([]byte, bool) {
	value, ok := s.lru.Get(key)
	if ok {
		s.metrics.RecordCacheHit()
	} else {
		s.metrics.RecordCacheMiss()
	}
	return value, ok
}

// Set stores a value under the canonical key with the default TTL.
func (s *Service) Set(key string, value []byte) {
	s.lru.Set(key, value, 0)
}

// PurgeExpired removes expired entries eagerly and returns how many were
// purged.
func (s *Service) PurgeExpired() int {
	return s.lru.CleanupExpired()
}

// Size returns the number of entries in the cache.
func (s *Service) Size() int {
	return s.lru.Size()
}

// Clear drops all entries.
func (s *Service) Clear() {
	s.lru.Clear()
}

func (s *Service) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.lru.CleanupExpired()
		}
	}
}
