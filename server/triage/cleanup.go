package triage

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultIdleTTL is how long an inactive session is kept by default.
	DefaultIdleTTL = 30 * time.Minute
	// DefaultCleanupInterval is the default interval between cleanup runs.
	DefaultCleanupInterval = 5 * time.Minute
)

// CleanupConfig holds configuration for the idle-session cleanup job.
type CleanupConfig struct {
	IdleTTL         time.Duration // Sessions idle longer than this are evicted
	CleanupInterval time.Duration // Interval between cleanup runs
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		IdleTTL:         DefaultIdleTTL,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// CleanupJob periodically evicts idle interview sessions. Session lifecycle
// is a transport-layer concern; the job just calls EvictIdle, which takes
// the per-session lock and is safe against in-flight answers.
type CleanupJob struct {
	orchestrator *Orchestrator
	config       CleanupConfig

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewCleanupJob creates a new cleanup job.
func NewCleanupJob(orchestrator *Orchestrator, config CleanupConfig) *CleanupJob {
	if config.IdleTTL <= 0 {
		config.IdleTTL = DefaultIdleTTL
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}
	return &CleanupJob{
		orchestrator: orchestrator,
		config:       config,
	}
}

// Start begins the periodic cleanup job. Non-blocking; the work happens in a
// goroutine.
func (j *CleanupJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}
	j.running = true
	j.stopChan = make(chan struct{})

	go j.run(ctx)

	slog.Info("session cleanup job started",
		"idle_ttl", j.config.IdleTTL,
		"interval", j.config.CleanupInterval)
}

// Stop stops the cleanup job.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}
	close(j.stopChan)
	j.running = false

	slog.Info("session cleanup job stopped")
}

func (j *CleanupJob) run(ctx context.Context) {
	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopChan:
			return
		case <-ticker.C:
			if evicted := j.orchestrator.EvictIdle(j.config.IdleTTL); evicted > 0 {
				slog.Info("evicted idle sessions", "count", evicted)
			}
		}
	}
}
