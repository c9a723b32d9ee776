package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects and aggregates counters for the triage service.
type Metrics struct {
	mu sync.Mutex

	sessionsStarted     atomic.Int64
	sessionsCompleted   atomic.Int64
	sessionsEvicted     atomic.Int64
	answersAccepted     atomic.Int64
	answersRejected     atomic.Int64
	finalizationRetries atomic.Int64
	finalizationFailed  atomic.Int64
	cacheHits           atomic.Int64
	cacheMisses         atomic.Int64

	// Per-question rejection counts; keyed by question id.
	questionRejections map[string]*atomic.Int64

	// Completed-interview durations, kept for percentile snapshots.
	durations    []time.Duration
	maxDurations int
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		questionRejections: make(map[string]*atomic.Int64),
		durations:          make([]time.Duration, 0, maxDurations),
		maxDurations:       maxDurations,
	}
}

// RecordSessionStarted records a new interview session.
func (m *Metrics) RecordSessionStarted() { m.sessionsStarted.Add(1) }

// RecordSessionCompleted records a completed interview and its duration.
func (m *Metrics) RecordSessionCompleted(d time.Duration) {
	m.sessionsCompleted.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, d)
}

// RecordSessionEvicted records an idle or externally removed session.
func (m *Metrics) RecordSessionEvicted() { m.sessionsEvicted.Add(1) }

// RecordAnswerAccepted records an accepted answer.
func (m *Metrics) RecordAnswerAccepted() { m.answersAccepted.Add(1) }

// RecordAnswerRejected records a rejected answer for the given question.
func (m *Metrics) RecordAnswerRejected(questionID string) {
	m.answersRejected.Add(1)
	m.getQuestionCounter(questionID).Add(1)
}

// RecordFinalizationRetry records one failed record-creation attempt.
func (m *Metrics) RecordFinalizationRetry() { m.finalizationRetries.Add(1) }

// RecordFinalizationFailed records retry-budget exhaustion.
func (m *Metrics) RecordFinalizationFailed() { m.finalizationFailed.Add(1) }

// RecordCacheHit records a response cache hit.
func (m *Metrics) RecordCacheHit() { m.cacheHits.Add(1) }

// RecordCacheMiss records a response cache miss.
func (m *Metrics) RecordCacheMiss() { m.cacheMisses.Add(1) }

// Snapshot holds a point-in-time view of the counters.
type Snapshot struct {
	SessionsStarted     int64            `json:"sessions_started"`
	SessionsCompleted   int64            `json:"sessions_completed"`
	SessionsEvicted     int64            `json:"sessions_evicted"`
	AnswersAccepted     int64            `json:"answers_accepted"`
	AnswersRejected     int64            `json:"answers_rejected"`
	FinalizationRetries int64            `json:"finalization_retries"`
	FinalizationFailed  int64            `json:"finalization_failed"`
	CacheHits           int64            `json:"cache_hits"`
	CacheMisses         int64            `json:"cache_misses"`
	QuestionRejections  map[string]int64 `json:"question_rejections"`
}

// GetSnapshot returns the current counter values.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	rejections := make(map[string]int64, len(m.questionRejections))
	for id, counter := range m.questionRejections {
		rejections[id] = counter.Load()
	}

	return Snapshot{
		SessionsStarted:     m.sessionsStarted.Load(),
		SessionsCompleted:   m.sessionsCompleted.Load(),
		SessionsEvicted:     m.sessionsEvicted.Load(),
		AnswersAccepted:     m.answersAccepted.Load(),
		AnswersRejected:     m.answersRejected.Load(),
		FinalizationRetries: m.finalizationRetries.Load(),
		FinalizationFailed:  m.finalizationFailed.Load(),
		CacheHits:           m.cacheHits.Load(),
		CacheMisses:         m.cacheMisses.Load(),
		QuestionRejections:  rejections,
	}
}

func (m *Metrics) getQuestionCounter(questionID string) *atomic.Int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	counter, ok := m.questionRejections[questionID]
	if !ok {
		counter = &atomic.Int64{}
		m.questionRejections[questionID] = counter
	}
	return counter
}

// Global metrics instance.
var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the global metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}
