// Package triage implements the voice-driven interview engine: a fixed
// question catalog, pure answer validators, a per-session state machine and
// the urgency scorer that feeds the final patient record.
package triage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/triageai/voicetriage/internal/retry"
	svcerr "github.com/triageai/voicetriage/internal/errors"
	"github.com/triageai/voicetriage/internal/observability"
)

// RecordFields is the data handed to the persistence collaborator when an
// interview completes.
type RecordFields struct {
	Name           string
	Age            int
	Gender         string
	ChiefComplaint string
	UrgencyScore   float64
	TriageLevel    int

	// Default vitals; no measurement happens during the voice interview.
	HeartRate       int
	RespiratoryRate int
	PainLevel       int
}

// RecordCreator is the persistence collaborator contract. The returned id is
// opaque and surfaced to the caller of SubmitAnswer.
type RecordCreator interface {
	CreateRecord(ctx context.Context, fields RecordFields) (string, error)
}

// OutcomeKind tags the result of a submit-answer step.
type OutcomeKind string

const (
	// OutcomeQuestion asks the next catalog question.
	OutcomeQuestion OutcomeKind = "question"
	// OutcomeRetry re-asks the current question with a correction hint.
	OutcomeRetry OutcomeKind = "error"
	// OutcomeComplete reports the finished assessment.
	OutcomeComplete OutcomeKind = "complete"
)

// Outcome is what the transport layer renders (and speaks) after each step.
type Outcome struct {
	Kind       OutcomeKind `json:"type"`
	SessionID  string      `json:"session_id,omitempty"`
	Question   string      `json:"question,omitempty"`
	QuestionID string      `json:"question_id,omitempty"`
	Step       int         `json:"step"`
	TotalSteps int         `json:"total_steps"`

	// Error carries the correction hint on OutcomeRetry.
	Error string `json:"error,omitempty"`

	// Echo of the answer that was just accepted.
	UserAnswer    string `json:"user_answer,omitempty"`
	PreviousField string `json:"previous_field,omitempty"`

	// Completion payload.
	Message      string  `json:"message,omitempty"`
	PatientID    string  `json:"patient_id,omitempty"`
	UrgencyScore float64 `json:"urgency_score,omitempty"`
	TriageLevel  int     `json:"triage_level,omitempty"`
}

// Config holds the orchestrator configuration.
type Config struct {
	// FinalizeRetry governs patient record creation attempts.
	FinalizeRetry retry.Policy
	Logger        *slog.Logger
	Metrics       *observability.Metrics
}

// DefaultConfig returns the default orchestrator configuration: three
// record-creation attempts with a 500ms pause between them.
func DefaultConfig() Config {
	return Config{
		FinalizeRetry: retry.Fixed(3, 500*time.Millisecond),
		Logger:        slog.Default(),
		Metrics:       observability.GlobalMetrics(),
	}
}

// Orchestrator owns the active interview sessions and drives the state
// machine. It exposes exactly StartSession, SubmitAnswer and Status as
// mutation/inspection paths; EndSession is the external removal hook.
type Orchestrator struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	recorder RecordCreator
	config   Config
}

// NewOrchestrator creates an orchestrator backed by the given persistence
// collaborator.
func NewOrchestrator(recorder RecordCreator, config Config) *Orchestrator {
	if config.FinalizeRetry.MaxAttempts <= 0 {
		config.FinalizeRetry = DefaultConfig().FinalizeRetry
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Metrics == nil {
		config.Metrics = observability.GlobalMetrics()
	}
	return &Orchestrator{
		sessions: make(map[string]*Session),
		recorder: recorder,
		config:   config,
	}
}

// StartSession allocates a new session and returns the first question.
func (o *Orchestrator) StartSession(_ context.Context) *Outcome {
	sess := newSession(uuid.NewString())

	o.mu.Lock()
	o.sessions[sess.id] = sess
	o.mu.Unlock()

	o.config.Metrics.RecordSessionStarted()
	o.config.Logger.Info("started triage session", observability.LogFieldSessionID, sess.id)

	first := catalog[0]
	return &Outcome{
		Kind:       OutcomeQuestion,
		SessionID:  sess.id,
		Question:   first.Prompt,
		QuestionID: first.ID,
		Step:       1,
		TotalSteps: TotalSteps(),
	}
}

// SubmitAnswer validates the transcript against the current question and
// advances the state machine. Rejected answers leave the session unchanged
// and re-issue the question with a hint. When the catalog is exhausted the
// assessment is finalized; calling SubmitAnswer again afterwards is
// idempotent and re-returns the completion (re-attempting finalization if it
// previously failed).
func (o *Orchestrator) SubmitAnswer(ctx context.Context, sessionID, transcript string) (*Outcome, error) {
	sess, err := o.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	reqLogger := o.requestLogger(ctx, sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.removed {
		return nil, svcerr.SessionNotFound(sessionID)
	}

	sess.lastActivity = time.Now()

	if sess.position >= TotalSteps() {
		return o.finalizeLocked(ctx, reqLogger, sess, "", "")
	}

	current := catalog[sess.position]
	result := current.Validate(transcript)

	if !result.OK {
		o.config.Metrics.RecordAnswerRejected(current.ID)
		reqLogger.Info("invalid response",
			slog.String(observability.LogFieldQuestionID, current.ID),
			slog.String("transcript", transcript))
		return &Outcome{
			Kind:       OutcomeRetry,
			SessionID:  sessionID,
			Question:   fmt.Sprintf("%s %s", result.Hint, current.Prompt),
			QuestionID: current.ID,
			Step:       sess.position + 1,
			TotalSteps: TotalSteps(),
			Error:      result.Hint,
			UserAnswer: transcript,
		}, nil
	}

	if err := sess.applyAnswer(current.ID, result.Normalized); err != nil {
		return nil, err
	}
	sess.position++
	o.config.Metrics.RecordAnswerAccepted()
	reqLogger.Info("valid response",
		slog.String(observability.LogFieldQuestionID, current.ID),
		slog.String("normalized", result.Normalized),
		slog.Int64(observability.LogFieldDuration, reqLogger.DurationMs()))

	if sess.position >= TotalSteps() {
		return o.finalizeLocked(ctx, reqLogger, sess, result.Normalized, current.ID)
	}

	next := catalog[sess.position]
	return &Outcome{
		Kind:          OutcomeQuestion,
		SessionID:     sessionID,
		Question:      next.Prompt,
		QuestionID:    next.ID,
		Step:          sess.position + 1,
		TotalSteps:    TotalSteps(),
		UserAnswer:    result.Normalized,
		PreviousField: current.ID,
	}, nil
}

// Status returns a snapshot of the session.
func (o *Orchestrator) Status(sessionID string) (*Snapshot, error) {
	sess, err := o.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.removed {
		return nil, svcerr.SessionNotFound(sessionID)
	}
	return sess.snapshotLocked(), nil
}

// ListSessions returns snapshots of all active sessions.
func (o *Orchestrator) ListSessions() []*Snapshot {
	o.mu.RLock()
	sessions := make([]*Session, 0, len(o.sessions))
	for _, sess := range o.sessions {
		sessions = append(sessions, sess)
	}
	o.mu.RUnlock()

	snapshots := make([]*Snapshot, 0, len(sessions))
	for _, sess := range sessions {
		sess.mu.Lock()
		if !sess.removed {
			snapshots = append(snapshots, sess.snapshotLocked())
		}
		sess.mu.Unlock()
	}
	return snapshots
}

// EndSession removes the session from the active set. Removal takes the
// per-session lock, so it is safe to race against an in-flight SubmitAnswer.
func (o *Orchestrator) EndSession(sessionID string) error {
	o.mu.Lock()
	sess, ok := o.sessions[sessionID]
	if ok {
		delete(o.sessions, sessionID)
	}
	o.mu.Unlock()
	if !ok {
		return svcerr.SessionNotFound(sessionID)
	}

	sess.mu.Lock()
	sess.removed = true
	sess.mu.Unlock()

	o.config.Logger.Info("ended triage session", observability.LogFieldSessionID, sessionID)
	return nil
}

// ActiveSessions returns the number of active sessions.
func (o *Orchestrator) ActiveSessions() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.sessions)
}

// EvictIdle removes sessions whose last activity is older than maxIdle and
// returns how many were evicted.
func (o *Orchestrator) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	o.mu.RLock()
	candidates := make([]*Session, 0)
	for _, sess := range o.sessions {
		candidates = append(candidates, sess)
	}
	o.mu.RUnlock()

	evicted := 0
	for _, sess := range candidates {
		sess.mu.Lock()
		idle := sess.lastActivity.Before(cutoff)
		sess.mu.Unlock()
		if !idle {
			continue
		}
		if err := o.EndSession(sess.id); err == nil {
			o.config.Metrics.RecordSessionEvicted()
			evicted++
		}
	}
	return evicted
}

// requestLogger returns the request-scoped logger attached by the transport
// layer, or a fresh one on the configured logger when none is attached.
func (o *Orchestrator) requestLogger(ctx context.Context, sessionID string) *observability.RequestContext {
	if reqLogger, ok := observability.FromContext(ctx); ok {
		return reqLogger
	}
	return observability.NewRequestContext(o.config.Logger, sessionID)
}

func (o *Orchestrator) lookup(sessionID string) (*Session, error) {
	o.mu.RLock()
	sess, ok := o.sessions[sessionID]
	o.mu.RUnlock()
	if !ok {
		return nil, svcerr.SessionNotFound(sessionID)
	}
	return sess, nil
}

// finalizeLocked scores the interview and creates the patient record with
// the configured retry policy. Callers must hold sess.mu. On retry
// exhaustion the session keeps position == TotalSteps with no stored
// completion, so the next SubmitAnswer re-attempts finalization instead of
// re-running the interview.
func (o *Orchestrator) finalizeLocked(ctx context.Context, reqLogger *observability.RequestContext, sess *Session, lastAnswer, lastField string) (*Outcome, error) {
	if sess.completion != nil {
		completion := *sess.completion
		if lastAnswer != "" && lastField != "" {
			completion.UserAnswer = lastAnswer
			completion.PreviousField = lastField
		}
		return &completion, nil
	}

	result := Score(sess.emergencyFlags, sess.age)

	fields := RecordFields{
		Name:            sess.name,
		Age:             sess.age,
		Gender:          sess.gender,
		ChiefComplaint:  sess.chiefComplaint,
		UrgencyScore:    result.UrgencyScore,
		TriageLevel:     result.PriorityLevel,
		HeartRate:       80,
		RespiratoryRate: 16,
		PainLevel:       5,
	}
	if fields.Name == "" {
		fields.Name = "Unknown"
	}
	if fields.Gender == "" {
		fields.Gender = "Other"
	}
	if fields.ChiefComplaint == "" {
		fields.ChiefComplaint = "No symptoms provided"
	}

	var recordID string
	err := retry.Do(ctx, o.config.FinalizeRetry, "create patient record", func(ctx context.Context) error {
		id, err := o.recorder.CreateRecord(ctx, fields)
		if err != nil {
			o.config.Metrics.RecordFinalizationRetry()
			return err
		}
		recordID = id
		return nil
	})
	if err != nil {
		o.config.Metrics.RecordFinalizationFailed()
		reqLogger.Error("assessment finalization failed", err,
			slog.String(observability.LogFieldErrorCode, string(svcerr.ErrCodeFinalizationFailed)),
			slog.Int64(observability.LogFieldDuration, reqLogger.DurationMs()))
		return nil, svcerr.FinalizationFailed(err)
	}

	sess.complete = true
	o.config.Metrics.RecordSessionCompleted(time.Since(sess.createdAt))
	reqLogger.Info("assessment complete",
		slog.String(observability.LogFieldPatientID, recordID),
		slog.Float64("urgency_score", result.UrgencyScore),
		slog.Int("triage_level", result.PriorityLevel),
		slog.Int64(observability.LogFieldDuration, reqLogger.DurationMs()))

	priorityName, ok := priorityNames[result.PriorityLevel]
	if !ok {
		priorityName = fmt.Sprintf("Level %d", result.PriorityLevel)
	}

	outcome := &Outcome{
		Kind:         OutcomeComplete,
		SessionID:    sess.id,
		Message:      fmt.Sprintf("Assessment complete! You have been assigned %s priority and added to the queue. A nurse will see you shortly.", priorityName),
		PatientID:    recordID,
		UrgencyScore: result.UrgencyScore,
		TriageLevel:  result.PriorityLevel,
		Step:         TotalSteps(),
		TotalSteps:   TotalSteps(),
	}
	sess.completion = outcome

	completion := *outcome
	if lastAnswer != "" && lastField != "" {
		completion.UserAnswer = lastAnswer
		completion.PreviousField = lastField
	}
	return &completion, nil
}
