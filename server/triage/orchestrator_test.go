package triage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triageai/voicetriage/internal/retry"
	svcerr "github.com/triageai/voicetriage/internal/errors"
	"github.com/triageai/voicetriage/internal/observability"
)

type fakeRecorder struct {
	mu           sync.Mutex
	calls        int
	failuresLeft int
	lastFields   RecordFields
}

func (f *fakeRecorder) CreateRecord(_ context.Context, fields RecordFields) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return "", errors.New("database unavailable")
	}
	f.lastFields = fields
	return "patient-1", nil
}

func (f *fakeRecorder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestOrchestrator(recorder RecordCreator) *Orchestrator {
	cfg := DefaultConfig()
	cfg.FinalizeRetry = retry.Fixed(3, time.Millisecond)
	return NewOrchestrator(recorder, cfg)
}

// The end-to-end scenario: chest pain, trouble breathing, cannot walk.
var happyPathAnswers = []string{
	"John Smith",
	"45",
	"male",
	"I have severe chest pain radiating to my arm",
	"no",  // bleeding
	"yes", // breathing
	"yes", // chest pain
	"no",  // mobility
}

func runInterview(t *testing.T, o *Orchestrator, sessionID string, answers []string) *Outcome {
	t.Helper()
	var last *Outcome
	for _, answer := range answers {
		outcome, err := o.SubmitAnswer(context.Background(), sessionID, answer)
		require.NoError(t, err)
		last = outcome
	}
	return last
}

func TestStartSessionReturnsFirstQuestion(t *testing.T) {
	o := newTestOrchestrator(&fakeRecorder{})
	outcome := o.StartSession(context.Background())

	assert.Equal(t, OutcomeQuestion, outcome.Kind)
	assert.NotEmpty(t, outcome.SessionID)
	assert.Equal(t, QuestionName, outcome.QuestionID)
	assert.Equal(t, 1, outcome.Step)
	assert.Equal(t, 8, outcome.TotalSteps)
}

func TestFullInterviewCompletes(t *testing.T) {
	recorder := &fakeRecorder{}
	o := newTestOrchestrator(recorder)
	start := o.StartSession(context.Background())

	last := runInterview(t, o, start.SessionID, happyPathAnswers)

	require.Equal(t, OutcomeComplete, last.Kind)
	// 0.3 base + 0.4 breathing + 0.3 chest pain + 0.3 cannot walk = 1.3, clamped.
	assert.Equal(t, 1.0, last.UrgencyScore)
	assert.Equal(t, 1, last.TriageLevel)
	assert.Equal(t, "patient-1", last.PatientID)
	assert.Equal(t, "No", last.UserAnswer)
	assert.Equal(t, QuestionMobility, last.PreviousField)
	assert.Contains(t, last.Message, "Critical (Level 1)")
	assert.Equal(t, 1, recorder.callCount())

	status, err := o.Status(start.SessionID)
	require.NoError(t, err)
	assert.True(t, status.IsComplete)
	assert.Equal(t, 8, len(status.Responses))

	assert.Equal(t, "John Smith", recorder.lastFields.Name)
	assert.Equal(t, 45, recorder.lastFields.Age)
	assert.Equal(t, "Male", recorder.lastFields.Gender)
	assert.Equal(t, "I have severe chest pain radiating to my arm", recorder.lastFields.ChiefComplaint)
}

func TestRejectedAnswerDoesNotAdvance(t *testing.T) {
	o := newTestOrchestrator(&fakeRecorder{})
	start := o.StartSession(context.Background())

	outcome, err := o.SubmitAnswer(context.Background(), start.SessionID, "J")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRetry, outcome.Kind)
	assert.Equal(t, QuestionName, outcome.QuestionID)
	assert.Equal(t, 1, outcome.Step)
	assert.NotEmpty(t, outcome.Error)
	assert.Contains(t, outcome.Question, outcome.Error)
	assert.Contains(t, outcome.Question, catalog[0].Prompt)

	status, err := o.Status(start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.CurrentStep)
	assert.Empty(t, status.Responses)
}

func TestPostCompletionSubmitIsIdempotent(t *testing.T) {
	recorder := &fakeRecorder{}
	o := newTestOrchestrator(recorder)
	start := o.StartSession(context.Background())
	runInterview(t, o, start.SessionID, happyPathAnswers)

	again, err := o.SubmitAnswer(context.Background(), start.SessionID, "anything")
	require.NoError(t, err)
	assert.Equal(t, OutcomeComplete, again.Kind)
	assert.Equal(t, "patient-1", again.PatientID)
	assert.Equal(t, 1, recorder.callCount(), "record must be created exactly once")
}

func TestSubmitAnswerUnknownSession(t *testing.T) {
	o := newTestOrchestrator(&fakeRecorder{})
	_, err := o.SubmitAnswer(context.Background(), "nope", "hello")
	assert.True(t, svcerr.IsCode(err, svcerr.ErrCodeSessionNotFound))

	_, err = o.Status("nope")
	assert.True(t, svcerr.IsCode(err, svcerr.ErrCodeSessionNotFound))
}

func TestFinalizationRetriesTransientFailures(t *testing.T) {
	recorder := &fakeRecorder{failuresLeft: 2}
	o := newTestOrchestrator(recorder)
	start := o.StartSession(context.Background())

	last := runInterview(t, o, start.SessionID, happyPathAnswers)
	assert.Equal(t, OutcomeComplete, last.Kind)
	assert.Equal(t, 3, recorder.callCount())
}

func TestFinalizationFailureIsRetriedOnNextSubmit(t *testing.T) {
	recorder := &fakeRecorder{failuresLeft: 10}
	o := newTestOrchestrator(recorder)
	start := o.StartSession(context.Background())

	var lastErr error
	for _, answer := range happyPathAnswers {
		_, lastErr = o.SubmitAnswer(context.Background(), start.SessionID, answer)
	}
	require.Error(t, lastErr)
	assert.True(t, svcerr.IsCode(lastErr, svcerr.ErrCodeFinalizationFailed))
	assert.Equal(t, 3, recorder.callCount())

	status, err := o.Status(start.SessionID)
	require.NoError(t, err)
	assert.False(t, status.IsComplete)

	// Recovery: persistence is healthy again, the next submit re-finalizes
	// without re-running the interview.
	recorder.mu.Lock()
	recorder.failuresLeft = 0
	recorder.mu.Unlock()

	outcome, err := o.SubmitAnswer(context.Background(), start.SessionID, "anything")
	require.NoError(t, err)
	assert.Equal(t, OutcomeComplete, outcome.Kind)
	assert.Equal(t, "patient-1", outcome.PatientID)
}

func TestEndSessionRemovesFromActiveSet(t *testing.T) {
	o := newTestOrchestrator(&fakeRecorder{})
	start := o.StartSession(context.Background())
	assert.Equal(t, 1, o.ActiveSessions())

	require.NoError(t, o.EndSession(start.SessionID))
	assert.Equal(t, 0, o.ActiveSessions())

	_, err := o.SubmitAnswer(context.Background(), start.SessionID, "hello")
	assert.True(t, svcerr.IsCode(err, svcerr.ErrCodeSessionNotFound))

	err = o.EndSession(start.SessionID)
	assert.True(t, svcerr.IsCode(err, svcerr.ErrCodeSessionNotFound))
}

func TestEvictIdle(t *testing.T) {
	o := newTestOrchestrator(&fakeRecorder{})
	stale := o.StartSession(context.Background())
	fresh := o.StartSession(context.Background())

	o.mu.RLock()
	staleSess := o.sessions[stale.SessionID]
	o.mu.RUnlock()
	staleSess.mu.Lock()
	staleSess.lastActivity = time.Now().Add(-2 * time.Hour)
	staleSess.mu.Unlock()

	evicted := o.EvictIdle(time.Hour)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, o.ActiveSessions())

	_, err := o.Status(fresh.SessionID)
	assert.NoError(t, err)
}

// logCapture is a slog.Handler that collects records as field maps.
type logCapture struct {
	mu      sync.Mutex
	entries []map[string]any
}

func (h *logCapture) Enabled(context.Context, slog.Level) bool { return true }

func (h *logCapture) Handle(_ context.Context, r slog.Record) error {
	fields := map[string]any{"msg": r.Message}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	h.entries = append(h.entries, fields)
	h.mu.Unlock()
	return nil
}

func (h *logCapture) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *logCapture) WithGroup(string) slog.Handler      { return h }

func (h *logCapture) find(t *testing.T, msg string) map[string]any {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, entry := range h.entries {
		if entry["msg"] == msg {
			return entry
		}
	}
	t.Fatalf("no log entry with message %q", msg)
	return nil
}

func TestSubmitAnswerLogsThroughRequestContext(t *testing.T) {
	capture := &logCapture{}
	o := newTestOrchestrator(&fakeRecorder{})
	start := o.StartSession(context.Background())

	reqLogger := observability.NewRequestContext(slog.New(capture), start.SessionID)
	ctx := observability.WithRequestContext(context.Background(), reqLogger)

	_, err := o.SubmitAnswer(ctx, start.SessionID, "Jane Doe")
	require.NoError(t, err)

	entry := capture.find(t, "valid response")
	assert.Equal(t, reqLogger.RequestID, entry[observability.LogFieldRequestID])
	assert.Equal(t, start.SessionID, entry[observability.LogFieldSessionID])
	assert.Equal(t, QuestionName, entry[observability.LogFieldQuestionID])
	assert.Contains(t, entry, observability.LogFieldDuration)

	_, err = o.SubmitAnswer(ctx, start.SessionID, "not a number")
	require.NoError(t, err)

	entry = capture.find(t, "invalid response")
	assert.Equal(t, reqLogger.RequestID, entry[observability.LogFieldRequestID])
	assert.Equal(t, QuestionAge, entry[observability.LogFieldQuestionID])
}

func TestFinalizationFailureLogsErrorCode(t *testing.T) {
	capture := &logCapture{}
	o := newTestOrchestrator(&fakeRecorder{failuresLeft: 10})
	start := o.StartSession(context.Background())

	reqLogger := observability.NewRequestContext(slog.New(capture), start.SessionID)
	ctx := observability.WithRequestContext(context.Background(), reqLogger)

	var lastErr error
	for _, answer := range happyPathAnswers {
		_, lastErr = o.SubmitAnswer(ctx, start.SessionID, answer)
	}
	require.Error(t, lastErr)

	entry := capture.find(t, "assessment finalization failed")
	assert.Equal(t, start.SessionID, entry[observability.LogFieldSessionID])
	assert.Equal(t, string(svcerr.ErrCodeFinalizationFailed), entry[observability.LogFieldErrorCode])
}

func TestStatusResponsesKeepCatalogOrder(t *testing.T) {
	o := newTestOrchestrator(&fakeRecorder{})
	start := o.StartSession(context.Background())
	runInterview(t, o, start.SessionID, happyPathAnswers)

	status, err := o.Status(start.SessionID)
	require.NoError(t, err)
	require.Len(t, status.Responses, 8)
	for i, question := range Catalog() {
		assert.Equal(t, question.ID, status.Responses[i].QuestionID)
	}

	name, ok := status.Responses.Get(QuestionName)
	require.True(t, ok)
	assert.Equal(t, "John Smith", name)

	data, err := json.Marshal(status.Responses)
	require.NoError(t, err)
	raw := string(data)
	for i := 1; i < len(catalog); i++ {
		prev := strings.Index(raw, `"`+catalog[i-1].ID+`"`)
		next := strings.Index(raw, `"`+catalog[i].ID+`"`)
		assert.Less(t, prev, next, "%s must precede %s", catalog[i-1].ID, catalog[i].ID)
	}
}

func TestConcurrentSessionsAreIndependent(t *testing.T) {
	o := newTestOrchestrator(&fakeRecorder{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := o.StartSession(context.Background())
			var last *Outcome
			for _, answer := range happyPathAnswers {
				outcome, err := o.SubmitAnswer(context.Background(), start.SessionID, answer)
				if err != nil {
					t.Errorf("submit answer: %v", err)
					return
				}
				last = outcome
			}
			if last.Kind != OutcomeComplete {
				t.Errorf("expected completion, got %s", last.Kind)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, o.ActiveSessions())
}
