package triage

import (
	"bytes"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	svcerr "github.com/triageai/voicetriage/internal/errors"
)

// Session is the mutable state of one interview. All fields are guarded by
// mu; the orchestrator takes the lock for the whole of every operation, so a
// session only ever has a single writer.
type Session struct {
	mu sync.Mutex

	id           string
	position     int
	answers      map[string]string
	createdAt    time.Time
	lastActivity time.Time
	complete     bool
	removed      bool

	// Patient data derived from answers.
	name           string
	age            int
	gender         string
	chiefComplaint string
	emergencyFlags map[string]bool

	// Completion outcome, kept for idempotent post-completion calls.
	// Nil while record finalization is still pending or has failed.
	completion *Outcome
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		id:             id,
		answers:        make(map[string]string, len(catalog)),
		createdAt:      now,
		lastActivity:   now,
		emergencyFlags: make(map[string]bool, 4),
	}
}

// applyAnswer records the normalized answer and updates the derived patient
// fields. Every catalog question id is matched explicitly; an id outside the
// catalog is a programming error surfaced as INVALID_ARGUMENT.
func (s *Session) applyAnswer(questionID, normalized string) error {
	switch questionID {
	case QuestionName:
		s.name = normalized
	case QuestionAge:
		age, err := strconv.Atoi(normalized)
		if err != nil {
			return svcerr.InvalidArgument("age answer is not numeric: " + normalized)
		}
		s.age = age
	case QuestionGender:
		s.gender = normalized
	case QuestionSymptoms:
		s.chiefComplaint = normalized
	case QuestionBleeding, QuestionBreathing, QuestionChestPain, QuestionMobility:
		s.emergencyFlags[questionID] = normalized == "Yes"
	default:
		return svcerr.InvalidArgument("unknown question id: " + questionID)
	}
	s.answers[questionID] = normalized
	return nil
}

// Response is one accepted answer keyed by its catalog question id.
type Response struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// Responses is the accepted answers in catalog order. It serializes as a
// JSON object whose keys keep that order.
type Responses []Response

// Get returns the answer for the given question id.
func (r Responses) Get(questionID string) (string, bool) {
	for _, entry := range r {
		if entry.QuestionID == questionID {
			return entry.Answer, true
		}
	}
	return "", false
}

// MarshalJSON emits an object with the entries in slice order.
func (r Responses) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.QuestionID)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Answer)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Snapshot is an immutable view of a session for status reporting.
type Snapshot struct {
	SessionID    string    `json:"session_id"`
	CurrentStep  int       `json:"current_step"`
	TotalSteps   int       `json:"total_steps"`
	Responses    Responses `json:"responses"`
	IsComplete   bool      `json:"is_complete"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// snapshotLocked copies the session state. Callers must hold s.mu.
func (s *Session) snapshotLocked() *Snapshot {
	responses := make(Responses, 0, len(s.answers))
	for _, question := range catalog {
		if answer, ok := s.answers[question.ID]; ok {
			responses = append(responses, Response{QuestionID: question.ID, Answer: answer})
		}
	}
	return &Snapshot{
		SessionID:    s.id,
		CurrentStep:  s.position + 1,
		TotalSteps:   TotalSteps(),
		Responses:    responses,
		IsComplete:   s.complete,
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
	}
}
