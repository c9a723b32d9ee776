package v1

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	svcerr "github.com/triageai/voicetriage/internal/errors"
	"github.com/triageai/voicetriage/internal/observability"
	"github.com/triageai/voicetriage/server/triage"
)

// lowConfidenceThreshold is the STT confidence below which a transcript is
// bounced back to the caller instead of being fed to the interview engine.
const lowConfidenceThreshold = 0.4

// requestScoped attaches a request-scoped logger carrying a generated
// request id and the session id; the interview engine logs through it.
func requestScoped(ctx context.Context, sessionID string) context.Context {
	return observability.WithRequestContext(ctx,
		observability.NewRequestContext(slog.Default(), sessionID))
}

type answerRequest struct {
	Transcript string `json:"transcript"`
}

type speechRequest struct {
	Text string `json:"text"`
}

type startTriageResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	*triage.Outcome
}

type answerResponse struct {
	Success    bool    `json:"success"`
	SessionID  string  `json:"session_id"`
	Transcript string  `json:"transcript,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	*triage.Outcome
}

type lowConfidenceResponse struct {
	Success    bool    `json:"success"`
	Error      string  `json:"error"`
	Confidence float64 `json:"confidence"`
	Transcript string  `json:"transcript"`
	Message    string  `json:"message"`
}

// StartTriage starts a new interview session and returns the first question.
func (s *APIV1Service) StartTriage(c echo.Context) error {
	outcome := s.Triage.StartSession(c.Request().Context())
	return c.JSON(http.StatusOK, startTriageResponse{
		Success:   true,
		SessionID: outcome.SessionID,
		Outcome:   outcome,
	})
}

// SubmitAnswer feeds a text answer to the interview session.
func (s *APIV1Service) SubmitAnswer(c echo.Context) error {
	sessionID := c.Param("sessionId")

	var req answerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Transcript == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "transcript is required")
	}

	ctx := requestScoped(c.Request().Context(), sessionID)
	outcome, err := s.Triage.SubmitAnswer(ctx, sessionID, req.Transcript)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, answerResponse{
		Success:   true,
		SessionID: sessionID,
		Outcome:   outcome,
	})
}

// HandleVoiceInput transcribes an uploaded audio answer and feeds it to the
// interview session. Low-confidence transcripts are rejected with a re-ask
// message and do not touch session state.
func (s *APIV1Service) HandleVoiceInput(c echo.Context) error {
	sessionID := c.Param("sessionId")
	ctx := c.Request().Context()

	if err := s.voiceSemaphore.Acquire(ctx, 1); err != nil {
		return errorResponse(c, svcerr.Timeout("voice processing queue full"))
	}
	defer s.voiceSemaphore.Release(1)

	fileHeader, err := c.FormFile("audio_file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "audio_file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to open audio file")
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read audio file")
	}

	result, err := s.Voice.ListenWithConfidence(ctx, audio, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return errorResponse(c, svcerr.ProviderUnavailable("transcription failed", err))
	}

	if result.Confidence < lowConfidenceThreshold {
		return c.JSON(http.StatusOK, lowConfidenceResponse{
			Success:    false,
			Error:      "Low confidence transcription",
			Confidence: result.Confidence,
			Transcript: result.Transcript,
			Message:    "I didn't quite catch that. Could you please repeat what you said?",
		})
	}

	outcome, err := s.Triage.SubmitAnswer(requestScoped(ctx, sessionID), sessionID, result.Transcript)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, answerResponse{
		Success:    true,
		SessionID:  sessionID,
		Transcript: result.Transcript,
		Confidence: result.Confidence,
		Outcome:    outcome,
	})
}

// GenerateSpeech synthesizes the given text and streams back MP3 audio.
func (s *APIV1Service) GenerateSpeech(c echo.Context) error {
	var req speechRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	audio, err := s.Voice.Speak(c.Request().Context(), req.Text, "")
	if err != nil {
		return errorResponse(c, svcerr.ProviderUnavailable("speech generation failed", err))
	}

	c.Response().Header().Set("Content-Disposition", "attachment; filename=response.mp3")
	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

type sessionStatusResponse struct {
	Success bool `json:"success"`
	*triage.Snapshot
}

// GetSessionStatus reports the session's progress and collected answers.
func (s *APIV1Service) GetSessionStatus(c echo.Context) error {
	snapshot, err := s.Triage.Status(c.Param("sessionId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, sessionStatusResponse{Success: true, Snapshot: snapshot})
}

// EndSession removes the session from the active set.
func (s *APIV1Service) EndSession(c echo.Context) error {
	sessionID := c.Param("sessionId")
	if err := s.Triage.EndSession(sessionID); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"session_id": sessionID,
		"message":    "Session ended successfully",
	})
}

// ListSessions reports all active sessions.
func (s *APIV1Service) ListSessions(c echo.Context) error {
	snapshots := s.Triage.ListSessions()
	return c.JSON(http.StatusOK, map[string]any{
		"success":         true,
		"active_sessions": len(snapshots),
		"sessions":        snapshots,
	})
}
