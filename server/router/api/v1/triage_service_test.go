package v1

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func startSession(t *testing.T, ts *testServer) string {
	t.Helper()
	rec := ts.request(t, http.MethodPost, "/api/v1/triage/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeJSON(t, rec)
	require.Equal(t, true, payload["success"])
	sessionID, _ := payload["session_id"].(string)
	require.NotEmpty(t, sessionID)
	return sessionID
}

func TestStartTriage(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/v1/triage/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeJSON(t, rec)
	require.Equal(t, "question", payload["type"])
	require.Contains(t, payload["question"], "what is your name")
	require.Equal(t, "name", payload["question_id"])
	require.Equal(t, float64(1), payload["step"])
	require.Equal(t, float64(8), payload["total_steps"])
}

func TestTriageInterviewOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts)

	answers := []string{
		"My name is john smith.",
		"I am 45 years old",
		"male",
		"Crushing chest pain and shortness of breath",
		"no",
		"yes",
		"yes",
		"no",
	}

	var payload map[string]any
	for _, answer := range answers {
		rec := ts.request(t, http.MethodPost,
			fmt.Sprintf("/api/v1/triage/sessions/%s/answer", sessionID),
			map[string]string{"transcript": answer})
		require.Equal(t, http.StatusOK, rec.Code)
		payload = decodeJSON(t, rec)
		require.Equal(t, true, payload["success"])
	}

	require.Equal(t, "complete", payload["type"])
	require.Contains(t, payload["message"], "Assessment complete")
	patientID, _ := payload["patient_id"].(string)
	require.NotEmpty(t, patientID)
	require.Greater(t, payload["urgency_score"], 0.0)

	rec := ts.request(t, http.MethodGet, "/api/v1/patients/"+patientID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	patient := decodeJSON(t, rec)
	require.Equal(t, "John Smith", patient["name"])
	require.Equal(t, float64(45), patient["age"])
	require.Equal(t, "waiting", patient["status"])
}

func TestSubmitAnswerRejectedKeepsStep(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts)

	rec := ts.request(t, http.MethodPost,
		fmt.Sprintf("/api/v1/triage/sessions/%s/answer", sessionID),
		map[string]string{"transcript": "x"})
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeJSON(t, rec)
	require.Equal(t, "error", payload["type"])
	require.Equal(t, float64(1), payload["step"])
	require.NotEmpty(t, payload["error"])
}

func TestSubmitAnswerValidation(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts)

	rec := ts.request(t, http.MethodPost,
		fmt.Sprintf("/api/v1/triage/sessions/%s/answer", sessionID),
		map[string]string{"transcript": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost,
		"/api/v1/triage/sessions/does-not-exist/answer",
		map[string]string{"transcript": "hello there"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/triage/sessions/does-not-exist/status", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionStatusAndList(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts)

	rec := ts.request(t, http.MethodPost,
		fmt.Sprintf("/api/v1/triage/sessions/%s/answer", sessionID),
		map[string]string{"transcript": "Jane Doe"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodGet,
		fmt.Sprintf("/api/v1/triage/sessions/%s/status", sessionID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeJSON(t, rec)
	require.Equal(t, float64(2), payload["current_step"])
	require.Equal(t, false, payload["is_complete"])
	responses, ok := payload["responses"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Jane Doe", responses["name"])

	rec = ts.request(t, http.MethodGet, "/api/v1/triage/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload = decodeJSON(t, rec)
	require.Equal(t, float64(1), payload["active_sessions"])
}

func TestEndSession(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts)

	rec := ts.request(t, http.MethodDelete, "/api/v1/triage/sessions/"+sessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeJSON(t, rec)
	require.Equal(t, "Session ended successfully", payload["message"])

	rec = ts.request(t, http.MethodGet,
		fmt.Sprintf("/api/v1/triage/sessions/%s/status", sessionID), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVoiceInputMockTranscription(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts)

	// Without STT credentials the voice service yields the mock transcript,
	// which passes name validation.
	rec := ts.uploadAudio(t,
		fmt.Sprintf("/api/v1/triage/sessions/%s/voice", sessionID),
		[]byte("fake audio bytes"))
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeJSON(t, rec)
	require.Equal(t, true, payload["success"])
	require.Equal(t, "This is a mock transcription response.", payload["transcript"])
	require.Equal(t, 0.95, payload["confidence"])
}

func TestVoiceInputMissingFile(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts)

	rec := ts.request(t, http.MethodPost,
		fmt.Sprintf("/api/v1/triage/sessions/%s/voice", sessionID), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateSpeechMock(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts)

	rec := ts.request(t, http.MethodPost,
		fmt.Sprintf("/api/v1/triage/sessions/%s/speech", sessionID),
		map[string]string{"text": "Please describe your symptoms."})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	require.Equal(t, "mock_audio_data", rec.Body.String())

	rec = ts.request(t, http.MethodPost,
		fmt.Sprintf("/api/v1/triage/sessions/%s/speech", sessionID),
		map[string]string{"text": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
