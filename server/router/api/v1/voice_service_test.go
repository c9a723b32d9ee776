package v1

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListVoicesMock(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/v1/voice/voices", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeJSON(t, rec)
	require.Equal(t, float64(3), payload["count"])
	voices, ok := payload["voices"].([]any)
	require.True(t, ok)
	first, ok := voices[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Rachel", first["name"])
}

func TestVoiceHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/v1/voice/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeJSON(t, rec)
	require.Equal(t, "ok", payload["status"])
	require.Equal(t, false, payload["tts_configured"])
	require.Equal(t, false, payload["stt_configured"])
}
