package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triageai/voicetriage/plugin/voice/stt"
	"github.com/triageai/voicetriage/plugin/voice/tts"
)

func TestServiceUnconfiguredRunsInMockMode(t *testing.T) {
	svc := NewService(Config{})

	status := svc.IsConfigured()
	assert.False(t, status.STTConfigured)
	assert.False(t, status.TTSConfigured)

	text, err := svc.Listen(context.Background(), []byte("audio"), "audio/wav")
	require.NoError(t, err)
	assert.NotEmpty(t, text)

	audio, err := svc.Speak(context.Background(), "How old are you?", "")
	require.NoError(t, err)
	assert.NotEmpty(t, audio)

	voices, err := svc.Voices(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, voices)
}

func TestListenWithConfidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": map[string]any{
				"channels": []map[string]any{{
					"alternatives": []map[string]any{{
						"transcript": "forty five",
						"confidence": 0.35,
					}},
				}},
			},
		})
	}))
	defer server.Close()

	svc := NewServiceWithClients(
		stt.New(stt.WithAPIKey("dg-key"), stt.WithBaseURL(server.URL)),
		tts.New(),
	)

	result, err := svc.ListenWithConfidence(context.Background(), []byte("audio"), "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, "forty five", result.Transcript)
	assert.InDelta(t, 0.35, result.Confidence, 1e-9)

	status := svc.IsConfigured()
	assert.True(t, status.STTConfigured)
	assert.False(t, status.TTSConfigured)
}
