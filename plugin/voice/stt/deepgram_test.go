package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribe(t *testing.T) {
	var gotAuth, gotModel, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotModel = r.URL.Query().Get("model")
		json.NewEncoder(w).Encode(map[string]any{
			"metadata": map[string]any{"duration": 2.5},
			"results": map[string]any{
				"channels": []map[string]any{{
					"alternatives": []map[string]any{{
						"transcript": "I have severe chest pain",
						"confidence": 0.97,
					}},
				}},
			},
		})
	}))
	defer server.Close()

	client := New(WithAPIKey("dg-key"), WithBaseURL(server.URL))

	transcript, err := client.Transcribe(context.Background(), []byte("audio"), Options{MimeType: "audio/webm"})
	require.NoError(t, err)
	assert.Equal(t, "I have severe chest pain", transcript.Text)
	assert.InDelta(t, 0.97, transcript.Confidence, 1e-9)
	assert.InDelta(t, 2.5, transcript.Duration, 1e-9)

	assert.Equal(t, "Token dg-key", gotAuth)
	assert.Equal(t, "nova-2", gotModel)
	assert.Equal(t, "audio/webm", gotContentType)
}

func TestTranscribeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"err_code": "INVALID_AUDIO",
			"err_msg":  "corrupt or unsupported data",
		})
	}))
	defer server.Close()

	client := New(WithAPIKey("dg-key"), WithBaseURL(server.URL))

	_, err := client.Transcribe(context.Background(), []byte("bad"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt or unsupported data")
}

func TestTranscribeMockWhenUnconfigured(t *testing.T) {
	client := New()
	require.False(t, client.Configured())

	transcript, err := client.Transcribe(context.Background(), []byte("audio"), Options{})
	require.NoError(t, err)
	assert.Equal(t, mockTranscript, transcript.Text)
	assert.InDelta(t, 0.95, transcript.Confidence, 1e-9)
}

func TestTranscribeEmptyChannels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"metadata": map[string]any{},
			"results":  map[string]any{"channels": []any{}},
		})
	}))
	defer server.Close()

	client := New(WithAPIKey("dg-key"), WithBaseURL(server.URL))

	transcript, err := client.Transcribe(context.Background(), []byte("silence"), Options{})
	require.NoError(t, err)
	assert.Empty(t, transcript.Text)
	assert.Zero(t, transcript.Confidence)
}
