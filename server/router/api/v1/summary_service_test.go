package v1

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummariesDegradedWithoutProvider(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]any{
		"name":            "Alice Brown",
		"age":             62,
		"chief_complaint": "Severe abdominal pain",
		"heart_rate":      110,
		"pain_level":      8,
		"triage_level":    2,
	}

	for _, path := range []string{
		"/api/v1/ai-summaries/symptoms/p1",
		"/api/v1/ai-summaries/treatment/p1",
	} {
		rec := ts.request(t, http.MethodPost, path, body)
		require.Equal(t, http.StatusOK, rec.Code)
		payload := decodeJSON(t, rec)
		require.Equal(t, "AI summary service unavailable. Please check configuration.", payload["summary"])
		require.Equal(t, false, payload["cached"])
	}

	rec := ts.request(t, http.MethodPost, "/api/v1/ai-summaries/queue-management", map[string]any{
		"total_patients":   3,
		"queue_percentage": 40,
		"avg_wait_time":    25,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeJSON(t, rec)
	require.Equal(t, "AI summary service unavailable. Please check configuration.", payload["summary"])
}

func TestSummaryCacheStatusAndClear(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/v1/ai-summaries/cache/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeJSON(t, rec)
	require.Equal(t, float64(0), payload["total_cached_items"])
	require.Equal(t, float64(30), payload["cache_duration_minutes"])
	require.Equal(t, false, payload["service_initialized"])

	rec = ts.request(t, http.MethodDelete, "/api/v1/ai-summaries/cache/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload = decodeJSON(t, rec)
	require.Equal(t, "Cache cleared successfully", payload["message"])
	require.Equal(t, float64(0), payload["items_cleared"])
}

func TestWebSocketStats(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/v1/ws/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeJSON(t, rec)
	require.Equal(t, float64(0), payload["total_connections"])
}
