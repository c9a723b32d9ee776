package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/triageai/voicetriage/internal/profile"
	"github.com/triageai/voicetriage/store"
	"github.com/triageai/voicetriage/store/db"
)

// testServer bundles the echo instance and API service over a throwaway
// SQLite store.
type testServer struct {
	echo    *echo.Echo
	service *APIV1Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	p := &profile.Profile{
		Mode:             "demo",
		Driver:           "sqlite",
		DSN:              filepath.Join(t.TempDir(), "voicetriage_test.db"),
		SummaryCacheTTL:  30 * time.Minute,
		SessionIdleTTL:   30 * time.Minute,
		MaxVoiceSessions: 4,
	}

	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)

	st := store.New(driver, p)
	require.NoError(t, st.Migrate(context.Background()))

	e := echo.New()
	service := NewAPIV1Service(p, st)
	service.Register(e)

	t.Cleanup(func() {
		service.SummaryCache.Close()
		require.NoError(t, st.Close())
	})

	return &testServer{echo: e, service: service}
}

func (ts *testServer) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) uploadAudio(t *testing.T, path string, audio []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio_file", "answer.wav")
	require.NoError(t, err)
	_, err = part.Write(audio)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}
