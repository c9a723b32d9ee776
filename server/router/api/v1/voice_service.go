package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	svcerr "github.com/triageai/voicetriage/internal/errors"
)

// ListVoices returns the available TTS voices.
func (s *APIV1Service) ListVoices(c echo.Context) error {
	voices, err := s.Voice.Voices(c.Request().Context())
	if err != nil {
		return errorResponse(c, svcerr.ProviderUnavailable("failed to list voices", err))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"voices": voices,
		"count":  len(voices),
	})
}

// VoiceHealth reports which voice providers have credentials configured.
func (s *APIV1Service) VoiceHealth(c echo.Context) error {
	status := s.Voice.IsConfigured()
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "ok",
		"tts_configured": status.TTSConfigured,
		"stt_configured": status.STTConfigured,
	})
}
