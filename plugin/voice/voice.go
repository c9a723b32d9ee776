// Package voice combines the speech-to-text and text-to-speech clients into
// the single service the transport layer talks to.
package voice

import (
	"context"

	"github.com/triageai/voicetriage/plugin/voice/stt"
	"github.com/triageai/voicetriage/plugin/voice/tts"
)

// TranscriptionResult is a transcript with its provider confidence.
type TranscriptionResult struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// Config holds the provider credentials.
type Config struct {
	DeepgramAPIKey   string
	ElevenLabsAPIKey string
	ElevenLabsVoice  string
}

// Service bundles STT and TTS. Unconfigured providers run in mock mode, so
// every method is safe to call regardless of configuration.
type Service struct {
	stt *stt.Client
	tts *tts.Client
}

// NewService creates a voice service from the given credentials.
func NewService(cfg Config) *Service {
	return &Service{
		stt: stt.New(stt.WithAPIKey(cfg.DeepgramAPIKey)),
		tts: tts.New(tts.WithAPIKey(cfg.ElevenLabsAPIKey), tts.WithVoice(cfg.ElevenLabsVoice)),
	}
}

// NewServiceWithClients creates a voice service from prebuilt clients.
func NewServiceWithClients(sttClient *stt.Client, ttsClient *tts.Client) *Service {
	return &Service{stt: sttClient, tts: ttsClient}
}

// Speak generates speech audio for the given text.
func (s *Service) Speak(ctx context.Context, text, voiceID string) ([]byte, error) {
	return s.tts.Synthesize(ctx, text, voiceID, nil)
}

// Listen transcribes audio and returns only the text.
func (s *Service) Listen(ctx context.Context, audio []byte, mimeType string) (string, error) {
	t, err := s.stt.Transcribe(ctx, audio, stt.Options{MimeType: mimeType})
	if err != nil {
		return "", err
	}
	return t.Text, nil
}

// ListenWithConfidence transcribes audio and returns the text with the
// provider's confidence score.
func (s *Service) ListenWithConfidence(ctx context.Context, audio []byte, mimeType string) (*TranscriptionResult, error) {
	t, err := s.stt.Transcribe(ctx, audio, stt.Options{MimeType: mimeType})
	if err != nil {
		return nil, err
	}
	return &TranscriptionResult{Transcript: t.Text, Confidence: t.Confidence}, nil
}

// Voices lists the available TTS voices.
func (s *Service) Voices(ctx context.Context) ([]tts.Voice, error) {
	return s.tts.Voices(ctx)
}

// ConfigStatus reports per-provider configuration state.
type ConfigStatus struct {
	TTSConfigured bool `json:"tts_configured"`
	STTConfigured bool `json:"stt_configured"`
}

// IsConfigured reports which providers have credentials.
func (s *Service) IsConfigured() ConfigStatus {
	return ConfigStatus{
		TTSConfigured: s.tts.Configured(),
		STTConfigured: s.stt.Configured(),
	}
}
