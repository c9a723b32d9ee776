// Package tts provides the ElevenLabs text-to-speech client.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultModel   = "eleven_monolingual_v1"
	defaultVoice   = "21m00Tcm4TlvDq8ikWAM" // Rachel
)

// Voice describes an available TTS voice.
type Voice struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// VoiceSettings tunes the synthesis output.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultVoiceSettings returns the synthesis settings used when the caller
// does not override them.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.75,
		SimilarityBoost: 0.75,
		Style:           0.0,
		UseSpeakerBoost: true,
	}
}

// Client is an ElevenLabs text-to-speech client. Without an API key it runs
// in mock mode and returns placeholder audio bytes.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	model      string
	voice      string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithBaseURL sets the base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithVoice sets the default voice id.
func WithVoice(voiceID string) Option {
	return func(c *Client) {
		if voiceID != "" {
			c.voice = voiceID
		}
	}
}

// New creates an ElevenLabs client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		model:      defaultModel,
		voice:      defaultVoice,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Synthesize converts text to MP3 audio.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string, settings *VoiceSettings) ([]byte, error) {
	if !c.Configured() {
		slog.Warn("elevenlabs API key not configured, using mock audio")
		return []byte("mock_audio_data"), nil
	}

	if voiceID == "" {
		voiceID = c.voice
	}
	if settings == nil {
		s := DefaultVoiceSettings()
		settings = &s
	}

	reqBody, err := json.Marshal(synthesizeRequest{
		Text:          text,
		ModelID:       c.model,
		VoiceSettings: settings,
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Detail.Message != "" {
			return nil, fmt.Errorf("elevenlabs: %s", errResp.Detail.Message)
		}
		return nil, fmt.Errorf("elevenlabs: unexpected status %d: %s", resp.StatusCode, string(data))
	}

	slog.Info("generated speech", "text_length", len(text), "voice_id", voiceID)
	return data, nil
}

// Voices lists the available voices. In mock mode a small premade set is
// returned; remote errors degrade to an empty list.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	if !c.Configured() {
		return []Voice{
			{VoiceID: defaultVoice, Name: "Rachel", Category: "premade"},
			{VoiceID: "ErXwobaYiN019PkySvjV", Name: "Antoni", Category: "premade"},
			{VoiceID: "MF3mGyEYCl7XYWbV9V6O", Name: "Elli", Category: "premade"},
		}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("failed to fetch voices", "error", err)
		return []Voice{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("failed to fetch voices", "status", resp.StatusCode)
		return []Voice{}, nil
	}

	var voicesResp voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&voicesResp); err != nil {
		slog.Error("failed to decode voices", "error", err)
		return []Voice{}, nil
	}
	return voicesResp.Voices, nil
}

type synthesizeRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id"`
	VoiceSettings *VoiceSettings `json:"voice_settings,omitempty"`
}

type voicesResponse struct {
	Voices []Voice `json:"voices"`
}

type errorResponse struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}
