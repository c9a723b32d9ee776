// Package stt provides the Deepgram speech-to-text client.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.deepgram.com"
	defaultModel   = "nova-2"

	mockTranscript = "This is a mock transcription response."
)

// Transcript is the result of a transcription request.
type Transcript struct {
	Text       string
	Confidence float64
	Duration   float64
}

// Options tunes a single transcription request. Zero values fall back to
// the client defaults.
type Options struct {
	Model    string
	Language string
	MimeType string
}

// Client is a Deepgram speech-to-text client. Without an API key it runs in
// mock mode and returns a canned transcript, so the interview flow stays
// exercisable in demo deployments.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	model      string
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

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a Deepgram client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		model:      defaultModel,
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

// Transcribe sends audio to Deepgram and returns the best alternative of
// the first channel.
func (c *Client) Transcribe(ctx context.Context, audio []byte, opts Options) (*Transcript, error) {
	if !c.Configured() {
		slog.Warn("deepgram API key not configured, using mock transcription")
		return &Transcript{Text: mockTranscript, Confidence: 0.95}, nil
	}

	reqURL := fmt.Sprintf("%s/v1/listen?%s", c.baseURL, c.buildParams(opts).Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("deepgram: create request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.apiKey)
	mimeType := opts.MimeType
	if mimeType == "" {
		mimeType = "audio/wav"
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("deepgram: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.ErrMsg != "" {
			return nil, fmt.Errorf("deepgram: %s (code: %s)", errResp.ErrMsg, errResp.ErrCode)
		}
		return nil, fmt.Errorf("deepgram: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var dgResp deepgramResponse
	if err := json.Unmarshal(body, &dgResp); err != nil {
		return nil, fmt.Errorf("deepgram: parse response: %w", err)
	}

	return toTranscript(&dgResp), nil
}

func (c *Client) buildParams(opts Options) url.Values {
	params := url.Values{}

	model := opts.Model
	if model == "" {
		model = c.model
	}
	params.Set("model", model)

	language := opts.Language
	if language == "" {
		language = "en-US"
	}
	params.Set("language", language)

	params.Set("punctuate", "true")
	params.Set("smart_format", "true")

	return params
}

func toTranscript(resp *deepgramResponse) *Transcript {
	t := &Transcript{Duration: resp.Metadata.Duration}
	if len(resp.Results.Channels) == 0 {
		return t
	}
	channel := resp.Results.Channels[0]
	if len(channel.Alternatives) == 0 {
		return t
	}
	t.Text = channel.Alternatives[0].Transcript
	t.Confidence = channel.Alternatives[0].Confidence
	return t
}

type deepgramResponse struct {
	Metadata deepgramMetadata `json:"metadata"`
	Results  deepgramResults  `json:"results"`
}

type deepgramMetadata struct {
	RequestID string  `json:"request_id"`
	Duration  float64 `json:"duration"`
	Channels  int     `json:"channels"`
}

type deepgramResults struct {
	Channels []deepgramChannel `json:"channels"`
}

type deepgramChannel struct {
	Alternatives []deepgramAlternative `json:"alternatives"`
}

type deepgramAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type errorResponse struct {
	ErrCode string `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
}
