package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the triage server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where voicetriage stores its own data
	DSN string
	// Driver is the database driver (sqlite)
	Driver string
	// Version is the current version of server
	Version string

	// Voice provider configuration
	DeepgramAPIKey    string // TRIAGE_DEEPGRAM_API_KEY
	ElevenLabsAPIKey  string // TRIAGE_ELEVENLABS_API_KEY
	ElevenLabsVoiceID string // TRIAGE_ELEVENLABS_VOICE_ID

	// AI summary configuration
	OpenAIAPIKey  string // TRIAGE_OPENAI_API_KEY
	OpenAIBaseURL string // TRIAGE_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	SummaryModel  string // TRIAGE_SUMMARY_MODEL (default: gpt-3.5-turbo)

	// SummaryCacheTTL is how long generated summaries stay cached.
	SummaryCacheTTL time.Duration // TRIAGE_SUMMARY_CACHE_TTL (default: 30m)
	// SessionIdleTTL is how long an inactive interview session is kept.
	SessionIdleTTL time.Duration // TRIAGE_SESSION_IDLE_TTL (default: 30m)
	// MaxVoiceSessions bounds concurrent voice interview sessions.
	MaxVoiceSessions int // TRIAGE_MAX_VOICE_SESSIONS (default: 32)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsSummaryEnabled returns true if the AI summary provider is configured.
func (p *Profile) IsSummaryEnabled() bool {
	return p.OpenAIAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from TRIAGE_* environment variables.
func (p *Profile) FromEnv() {
	getDurationEnv := func(key string, defaultValue time.Duration) time.Duration {
		if val := os.Getenv(key); val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				return d
			}
		}
		return defaultValue
	}
	getIntEnv := func(key string, defaultValue int) int {
		if val := os.Getenv(key); val != "" {
			if n, err := strconv.Atoi(val); err == nil {
				return n
			}
		}
		return defaultValue
	}

	p.DeepgramAPIKey = os.Getenv("TRIAGE_DEEPGRAM_API_KEY")
	p.ElevenLabsAPIKey = os.Getenv("TRIAGE_ELEVENLABS_API_KEY")
	p.ElevenLabsVoiceID = getEnvOrDefault("TRIAGE_ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM")
	p.OpenAIAPIKey = os.Getenv("TRIAGE_OPENAI_API_KEY")
	p.OpenAIBaseURL = getEnvOrDefault("TRIAGE_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.SummaryModel = getEnvOrDefault("TRIAGE_SUMMARY_MODEL", "gpt-3.5-turbo")
	p.SummaryCacheTTL = getDurationEnv("TRIAGE_SUMMARY_CACHE_TTL", 30*time.Minute)
	p.SessionIdleTTL = getDurationEnv("TRIAGE_SESSION_IDLE_TTL", 30*time.Minute)
	p.MaxVoiceSessions = getIntEnv("TRIAGE_MAX_VOICE_SESSIONS", 32)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver == "" {
		p.Driver = "sqlite"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "voicetriage")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/voicetriage"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("voicetriage_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
