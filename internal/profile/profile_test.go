package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	clearTriageEnvVars(t)

	profile := &Profile{}
	profile.FromEnv()

	assert.Equal(t, "21m00Tcm4TlvDq8ikWAM", profile.ElevenLabsVoiceID)
	assert.Equal(t, "https://api.openai.com/v1", profile.OpenAIBaseURL)
	assert.Equal(t, "gpt-3.5-turbo", profile.SummaryModel)
	assert.Equal(t, 30*time.Minute, profile.SummaryCacheTTL)
	assert.Equal(t, 30*time.Minute, profile.SessionIdleTTL)
	assert.Equal(t, 32, profile.MaxVoiceSessions)
	assert.False(t, profile.IsSummaryEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	clearTriageEnvVars(t)
	t.Setenv("TRIAGE_OPENAI_API_KEY", "sk-test")
	t.Setenv("TRIAGE_SUMMARY_CACHE_TTL", "5m")
	t.Setenv("TRIAGE_MAX_VOICE_SESSIONS", "4")

	profile := &Profile{}
	profile.FromEnv()

	assert.Equal(t, "sk-test", profile.OpenAIAPIKey)
	assert.Equal(t, 5*time.Minute, profile.SummaryCacheTTL)
	assert.Equal(t, 4, profile.MaxVoiceSessions)
	assert.True(t, profile.IsSummaryEnabled())
}

func TestValidate(t *testing.T) {
	dataDir := t.TempDir()

	profile := &Profile{Mode: "bogus", Data: dataDir}
	require.NoError(t, profile.Validate())

	assert.Equal(t, "demo", profile.Mode)
	assert.Equal(t, "sqlite", profile.Driver)
	assert.Contains(t, profile.DSN, "voicetriage_demo.db")
}

func clearTriageEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TRIAGE_DEEPGRAM_API_KEY",
		"TRIAGE_ELEVENLABS_API_KEY",
		"TRIAGE_ELEVENLABS_VOICE_ID",
		"TRIAGE_OPENAI_API_KEY",
		"TRIAGE_OPENAI_BASE_URL",
		"TRIAGE_SUMMARY_MODEL",
		"TRIAGE_SUMMARY_CACHE_TTL",
		"TRIAGE_SESSION_IDLE_TTL",
		"TRIAGE_MAX_VOICE_SESSIONS",
	} {
		t.Setenv(key, "")
	}
}
