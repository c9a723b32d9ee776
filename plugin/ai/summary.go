// Package ai provides the clinical summary service backed by an
// OpenAI-compatible chat API, with fingerprint-keyed response caching.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/triageai/voicetriage/internal/retry"
	"github.com/triageai/voicetriage/plugin/ai/cache"
	svcerr "github.com/triageai/voicetriage/internal/errors"
)

// SummaryConfig holds the summary provider configuration.
type SummaryConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// DefaultSummaryConfig returns the default configuration.
func DefaultSummaryConfig() SummaryConfig {
	return SummaryConfig{
		BaseURL:    "https://api.openai.com/v1",
		Model:      "gpt-3.5-turbo",
		MaxRetries: 3,
		Timeout:    30 * time.Second,
	}
}

// PatientInfo is the patient data a summary is generated from.
type PatientInfo struct {
	ID              string
	Name            string
	Age             int
	ChiefComplaint  string
	HeartRate       int
	RespiratoryRate int
	PainLevel       int
	TriageLevel     int
	MedicalHistory  []string
	Medications     []string
	Allergies       []string
}

// QueuePatient is one queue entry for the queue-management summary.
type QueuePatient struct {
	Name        string
	TriageLevel int
	PainLevel   int
}

// QueueInfo is the queue state a management summary is generated from.
type QueueInfo struct {
	TotalPatients   int
	QueuePercentage int
	AvgWaitMinutes  int
	Patients        []QueuePatient
}

// The degraded responses returned when the provider is unconfigured or
// unreachable. These are user-facing, not errors.
const (
	unavailableMessage = "AI summary service unavailable. Please check configuration."
	degradedMessage    = "Unable to generate AI summary at this time. Please try again later."
)

var triageLabels = map[int]string{
	1: "Resuscitation",
	2: "Emergent",
	3: "Urgent",
	4: "Less Urgent",
	5: "Non-urgent",
}

// SummaryService generates clinical summaries. A nil client (no API key)
// puts the service in degraded mode: every call returns a fixed message
// instead of failing.
type SummaryService struct {
	client *openai.Client
	config SummaryConfig
	cache  *cache.Service
}

// NewSummaryService creates a summary service. The response cache is owned
// by the caller.
func NewSummaryService(cfg SummaryConfig, responseCache *cache.Service) *SummaryService {
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	var client *openai.Client
	if cfg.APIKey == "" {
		slog.Warn("summary provider API key not configured, running degraded")
	} else {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		client = openai.NewClientWithConfig(clientConfig)
	}

	return &SummaryService{
		client: client,
		config: cfg,
		cache:  responseCache,
	}
}

// Enabled reports whether the provider is configured.
func (s *SummaryService) Enabled() bool {
	return s.client != nil
}

// SymptomsSummary generates a short clinical assessment of the patient's
// symptoms. Results are cached by request fingerprint unless forceRefresh
// is set; the bool reports whether the summary came from the cache.
func (s *SummaryService) SymptomsSummary(ctx context.Context, patient PatientInfo, forceRefresh bool) (string, bool, error) {
	prompt := fmt.Sprintf(`You are a medical AI assistant. Based on the patient data provided, generate a 4-5 sentence summary of the patient's symptoms and condition.

Patient Information:
- Name: %s
- Age: %d
- Chief Complaint: %s
- Heart Rate: %d bpm
- Respiratory Rate: %d breaths/min
- Pain Level: %d/10
- Triage Level: %d

Provide a clinical assessment of their symptoms and current condition. Focus on what the vital signs and complaints suggest about their health status. Be professional but accessible to medical staff.`,
		patient.Name, patient.Age, patient.ChiefComplaint,
		patient.HeartRate, patient.RespiratoryRate, patient.PainLevel, patient.TriageLevel)

	return s.generate(ctx, "symptoms", patientFingerprint(patient, "symptoms"), prompt, 200, forceRefresh)
}

// TreatmentSummary generates treatment recommendations and next steps.
func (s *SummaryService) TreatmentSummary(ctx context.Context, patient PatientInfo, forceRefresh bool) (string, bool, error) {
	prompt := fmt.Sprintf(`You are a medical AI assistant. Based on the patient data provided, generate a 4-5 sentence summary of recommended treatment options and next steps.

Patient Information:
- Name: %s
- Age: %d
- Chief Complaint: %s
- Heart Rate: %d bpm
- Respiratory Rate: %d breaths/min
- Pain Level: %d/10
- Triage Level: %d
- Medical History: %s
- Medications: %s
- Allergies: %s

Provide treatment recommendations including potential medications, procedures, or interventions. Consider their symptoms, vital signs, and medical history. Be specific about immediate vs. ongoing care needs.`,
		patient.Name, patient.Age, patient.ChiefComplaint,
		patient.HeartRate, patient.RespiratoryRate, patient.PainLevel, patient.TriageLevel,
		strings.Join(patient.MedicalHistory, ", "),
		strings.Join(patient.Medications, ", "),
		strings.Join(patient.Allergies, ", "))

	return s.generate(ctx, "treatment", patientFingerprint(patient, "treatment"), prompt, 200, forceRefresh)
}

// QueueSummary generates a two-paragraph queue and staffing recommendation.
func (s *SummaryService) QueueSummary(ctx context.Context, queue QueueInfo, forceRefresh bool) (string, bool, error) {
	patientsInfo := make([]string, 0, len(queue.Patients))
	for i, p := range queue.Patients {
		if i >= 10 { // keep the prompt bounded
			break
		}
		label, ok := triageLabels[p.TriageLevel]
		if !ok {
			label = "Unknown"
		}
		patientsInfo = append(patientsInfo, fmt.Sprintf("- %s (%s, Pain: %d/10)", p.Name, label, p.PainLevel))
	}

	prompt := fmt.Sprintf(`You are a healthcare operations AI assistant. Based on the current patient queue data, generate a 2-paragraph summary (8-10 sentences total) about how to effectively manage the patient queue and nursing team.

Current Queue Status:
- Total Patients: %d
- Queue Capacity: %d%%
- Average Wait Time: %d minutes

Patients in Queue:
%s

First paragraph (4-5 sentences): Focus on immediate patient prioritization, mentioning specific high-priority patients by name and their triage levels. Discuss how to manage critical vs. non-urgent cases and wait times.

Second paragraph (4-5 sentences): Focus on nursing team management, resource allocation, staffing considerations, and workflow optimization to handle the current patient load effectively.

Be specific, actionable, and reference actual patient names and triage levels where relevant.`,
		queue.TotalPatients, queue.QueuePercentage, queue.AvgWaitMinutes,
		strings.Join(patientsInfo, "\n"))

	key, err := cache.Fingerprint(map[string]any{
		"type":           "queue_management",
		"total_patients": queue.TotalPatients,
		"queue_pct":      queue.QueuePercentage,
		"avg_wait":       queue.AvgWaitMinutes,
		"patients":       patientsInfo,
	})
	if err != nil {
		key = ""
	}
	return s.generate(ctx, "queue_management", key, prompt, 300, forceRefresh)
}

// generate runs the cached chat completion. When the provider is not
// configured the fixed unavailable message is returned without error; this
// is the degraded non-fatal path for a missing configuration. The bool
// reports whether the summary came from the cache.
func (s *SummaryService) generate(ctx context.Context, summaryType, key, prompt string, maxTokens int, forceRefresh bool) (string, bool, error) {
	if s.client == nil {
		return unavailableMessage, false, nil
	}

	if !forceRefresh && key != "" {
		if cached, ok := s.cache.Get(key); ok {
			slog.Debug("summary cache hit", "type", summaryType)
			return string(cached), true, nil
		}
	}
	s.cache.PurgeExpired()

	var summary string
	err := retry.Do(ctx, retry.Exponential(s.config.MaxRetries, time.Second), "chat completion", func(ctx context.Context) error {
		req := openai.ChatCompletionRequest{
			Model:       s.config.Model,
			Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
			MaxTokens:   maxTokens,
			Temperature: 0.7,
		}
		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty chat response")
		}
		summary = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		slog.Error("summary generation failed", "type", summaryType, "error", err)
		return degradedMessage, false, svcerr.ProviderUnavailable("summary generation failed", err)
	}

	if key != "" {
		s.cache.Set(key, []byte(summary))
	}
	slog.Info("generated summary", "type", summaryType)
	return summary, false, nil
}

func patientFingerprint(patient PatientInfo, summaryType string) string {
	key, err := cache.Fingerprint(map[string]any{
		"type":             summaryType,
		"id":               patient.ID,
		"name":             patient.Name,
		"age":              patient.Age,
		"chief_complaint":  patient.ChiefComplaint,
		"heart_rate":       patient.HeartRate,
		"respiratory_rate": patient.RespiratoryRate,
		"pain_level":       patient.PainLevel,
		"triage_level":     patient.TriageLevel,
	})
	if err != nil {
		return ""
	}
	return key
}
