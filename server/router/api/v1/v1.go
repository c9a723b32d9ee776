// Package v1 exposes the REST and WebSocket API.
package v1

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/triageai/voicetriage/internal/profile"
	"github.com/triageai/voicetriage/plugin/ai"
	aicache "github.com/triageai/voicetriage/plugin/ai/cache"
	"github.com/triageai/voicetriage/plugin/voice"
	svcerr "github.com/triageai/voicetriage/internal/errors"
	"github.com/triageai/voicetriage/internal/observability"
	"github.com/triageai/voicetriage/server/middleware"
	"github.com/triageai/voicetriage/server/triage"
	"github.com/triageai/voicetriage/store"
)

// APIV1Service wires the interview engine, patient store, AI and voice
// services into the HTTP surface.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	Triage       *triage.Orchestrator
	Voice        *voice.Service
	Summary      *ai.SummaryService
	SummaryCache *aicache.Service

	connManager *ConnectionManager
	rateLimiter *middleware.RateLimiter

	// voiceSemaphore bounds concurrent voice transcriptions to protect the
	// STT provider quota and server memory.
	voiceSemaphore *semaphore.Weighted
}

// NewAPIV1Service creates the API service and its collaborators.
func NewAPIV1Service(p *profile.Profile, st *store.Store) *APIV1Service {
	summaryCache := aicache.NewService(aicache.ServiceConfig{
		DefaultTTL: p.SummaryCacheTTL,
	})

	summaryConfig := ai.DefaultSummaryConfig()
	summaryConfig.APIKey = p.OpenAIAPIKey
	if p.OpenAIBaseURL != "" {
		summaryConfig.BaseURL = p.OpenAIBaseURL
	}
	if p.SummaryModel != "" {
		summaryConfig.Model = p.SummaryModel
	}

	voiceService := voice.NewService(voice.Config{
		DeepgramAPIKey:   p.DeepgramAPIKey,
		ElevenLabsAPIKey: p.ElevenLabsAPIKey,
		ElevenLabsVoice:  p.ElevenLabsVoiceID,
	})

	service := &APIV1Service{
		Profile:        p,
		Store:          st,
		Voice:          voiceService,
		Summary:        ai.NewSummaryService(summaryConfig, summaryCache),
		SummaryCache:   summaryCache,
		connManager:    NewConnectionManager(),
		rateLimiter:    middleware.NewRateLimiter(),
		voiceSemaphore: semaphore.NewWeighted(int64(p.MaxVoiceSessions)),
	}
	service.Triage = triage.NewOrchestrator(&patientRecorder{patients: st}, triage.DefaultConfig())
	return service
}

// Register attaches all routes to the Echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	e.Use(echomw.CORS())

	api := e.Group("/api/v1")
	api.Use(s.rateLimitMiddleware)

	api.GET("/test", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "API v1 is working!"})
	})
	api.GET("/metrics", func(c echo.Context) error {
		return c.JSON(http.StatusOK, observability.GlobalMetrics().GetSnapshot())
	})

	tr := api.Group("/triage")
	tr.POST("/start", s.StartTriage)
	tr.POST("/sessions/:sessionId/answer", s.SubmitAnswer)
	tr.POST("/sessions/:sessionId/voice", s.HandleVoiceInput)
	tr.POST("/sessions/:sessionId/speech", s.GenerateSpeech)
	tr.GET("/sessions/:sessionId/status", s.GetSessionStatus)
	tr.DELETE("/sessions/:sessionId", s.EndSession)
	tr.GET("/sessions", s.ListSessions)

	pt := api.Group("/patients")
	pt.POST("", s.CreatePatient)
	pt.GET("", s.ListPatients)
	pt.GET("/:patientId", s.GetPatient)
	pt.PUT("/:patientId", s.UpdatePatient)
	pt.PATCH("/:patientId", s.UpdatePatient)
	pt.DELETE("/:patientId", s.DeletePatient)

	vc := api.Group("/voice")
	vc.GET("/voices", s.ListVoices)
	vc.GET("/health", s.VoiceHealth)

	sm := api.Group("/ai-summaries")
	sm.POST("/symptoms/:patientId", s.SymptomsSummary)
	sm.POST("/treatment/:patientId", s.TreatmentSummary)
	sm.POST("/queue-management", s.QueueSummary)
	sm.GET("/cache/status", s.SummaryCacheStatus)
	sm.DELETE("/cache/clear", s.ClearSummaryCache)

	api.GET("/ws/stats", s.WebSocketStats)
	api.GET("/ws/:connectionType", s.HandleWebSocket)
}

// rateLimitMiddleware throttles by client IP.
func (s *APIV1Service) rateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.rateLimiter.Allow(c.RealIP()) {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		}
		return next(c)
	}
}

// errorResponse maps a service error to its HTTP status.
func errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch svcerr.GetCodeFromError(err, svcerr.ErrCodeProviderUnavailable) {
	case svcerr.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case svcerr.ErrCodeInvalidArgument:
		status = http.StatusBadRequest
	case svcerr.ErrCodeRateLimitExceeded:
		status = http.StatusTooManyRequests
	case svcerr.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	case svcerr.ErrCodeProviderUnavailable, svcerr.ErrCodeConfigUnavailable:
		status = http.StatusBadGateway
	case svcerr.ErrCodeFinalizationFailed, svcerr.ErrCodePersistenceFailed:
		status = http.StatusInternalServerError
	}
	return echo.NewHTTPError(status, err.Error())
}

// patientRecorder adapts the patient service to the interview engine's
// persistence contract.
type patientRecorder struct {
	patients store.PatientService
}

func (r *patientRecorder) CreateRecord(ctx context.Context, fields triage.RecordFields) (string, error) {
	patient, err := r.patients.CreatePatient(ctx, &store.Patient{
		Name:            fields.Name,
		Age:             fields.Age,
		Gender:          fields.Gender,
		ChiefComplaint:  fields.ChiefComplaint,
		TriageLevel:     fields.TriageLevel,
		HeartRate:       fields.HeartRate,
		RespiratoryRate: fields.RespiratoryRate,
		PainLevel:       fields.PainLevel,
		ArrivalTs:       time.Now().Unix(),
		Status:          store.StatusWaiting,
	})
	if err != nil {
		return "", err
	}
	return patient.UID, nil
}

func parseBoolQuery(c echo.Context, names ...string) bool {
	for _, name := range names {
		if v, err := strconv.ParseBool(c.QueryParam(name)); err == nil && v {
			return true
		}
	}
	return false
}
