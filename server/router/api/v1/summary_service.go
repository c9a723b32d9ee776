package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/triageai/voicetriage/plugin/ai"
)

type patientSummaryRequest struct {
	Name            string   `json:"name"`
	Age             int      `json:"age"`
	ChiefComplaint  string   `json:"chief_complaint"`
	HeartRate       int      `json:"heart_rate"`
	RespiratoryRate int      `json:"respiratory_rate"`
	PainLevel       int      `json:"pain_level"`
	TriageLevel     int      `json:"triage_level"`
	MedicalHistory  []string `json:"medical_history"`
	Medications     []string `json:"medications"`
	Allergies       []string `json:"allergies"`
}

type queueSummaryRequest struct {
	Patients        []queueSummaryPatient `json:"patients"`
	TotalPatients   int                   `json:"total_patients"`
	QueuePercentage int                   `json:"queue_percentage"`
	AvgWaitTime     int                   `json:"avg_wait_time"`
}

type queueSummaryPatient struct {
	Name        string `json:"name"`
	TriageLevel int    `json:"triageLevel"`
	PainLevel   int    `json:"painLevel"`
}

type summaryResponse struct {
	Summary   string `json:"summary"`
	Cached    bool   `json:"cached"`
	Timestamp string `json:"timestamp"`
}

func (r *patientSummaryRequest) toPatientInfo(patientID string) ai.PatientInfo {
	return ai.PatientInfo{
		ID:              patientID,
		Name:            r.Name,
		Age:             r.Age,
		ChiefComplaint:  r.ChiefComplaint,
		HeartRate:       r.HeartRate,
		RespiratoryRate: r.RespiratoryRate,
		PainLevel:       r.PainLevel,
		TriageLevel:     r.TriageLevel,
		MedicalHistory:  r.MedicalHistory,
		Medications:     r.Medications,
		Allergies:       r.Allergies,
	}
}

func newSummaryResponse(summary string, cached bool) summaryResponse {
	return summaryResponse{
		Summary:   summary,
		Cached:    cached,
		Timestamp: strconv.FormatInt(time.Now().Unix(), 10),
	}
}

// SymptomsSummary generates (or serves from cache) a symptoms summary.
func (s *APIV1Service) SymptomsSummary(c echo.Context) error {
	var req patientSummaryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	refresh := parseBoolQuery(c, "refresh", "force_refresh")

	summary, cached, err := s.Summary.SymptomsSummary(c.Request().Context(), req.toPatientInfo(c.Param("patientId")), refresh)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, newSummaryResponse(summary, cached))
}

// TreatmentSummary generates (or serves from cache) a treatment summary.
func (s *APIV1Service) TreatmentSummary(c echo.Context) error {
	var req patientSummaryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	refresh := parseBoolQuery(c, "refresh", "force_refresh")

	summary, cached, err := s.Summary.TreatmentSummary(c.Request().Context(), req.toPatientInfo(c.Param("patientId")), refresh)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, newSummaryResponse(summary, cached))
}

// QueueSummary generates a queue-management summary.
func (s *APIV1Service) QueueSummary(c echo.Context) error {
	var req queueSummaryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	refresh := parseBoolQuery(c, "refresh", "force_refresh")

	patients := make([]ai.QueuePatient, 0, len(req.Patients))
	for _, p := range req.Patients {
		patients = append(patients, ai.QueuePatient{
			Name:        p.Name,
			TriageLevel: p.TriageLevel,
			PainLevel:   p.PainLevel,
		})
	}

	summary, cached, err := s.Summary.QueueSummary(c.Request().Context(), ai.QueueInfo{
		TotalPatients:   req.TotalPatients,
		QueuePercentage: req.QueuePercentage,
		AvgWaitMinutes:  req.AvgWaitTime,
		Patients:        patients,
	}, refresh)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, newSummaryResponse(summary, cached))
}

// SummaryCacheStatus reports response cache statistics.
func (s *APIV1Service) SummaryCacheStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"total_cached_items":     s.SummaryCache.Size(),
		"cache_duration_minutes": int(s.Profile.SummaryCacheTTL.Minutes()),
		"service_initialized":    s.Summary.Enabled(),
	})
}

// ClearSummaryCache drops all cached summaries.
func (s *APIV1Service) ClearSummaryCache(c echo.Context) error {
	cleared := s.SummaryCache.Size()
	s.SummaryCache.Clear()
	return c.JSON(http.StatusOK, map[string]any{
		"message":       "Cache cleared successfully",
		"items_cleared": cleared,
	})
}
