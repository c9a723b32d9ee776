package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/triageai/voicetriage/store"
)

// Vitals mirrors the wire shape the dashboard expects.
type Vitals struct {
	HeartRate       int `json:"heartRate"`
	RespiratoryRate int `json:"respiratoryRate"`
	PainLevel       int `json:"painLevel"`
}

// PatientPayload is the wire representation of a patient.
type PatientPayload struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"`
	ArrivalTime    time.Time `json:"arrivalTime"`
	TriageLevel    int       `json:"triageLevel"`
	ChiefComplaint string    `json:"chiefComplaint"`
	Vitals         Vitals    `json:"vitals"`
	AISummary      *string   `json:"aiSummary,omitempty"`
	AssignedNurse  *string   `json:"assignedNurse,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type createPatientRequest struct {
	Name           string  `json:"name"`
	Age            int     `json:"age"`
	Gender         string  `json:"gender"`
	ChiefComplaint string  `json:"chiefComplaint"`
	Vitals         *Vitals `json:"vitals"`
	TriageLevel    *int    `json:"triageLevel"`
}

type updatePatientRequest struct {
	Name           *string `json:"name"`
	Age            *int    `json:"age"`
	Gender         *string `json:"gender"`
	ChiefComplaint *string `json:"chiefComplaint"`
	Vitals         *Vitals `json:"vitals"`
	TriageLevel    *int    `json:"triageLevel"`
	AISummary      *string `json:"aiSummary"`
	AssignedNurse  *string `json:"assignedNurse"`
	Status         *string `json:"status"`
}

func toPatientPayload(p *store.Patient) *PatientPayload {
	return &PatientPayload{
		ID:             p.UID,
		Name:           p.Name,
		Age:            p.Age,
		Gender:         p.Gender,
		ArrivalTime:    p.ArrivalTime(),
		TriageLevel:    p.TriageLevel,
		ChiefComplaint: p.ChiefComplaint,
		Vitals: Vitals{
			HeartRate:       p.HeartRate,
			RespiratoryRate: p.RespiratoryRate,
			PainLevel:       p.PainLevel,
		},
		AISummary:     p.AISummary,
		AssignedNurse: p.AssignedNurse,
		Status:        string(p.Status),
		CreatedAt:     time.Unix(p.CreatedTs, 0),
		UpdatedAt:     time.Unix(p.UpdatedTs, 0),
	}
}

// CreatePatient registers a patient directly, bypassing the interview.
func (s *APIV1Service) CreatePatient(c echo.Context) error {
	var req createPatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if req.Age < 0 || req.Age > 120 {
		return echo.NewHTTPError(http.StatusBadRequest, "age must be between 0 and 120")
	}

	create := &store.Patient{
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		ChiefComplaint: req.ChiefComplaint,
		TriageLevel:    3, // urgent by default
	}
	if req.TriageLevel != nil {
		create.TriageLevel = *req.TriageLevel
	}
	if req.Vitals != nil {
		create.HeartRate = req.Vitals.HeartRate
		create.RespiratoryRate = req.Vitals.RespiratoryRate
		create.PainLevel = req.Vitals.PainLevel
	}

	patient, err := s.Store.CreatePatient(c.Request().Context(), create)
	if err != nil {
		return errorResponse(c, err)
	}

	s.broadcastPatientUpdate("created", patient)
	return c.JSON(http.StatusCreated, toPatientPayload(patient))
}

// ListPatients returns all patients ordered by urgency then arrival.
func (s *APIV1Service) ListPatients(c echo.Context) error {
	find := &store.FindPatient{}
	if v := c.QueryParam("status"); v != "" {
		status := store.PatientStatus(v)
		find.Status = &status
	}

	patients, err := s.Store.ListPatients(c.Request().Context(), find)
	if err != nil {
		return errorResponse(c, err)
	}

	payloads := make([]*PatientPayload, 0, len(patients))
	for _, p := range patients {
		payloads = append(payloads, toPatientPayload(p))
	}
	return c.JSON(http.StatusOK, payloads)
}

// GetPatient returns a single patient by id.
func (s *APIV1Service) GetPatient(c echo.Context) error {
	uid := c.Param("patientId")
	patient, err := s.Store.GetPatient(c.Request().Context(), &store.FindPatient{UID: &uid})
	if err != nil {
		return errorResponse(c, err)
	}
	if patient == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, toPatientPayload(patient))
}

// UpdatePatient applies a partial update.
func (s *APIV1Service) UpdatePatient(c echo.Context) error {
	uid := c.Param("patientId")
	ctx := c.Request().Context()

	patient, err := s.Store.GetPatient(ctx, &store.FindPatient{UID: &uid})
	if err != nil {
		return errorResponse(c, err)
	}
	if patient == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}

	var req updatePatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	update := &store.UpdatePatient{
		ID:             patient.ID,
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		ChiefComplaint: req.ChiefComplaint,
		TriageLevel:    req.TriageLevel,
		AISummary:      req.AISummary,
		AssignedNurse:  req.AssignedNurse,
	}
	if req.Vitals != nil {
		update.HeartRate = &req.Vitals.HeartRate
		update.RespiratoryRate = &req.Vitals.RespiratoryRate
		update.PainLevel = &req.Vitals.PainLevel
	}
	if req.Status != nil {
		status := store.PatientStatus(*req.Status)
		update.Status = &status
	}

	updated, err := s.Store.UpdatePatient(ctx, update)
	if err != nil {
		return errorResponse(c, err)
	}

	s.broadcastPatientUpdate("updated", updated)
	return c.JSON(http.StatusOK, toPatientPayload(updated))
}

// DeletePatient removes a patient.
func (s *APIV1Service) DeletePatient(c echo.Context) error {
	uid := c.Param("patientId")
	ctx := c.Request().Context()

	patient, err := s.Store.GetPatient(ctx, &store.FindPatient{UID: &uid})
	if err != nil {
		return errorResponse(c, err)
	}
	if patient == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}

	if err := s.Store.DeletePatient(ctx, &store.DeletePatient{ID: patient.ID, UID: patient.UID}); err != nil {
		return errorResponse(c, err)
	}

	s.broadcastPatientUpdate("deleted", patient)
	return c.NoContent(http.StatusNoContent)
}

// broadcastPatientUpdate pushes the change to dashboard WebSocket clients.
func (s *APIV1Service) broadcastPatientUpdate(action string, patient *store.Patient) {
	s.connManager.BroadcastToType(ConnectionDashboard, map[string]any{
		"type":      "patient_update",
		"action":    action,
		"data":      toPatientPayload(patient),
		"timestamp": time.Now().Unix(),
	})
}
