package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// PatientStatus tracks where a patient is in the care flow.
type PatientStatus string

const (
	StatusWaiting     PatientStatus = "waiting"
	StatusInTreatment PatientStatus = "in-treatment"
	StatusDischarged  PatientStatus = "discharged"
)

// Patient is the object representing a triaged patient.
type Patient struct {
	ID        int32
	UID       string
	CreatedTs int64
	UpdatedTs int64

	Name           string
	Age            int
	Gender         string
	ArrivalTs      int64
	TriageLevel    int
	ChiefComplaint string

	HeartRate       int
	RespiratoryRate int
	PainLevel       int

	AISummary     *string
	AssignedNurse *string
	Status        PatientStatus
}

// ArrivalTime parses the arrival timestamp to time.Time.
func (p *Patient) ArrivalTime() time.Time {
	return time.Unix(p.ArrivalTs, 0)
}

// FindPatient is the find condition for patient.
type FindPatient struct {
	ID          *int32
	UID         *string
	TriageLevel *int
	Status      *PatientStatus

	// Pagination
	Limit  *int
	Offset *int
}

// UpdatePatient is the update request for patient.
type UpdatePatient struct {
	ID              int32
	Name            *string
	Age             *int
	Gender          *string
	ChiefComplaint  *string
	TriageLevel     *int
	HeartRate       *int
	RespiratoryRate *int
	PainLevel       *int
	AISummary       *string
	AssignedNurse   *string
	Status          *PatientStatus
}

// DeletePatient is the delete request for patient.
type DeletePatient struct {
	ID int32

	// UID, when set, lets the store invalidate its read cache.
	UID string
}

// CreatePatient creates a new patient. A UID is assigned when the caller
// does not provide one.
func (s *Store) CreatePatient(ctx context.Context, create *Patient) (*Patient, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.Status == "" {
		create.Status = StatusWaiting
	}
	if create.ArrivalTs == 0 {
		create.ArrivalTs = time.Now().Unix()
	}

	patient, err := s.driver.CreatePatient(ctx, create)
	if err != nil {
		return nil, err
	}
	s.patientCache.Set(patient.UID, patient)
	return patient, nil
}

// ListPatients lists patients with filter.
func (s *Store) ListPatients(ctx context.Context, find *FindPatient) ([]*Patient, error) {
	return s.driver.ListPatients(ctx, find)
}

// GetPatient gets a single patient. Lookups by UID are served from the read
// cache when possible.
func (s *Store) GetPatient(ctx context.Context, find *FindPatient) (*Patient, error) {
	if find.UID != nil && find.ID == nil && find.TriageLevel == nil && find.Status == nil {
		if cached, ok := s.patientCache.Get(*find.UID); ok {
			if patient, ok := cached.(*Patient); ok {
				return patient, nil
			}
		}
	}

	list, err := s.driver.ListPatients(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	patient := list[0]
	s.patientCache.Set(patient.UID, patient)
	return patient, nil
}

// UpdatePatient updates a patient and refreshes the read cache.
func (s *Store) UpdatePatient(ctx context.Context, update *UpdatePatient) (*Patient, error) {
	patient, err := s.driver.UpdatePatient(ctx, update)
	if err != nil {
		return nil, err
	}
	s.patientCache.Set(patient.UID, patient)
	return patient, nil
}

// DeletePatient deletes a patient.
func (s *Store) DeletePatient(ctx context.Context, delete *DeletePatient) error {
	if err := s.driver.DeletePatient(ctx, delete); err != nil {
		return err
	}
	if delete.UID != "" {
		s.patientCache.Delete(delete.UID)
	}
	return nil
}

// PatientService is the patient persistence seam consumed by the interview
// engine's record creator.
type PatientService interface {
	CreatePatient(ctx context.Context, create *Patient) (*Patient, error)
	ListPatients(ctx context.Context, find *FindPatient) ([]*Patient, error)
	GetPatient(ctx context.Context, find *FindPatient) (*Patient, error)
	UpdatePatient(ctx context.Context, update *UpdatePatient) (*Patient, error)
	DeletePatient(ctx context.Context, delete *DeletePatient) error
}

var _ PatientService = (*Store)(nil)
