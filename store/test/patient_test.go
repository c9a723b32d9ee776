package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/triageai/voicetriage/store"
)

func TestPatientStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreatePatient(ctx, &store.Patient{
		Name:            "John Smith",
		Age:             45,
		Gender:          "Male",
		TriageLevel:     1,
		ChiefComplaint:  "severe chest pain",
		HeartRate:       80,
		RespiratoryRate: 16,
		PainLevel:       5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.UID)
	require.Greater(t, created.ID, int32(0))
	require.Equal(t, store.StatusWaiting, created.Status)
	require.NotZero(t, created.ArrivalTs)
	require.NotZero(t, created.CreatedTs)

	// Lookup by uid, twice to exercise the read cache.
	for i := 0; i < 2; i++ {
		found, err := ts.GetPatient(ctx, &store.FindPatient{UID: &created.UID})
		require.NoError(t, err)
		require.NotNil(t, found)
		require.Equal(t, created.ID, found.ID)
		require.Equal(t, "John Smith", found.Name)
	}

	// Unknown uid resolves to nil, not an error.
	missing := "does-not-exist"
	found, err := ts.GetPatient(ctx, &store.FindPatient{UID: &missing})
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestPatientStoreUpdate(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreatePatient(ctx, &store.Patient{
		Name:           "Jane Doe",
		Age:            30,
		Gender:         "Female",
		TriageLevel:    4,
		ChiefComplaint: "mild headache",
	})
	require.NoError(t, err)

	summary := "Patient stable, symptoms mild."
	nurse := "Nurse Chen"
	inTreatment := store.StatusInTreatment
	level := 3
	updated, err := ts.UpdatePatient(ctx, &store.UpdatePatient{
		ID:            created.ID,
		TriageLevel:   &level,
		AISummary:     &summary,
		AssignedNurse: &nurse,
		Status:        &inTreatment,
	})
	require.NoError(t, err)
	require.Equal(t, 3, updated.TriageLevel)
	require.Equal(t, store.StatusInTreatment, updated.Status)
	require.NotNil(t, updated.AISummary)
	require.Equal(t, summary, *updated.AISummary)
	require.NotNil(t, updated.AssignedNurse)
	require.Equal(t, nurse, *updated.AssignedNurse)

	// Untouched fields survive the partial update.
	require.Equal(t, "Jane Doe", updated.Name)
	require.Equal(t, 30, updated.Age)

	// The read cache reflects the update.
	found, err := ts.GetPatient(ctx, &store.FindPatient{UID: &created.UID})
	require.NoError(t, err)
	require.Equal(t, store.StatusInTreatment, found.Status)

	_, err = ts.UpdatePatient(ctx, &store.UpdatePatient{ID: 9999, TriageLevel: &level})
	require.Error(t, err)
}

func TestPatientStoreListOrdering(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	for _, p := range []struct {
		name    string
		level   int
		arrival int64
	}{
		{"Low Urgency", 5, 100},
		{"Critical", 1, 300},
		{"Mid Later", 3, 400},
		{"Mid Early", 3, 200},
	} {
		_, err := ts.CreatePatient(ctx, &store.Patient{
			Name:           p.name,
			Age:            40,
			Gender:         "Other",
			TriageLevel:    p.level,
			ChiefComplaint: "test complaint",
			ArrivalTs:      p.arrival,
		})
		require.NoError(t, err)
	}

	list, err := ts.ListPatients(ctx, &store.FindPatient{})
	require.NoError(t, err)
	require.Len(t, list, 4)
	require.Equal(t, "Critical", list[0].Name)
	require.Equal(t, "Mid Early", list[1].Name)
	require.Equal(t, "Mid Later", list[2].Name)
	require.Equal(t, "Low Urgency", list[3].Name)

	waiting := store.StatusWaiting
	list, err = ts.ListPatients(ctx, &store.FindPatient{Status: &waiting})
	require.NoError(t, err)
	require.Len(t, list, 4)

	level := 3
	list, err = ts.ListPatients(ctx, &store.FindPatient{TriageLevel: &level})
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestPatientStoreDelete(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreatePatient(ctx, &store.Patient{
		Name:           "To Remove",
		Age:            50,
		Gender:         "Male",
		TriageLevel:    5,
		ChiefComplaint: "follow-up visit",
	})
	require.NoError(t, err)

	err = ts.DeletePatient(ctx, &store.DeletePatient{ID: created.ID, UID: created.UID})
	require.NoError(t, err)

	found, err := ts.GetPatient(ctx, &store.FindPatient{UID: &created.UID})
	require.NoError(t, err)
	require.Nil(t, found)

	err = ts.DeletePatient(ctx, &store.DeletePatient{ID: created.ID})
	require.Error(t, err)
}

func TestPatientServiceSeam(t *testing.T) {
	ctx := context.Background()
	var svc store.PatientService = NewTestingStore(ctx, t)

	created, err := svc.CreatePatient(ctx, &store.Patient{
		Name: "Seam Patient",
		Age:  33,
	})
	require.NoError(t, err)

	found, err := svc.GetPatient(ctx, &store.FindPatient{UID: &created.UID})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "Seam Patient", found.Name)

	require.NoError(t, svc.DeletePatient(ctx, &store.DeletePatient{ID: created.ID, UID: created.UID}))
	found, err = svc.GetPatient(ctx, &store.FindPatient{UID: &created.UID})
	require.NoError(t, err)
	require.Nil(t, found)
}
