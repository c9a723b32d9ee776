package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/triageai/voicetriage/store"
)

func (d *DB) CreatePatient(ctx context.Context, create *store.Patient) (*store.Patient, error) {
	fields := []string{
		"uid", "name", "age", "gender", "arrival_ts", "triage_level", "chief_complaint",
		"heart_rate", "respiratory_rate", "pain_level", "status",
	}
	placeholderValues := []any{
		create.UID, create.Name, create.Age, create.Gender, create.ArrivalTs, create.TriageLevel, create.ChiefComplaint,
		create.HeartRate, create.RespiratoryRate, create.PainLevel, create.Status,
	}

	if create.AISummary != nil {
		fields = append(fields, "ai_summary")
		placeholderValues = append(placeholderValues, *create.AISummary)
	}
	if create.AssignedNurse != nil {
		fields = append(fields, "assigned_nurse")
		placeholderValues = append(placeholderValues, *create.AssignedNurse)
	}

	stmt := `INSERT INTO patient (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts, updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	return create, nil
}

func (d *DB) ListPatients(ctx context.Context, find *store.FindPatient) ([]*store.Patient, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "patient.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "patient.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.TriageLevel; v != nil {
		where, args = append(where, "patient.triage_level = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "patient.status = "+placeholder(len(args)+1)), append(args, *v)
	}

	// Most urgent first, then earliest arrival.
	orderBy := "ORDER BY patient.triage_level ASC, patient.arrival_ts ASC"

	query := `
		SELECT
			id, uid, created_ts, updated_ts,
			name, age, gender, arrival_ts, triage_level, chief_complaint,
			heart_rate, respiratory_rate, pain_level,
			ai_summary, assigned_nurse, status
		FROM patient
		WHERE ` + strings.Join(where, " AND ") + ` ` + orderBy

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Patient, 0)
	for rows.Next() {
		var patient store.Patient
		var aiSummary, assignedNurse sql.NullString

		if err := rows.Scan(
			&patient.ID,
			&patient.UID,
			&patient.CreatedTs,
			&patient.UpdatedTs,
			&patient.Name,
			&patient.Age,
			&patient.Gender,
			&patient.ArrivalTs,
			&patient.TriageLevel,
			&patient.ChiefComplaint,
			&patient.HeartRate,
			&patient.RespiratoryRate,
			&patient.PainLevel,
			&aiSummary,
			&assignedNurse,
			&patient.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}

		if aiSummary.Valid {
			patient.AISummary = &aiSummary.String
		}
		if assignedNurse.Valid {
			patient.AssignedNurse = &assignedNurse.String
		}

		list = append(list, &patient)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patients: %w", err)
	}

	return list, nil
}

func (d *DB) UpdatePatient(ctx context.Context, update *store.UpdatePatient) (*store.Patient, error) {
	set, args := []string{}, []any{}

	if v := update.Name; v != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Age; v != nil {
		set, args = append(set, "age = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Gender; v != nil {
		set, args = append(set, "gender = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.ChiefComplaint; v != nil {
		set, args = append(set, "chief_complaint = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.TriageLevel; v != nil {
		set, args = append(set, "triage_level = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.HeartRate; v != nil {
		set, args = append(set, "heart_rate = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.RespiratoryRate; v != nil {
		set, args = append(set, "respiratory_rate = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.PainLevel; v != nil {
		set, args = append(set, "pain_level = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.AISummary; v != nil {
		set, args = append(set, "ai_summary = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.AssignedNurse; v != nil {
		set, args = append(set, "assigned_nurse = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Status; v != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *v)
	}

	set = append(set, "updated_ts = (strftime('%s', 'now'))")
	args = append(args, update.ID)

	stmt := `UPDATE patient SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, fmt.Errorf("patient not found")
	}

	id := update.ID
	list, err := d.ListPatients(ctx, &store.FindPatient{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("patient not found")
	}
	return list[0], nil
}

func (d *DB) DeletePatient(ctx context.Context, delete *store.DeletePatient) error {
	stmt := `DELETE FROM patient WHERE id = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("patient not found")
	}

	return nil
}
