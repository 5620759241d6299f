// This file implements the patient registry: registration with
// duplicate detection on the (name, dob) pair, lookup, substring
// search, life-status transitions and cascading removal. All queries
// run against the patients table defined in internal/database.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/patientdex/patient-dex/internal/model"
)

// PatientRepo encapsulates all database queries related to patients.
type PatientRepo struct {
	db *sql.DB
}

// NewPatientRepo constructs a PatientRepo with the provided DB handle.
func NewPatientRepo(db *sql.DB) *PatientRepo {
	return &PatientRepo{db: db}
}

const patientColumns = "id, name, dob, gender, diagnosis, notes, status, handler_user, created_at"

// scanPatient reads one patient row from a row scanner.
func scanPatient(row interface{ Scan(...any) error }) (model.Patient, error) {
	var (
		p       model.Patient
		handler sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.DOB, &p.Gender, &p.Diagnosis, &p.Notes,
		&p.Status, &handler, &p.CreatedAt)
	if err != nil {
		return model.Patient{}, err
	}
	if handler.Valid {
		h := handler.String
		p.HandlerUser = &h
	}
	return p, nil
}

// Create inserts a new patient. The (name, dob) pair is unique;
// violating it returns ErrDuplicatePatient and writes nothing. The
// registry does not cross-check HandlerUser against Status: the
// caller decides when a handler is recorded.
func (r *PatientRepo) Create(ctx context.Context, p model.Patient) (model.Patient, error) {
	const qInsert = `INSERT INTO patients (name, dob, gender, diagnosis, notes, status, handler_user)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert,
		p.Name, p.DOB, p.Gender, p.Diagnosis, p.Notes, p.Status, p.HandlerUser)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Patient{}, ErrDuplicatePatient
		}
		return model.Patient{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Patient{}, err
	}
	// Query the row back so the caller receives defaults (created_at).
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a patient by id. A miss yields sql.ErrNoRows.
func (r *PatientRepo) GetByID(ctx context.Context, id uint64) (model.Patient, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE id=? LIMIT 1", id)
	return scanPatient(row)
}

// Search returns patients whose name or diagnosis contains the term,
// case-insensitively. An empty term returns every patient.
func (r *PatientRepo) Search(ctx context.Context, term string) ([]model.Patient, error) {
	q := "SELECT " + patientColumns + " FROM patients"
	args := []any{}
	term = strings.TrimSpace(term)
	if term != "" {
		q += " WHERE LOWER(name) LIKE ? OR LOWER(diagnosis) LIKE ?"
		like := "%" + strings.ToLower(term) + "%"
		args = append(args, like, like)
	}
	q += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateStatus overwrites a patient's life status and handler user.
// The overwrite is unconditional: no transition guard is applied, and
// repeating the same update converges on the same state. A missing
// patient yields sql.ErrNoRows.
func (r *PatientRepo) UpdateStatus(ctx context.Context, id uint64, status string, handlerUser *string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE patients SET status=?, handler_user=? WHERE id=?",
		status, handlerUser, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows for a no-op update as well;
		// distinguish "already in that state" from "no such patient".
		var exists int
		err := r.db.QueryRowContext(ctx,
			"SELECT 1 FROM patients WHERE id=? LIMIT 1", id).Scan(&exists)
		if err != nil {
			return err // sql.ErrNoRows when the patient is missing
		}
	}
	return nil
}

// Delete removes a patient; visits, their tags and document rows go
// with it via cascade. It returns the stored file paths of every
// document that belonged to the patient's visits so the caller can
// remove the files from disk. A missing patient yields sql.ErrNoRows.
func (r *PatientRepo) Delete(ctx context.Context, id uint64) ([]string, error) {
	const qPaths = `SELECT d.file_path FROM documents d
		JOIN visits v ON v.id = d.visit_id
		WHERE v.patient_id = ?`
	rows, err := r.db.QueryContext(ctx, qPaths, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, "DELETE FROM patients WHERE id=?", id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, sql.ErrNoRows
	}
	return paths, nil
}
