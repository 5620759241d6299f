// This file implements the visit ledger. Visits are append-only: the
// repository exposes creation and ordered history, nothing else. A
// visit's procedure tags live in the visit_tags join table, one row
// per occurrence, ordered by position, so duplicates and ordering
// survive round trips.
package repository

import (
	"context"
	"database/sql"

	"github.com/patientdex/patient-dex/internal/model"
)

// VisitRepo encapsulates database queries for visits and their tags.
type VisitRepo struct {
	db *sql.DB
}

// NewVisitRepo returns a new VisitRepo bound to the given database.
func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{db: db} }

// Create appends a visit and its tag rows in one transaction. A
// patient_id that references no patient fails with ErrUnknownPatient
// and leaves the ledger unchanged. Tags are written in the order
// given, duplicates included.
func (r *VisitRepo) Create(ctx context.Context, v model.Visit) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	const qInsert = `INSERT INTO visits (patient_id, visit_date, reason, outcome, progress_status)
		VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert,
		v.PatientID, v.VisitDate, v.Reason, v.Outcome, v.ProgressStatus)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, ErrUnknownPatient
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := insertTagsTx(ctx, tx, uint64(id), v.Tags); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// insertTagsTx bulk-inserts the visit_tags rows for one visit inside
// the given transaction. Passing an empty slice has no effect.
func insertTagsTx(ctx context.Context, tx *sql.Tx, visitID uint64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	query := `INSERT INTO visit_tags (visit_id, position, tag) VALUES `
	args := make([]any, 0, len(tags)*3)
	for i, tag := range tags {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, visitID, i, tag)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID fetches a single visit with its tags. A miss yields
// sql.ErrNoRows.
func (r *VisitRepo) GetByID(ctx context.Context, id uint64) (model.Visit, error) {
	var v model.Visit
	err := r.db.QueryRowContext(ctx,
		`SELECT id, patient_id, visit_date, reason, outcome, progress_status, created_at
		 FROM visits WHERE id=? LIMIT 1`, id).
		Scan(&v.ID, &v.PatientID, &v.VisitDate, &v.Reason, &v.Outcome,
			&v.ProgressStatus, &v.CreatedAt)
	if err != nil {
		return model.Visit{}, err
	}
	tags, err := r.tagsFor(ctx, []uint64{v.ID})
	if err != nil {
		return model.Visit{}, err
	}
	v.Tags = tags[v.ID]
	return v, nil
}

// HistoryByPatient returns a patient's visits ordered by visit date
// ascending, ties broken by insertion order (id).
func (r *VisitRepo) HistoryByPatient(ctx context.Context, patientID uint64) ([]model.Visit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, patient_id, visit_date, reason, outcome, progress_status, created_at
		 FROM visits WHERE patient_id=? ORDER BY visit_date ASC, id ASC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visits := []model.Visit{}
	ids := []uint64{}
	for rows.Next() {
		var v model.Visit
		if err := rows.Scan(&v.ID, &v.PatientID, &v.VisitDate, &v.Reason,
			&v.Outcome, &v.ProgressStatus, &v.CreatedAt); err != nil {
			return nil, err
		}
		visits = append(visits, v)
		ids = append(ids, v.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := r.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range visits {
		visits[i].Tags = tags[visits[i].ID]
	}
	return visits, nil
}

// tagsFor loads the ordered tag lists for a set of visit ids in one
// query.
func (r *VisitRepo) tagsFor(ctx context.Context, visitIDs []uint64) (map[uint64][]string, error) {
	out := map[uint64][]string{}
	if len(visitIDs) == 0 {
		return out, nil
	}
	query := "SELECT visit_id, tag FROM visit_tags WHERE visit_id IN ("
	args := make([]any, 0, len(visitIDs))
	for i, id := range visitIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ") ORDER BY visit_id, position"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			visitID uint64
			tag     string
		)
		if err := rows.Scan(&visitID, &tag); err != nil {
			return nil, err
		}
		out[visitID] = append(out[visitID], tag)
	}
	return out, rows.Err()
}
