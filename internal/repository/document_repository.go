// This file records metadata for files attached to visits. The bytes
// themselves live in the upload store; only {file_name, file_path}
// pairs are persisted here. Duplicate uploads create duplicate rows.
package repository

import (
	"context"
	"database/sql"

	"github.com/patientdex/patient-dex/internal/model"
)

// DocumentRepo encapsulates database queries for visit attachments.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo returns a new DocumentRepo bound to the given database.
func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{db: db} }

// Create records an attachment for a visit. A visit_id that
// references no visit fails with ErrUnknownVisit.
func (r *DocumentRepo) Create(ctx context.Context, visitID uint64, fileName, filePath string) (model.Document, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO documents (visit_id, file_name, file_path) VALUES (?, ?, ?)",
		visitID, fileName, filePath)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.Document{}, ErrUnknownVisit
		}
		return model.Document{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Document{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches one attachment's metadata. A miss yields
// sql.ErrNoRows.
func (r *DocumentRepo) GetByID(ctx context.Context, id uint64) (model.Document, error) {
	var d model.Document
	err := r.db.QueryRowContext(ctx,
		`SELECT id, visit_id, file_name, file_path, uploaded_at
		 FROM documents WHERE id=? LIMIT 1`, id).
		Scan(&d.ID, &d.VisitID, &d.FileName, &d.FilePath, &d.UploadedAt)
	return d, err
}

// ListByVisit returns the attachments of a visit in upload order.
func (r *DocumentRepo) ListByVisit(ctx context.Context, visitID uint64) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, visit_id, file_name, file_path, uploaded_at
		 FROM documents WHERE visit_id=? ORDER BY id`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Document{}
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.VisitID, &d.FileName, &d.FilePath, &d.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
