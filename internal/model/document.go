package model

import "time"

// Document models a file attached to a visit, as stored in the
// `documents` table. The bytes live in the upload directory under a
// generated name; only metadata is kept in the database. There is no
// content hashing or dedup: uploading the same file twice creates two
// rows and two stored files.
//
// Fields:
//  ID         – primary key identifier.
//  VisitID    – owning visit (required, cascade on delete).
//  FileName   – original name of the uploaded file.
//  FilePath   – path of the stored copy under the upload directory.
//  UploadedAt – timestamp of upload.
type Document struct {
	ID         uint64    // documents.id
	VisitID    uint64    // documents.visit_id
	FileName   string    // documents.file_name
	FilePath   string    // documents.file_path
	UploadedAt time.Time // documents.uploaded_at
}
