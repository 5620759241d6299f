// This file implements the visit ledger and document attachment
// endpoints. Visits are append-only; documents are multipart uploads
// whose bytes go to the upload store and whose metadata goes to the
// document store.
package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/patientdex/patient-dex/internal/metrics"
	"github.com/patientdex/patient-dex/internal/middleware"
	"github.com/patientdex/patient-dex/internal/model"
	"github.com/patientdex/patient-dex/internal/queue"
	"github.com/patientdex/patient-dex/internal/repository"
	"github.com/patientdex/patient-dex/internal/upload"
)

// VisitStore is the ledger surface the handler needs.
type VisitStore interface {
	Create(ctx context.Context, v model.Visit) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Visit, error)
	HistoryByPatient(ctx context.Context, patientID uint64) ([]model.Visit, error)
}

// DocumentStore records and lists attachment metadata.
type DocumentStore interface {
	Create(ctx context.Context, visitID uint64, fileName, filePath string) (model.Document, error)
	GetByID(ctx context.Context, id uint64) (model.Document, error)
	ListByVisit(ctx context.Context, visitID uint64) ([]model.Document, error)
}

// VisitHandler bundles dependencies for visit and document endpoints.
type VisitHandler struct {
	Visits    VisitStore
	Documents DocumentStore
	Files     upload.FileStore
	Audit     AuditPublisher
}

func NewVisitHandler(v VisitStore, d DocumentStore, f upload.FileStore) *VisitHandler {
	return &VisitHandler{Visits: v, Documents: d, Files: f, Audit: brokerPublisher{}}
}

// ----- DTOs -----

type addVisitReq struct {
	VisitDate string   `json:"visit_date"`
	Reason    string   `json:"reason"`
	Outcome   string   `json:"outcome"`
	Progress  string   `json:"progress"`
	Tags      []string `json:"tags"`
}

type visitResp struct {
	ID        uint64   `json:"id"`
	PatientID uint64   `json:"patient_id"`
	VisitDate string   `json:"visit_date"`
	Reason    string   `json:"reason"`
	Outcome   string   `json:"outcome"`
	Progress  string   `json:"progress"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
}

func toVisitResp(v model.Visit) visitResp {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	return visitResp{
		ID:        v.ID,
		PatientID: v.PatientID,
		VisitDate: v.VisitDate,
		Reason:    v.Reason,
		Outcome:   v.Outcome,
		Progress:  v.ProgressStatus,
		Tags:      tags,
		CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type documentResp struct {
	ID         uint64 `json:"id"`
	VisitID    uint64 `json:"visit_id"`
	FileName   string `json:"file_name"`
	UploadedAt string `json:"uploaded_at"`
}

func toDocumentResp(d model.Document) documentResp {
	return documentResp{
		ID:         d.ID,
		VisitID:    d.VisitID,
		FileName:   d.FileName,
		UploadedAt: d.UploadedAt.UTC().Format(time.RFC3339),
	}
}

// Add handles POST /v1/patients/:id/visits. Tags must come from the
// fixed vocabulary; their order is preserved and duplicates within
// one visit are kept as given. An unknown patient leaves the ledger
// unchanged and returns 404.
func (h *VisitHandler) Add(c echo.Context) error {
	patientID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req addVisitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !validDate(req.VisitDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "visit_date must be YYYY-MM-DD"})
	}
	if !model.KnownProgress(req.Progress) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown progress status"})
	}
	for _, t := range req.Tags {
		if !model.KnownTag(t) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown tag: " + t})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	visitID, err := h.Visits.Create(ctx, model.Visit{
		PatientID:      patientID,
		VisitDate:      req.VisitDate,
		Reason:         req.Reason,
		Outcome:        req.Outcome,
		ProgressStatus: req.Progress,
		Tags:           req.Tags,
	})
	if err != nil {
		if err == repository.ErrUnknownPatient {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create visit failed"})
	}

	metrics.VisitsRecordedTotal.Inc()
	_ = h.Audit.VisitRecorded(ctx, queue.VisitRecordedEvent{
		VisitID:    visitID,
		PatientID:  patientID,
		VisitDate:  req.VisitDate,
		Progress:   req.Progress,
		Tags:       req.Tags,
		RecordedBy: middleware.Username(c),
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"visit_id": visitID})
}

// History handles GET /v1/patients/:id/visits, ordered by visit date
// ascending with insertion order breaking ties.
func (h *VisitHandler) History(c echo.Context) error {
	patientID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	visits, err := h.Visits.HistoryByPatient(ctx, patientID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]visitResp, 0, len(visits))
	for _, v := range visits {
		out = append(out, toVisitResp(v))
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": out})
}

// Attach handles POST /v1/visits/:id/documents. One or more files are
// accepted under the "files" multipart field. Bytes are written to
// the upload store first, then metadata is recorded; the two writes
// are not one transaction. No size limit, no type validation, no
// dedup — duplicate uploads create duplicate rows and files.
func (h *VisitHandler) Attach(c echo.Context) error {
	visitID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "multipart form required"})
	}
	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no files attached"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	out := []documentResp{}
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read upload failed"})
		}
		path, err := h.Files.Save(fh.Filename, src)
		_ = src.Close()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store file failed"})
		}

		doc, err := h.Documents.Create(ctx, visitID, fh.Filename, path)
		if err != nil {
			// The stored bytes are unreferenced without a metadata row;
			// remove them best-effort before reporting the failure.
			_ = h.Files.Remove(path)
			if err == repository.ErrUnknownVisit {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "visit not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save document failed"})
		}
		metrics.DocumentsUploadedTotal.Inc()
		out = append(out, toDocumentResp(doc))
	}
	return c.JSON(http.StatusCreated, echo.Map{"documents": out})
}

// ListDocuments handles GET /v1/visits/:id/documents.
func (h *VisitHandler) ListDocuments(c echo.Context) error {
	visitID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	docs, err := h.Documents.ListByVisit(ctx, visitID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]documentResp, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResp(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"documents": out})
}

// Download handles GET /v1/documents/:id and streams the stored file
// back under its original upload name. A metadata row whose file has
// gone missing (crash between the two writes) yields 404 rather than
// a broken stream.
func (h *VisitHandler) Download(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.Documents.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	f, err := h.Files.Open(doc.FilePath)
	if err != nil {
		if err == upload.ErrFileNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "stored file missing"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "open file failed"})
	}
	defer f.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="`+doc.FileName+`"`)
	return c.Stream(http.StatusOK, echo.MIMEOctetStream, f)
}
