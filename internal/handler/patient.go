// This file implements the patient registry endpoints: registration,
// search, detail with visit history, life-status updates and removal.
// Store-layer errors are translated to inline JSON messages here;
// nothing propagates as a process-terminating failure.
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

// PatientStore is the registry surface the handler needs. The
// repository's PatientRepo satisfies this; tests substitute fakes.
type PatientStore interface {
	Create(ctx context.Context, p model.Patient) (model.Patient, error)
	GetByID(ctx context.Context, id uint64) (model.Patient, error)
	Search(ctx context.Context, term string) ([]model.Patient, error)
	UpdateStatus(ctx context.Context, id uint64, status string, handlerUser *string) error
	Delete(ctx context.Context, id uint64) ([]string, error)
}

// VisitReader provides the visit history shown on a patient's detail
// view.
type VisitReader interface {
	HistoryByPatient(ctx context.Context, patientID uint64) ([]model.Visit, error)
}

// PatientHandler bundles dependencies for patient endpoints.
type PatientHandler struct {
	Patients PatientStore
	Visits   VisitReader
	Files    upload.FileStore
	Audit    AuditPublisher
}

func NewPatientHandler(p PatientStore, v VisitReader, f upload.FileStore) *PatientHandler {
	return &PatientHandler{Patients: p, Visits: v, Files: f, Audit: brokerPublisher{}}
}

// ----- DTOs -----

type registerPatientReq struct {
	Name      string `json:"name"`
	DOB       string `json:"dob"`
	Gender    string `json:"gender"`
	Diagnosis string `json:"diagnosis"`
	Notes     string `json:"notes"`
	Status    string `json:"status"` // ALIVE | BORN_HERE
}

type updateStatusReq struct {
	Status string `json:"status"`
}

type patientResp struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	DOB         string  `json:"dob"`
	Gender      string  `json:"gender"`
	Diagnosis   string  `json:"diagnosis"`
	Notes       string  `json:"notes"`
	Status      string  `json:"status"`
	HandlerUser *string `json:"handler_user,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func toPatientResp(p model.Patient) patientResp {
	return patientResp{
		ID:          p.ID,
		Name:        p.Name,
		DOB:         p.DOB,
		Gender:      p.Gender,
		Diagnosis:   p.Diagnosis,
		Notes:       p.Notes,
		Status:      p.Status,
		HandlerUser: p.HandlerUser,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// validDate reports whether s is a well-formed YYYY-MM-DD date.
func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// Register handles POST /v1/patients. A new patient starts as ALIVE
// or BORN_HERE; the acting user is recorded as handler only for
// BORN_HERE. The store itself does not cross-check handler against
// status — that pairing is this handler's responsibility.
func (h *PatientHandler) Register(c echo.Context) error {
	var req registerPatientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if !validDate(req.DOB) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dob must be YYYY-MM-DD"})
	}
	if req.Status == "" {
		req.Status = model.StatusAlive
	}
	if req.Status != model.StatusAlive && req.Status != model.StatusBornHere {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "initial status must be ALIVE or BORN_HERE"})
	}

	var handlerUser *string
	if req.Status == model.StatusBornHere {
		u := middleware.Username(c)
		handlerUser = &u
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Patients.Create(ctx, model.Patient{
		Name:        req.Name,
		DOB:         req.DOB,
		Gender:      req.Gender,
		Diagnosis:   req.Diagnosis,
		Notes:       req.Notes,
		Status:      req.Status,
		HandlerUser: handlerUser,
	})
	if err != nil {
		if err == repository.ErrDuplicatePatient {
			return c.JSON(http.StatusConflict, echo.Map{"error": "patient with this name and date of birth already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create patient failed"})
	}

	metrics.PatientsRegisteredTotal.Inc()
	return c.JSON(http.StatusCreated, toPatientResp(p))
}

// List handles GET /v1/patients?q=term. The term matches name and
// diagnosis case-insensitively; an empty term returns every patient.
func (h *PatientHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	patients, err := h.Patients.Search(ctx, c.QueryParam("q"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]patientResp, 0, len(patients))
	for _, p := range patients {
		out = append(out, toPatientResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"patients": out})
}

// Get handles GET /v1/patients/:id and returns the patient together
// with its visit history.
func (h *PatientHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Patients.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	visits, err := h.Visits.HistoryByPatient(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	vout := make([]visitResp, 0, len(visits))
	for _, v := range visits {
		vout = append(vout, toVisitResp(v))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"patient": toPatientResp(p),
		"visits":  vout,
	})
}

// UpdateStatus handles PATCH /v1/patients/:id/status. The overwrite
// is unconditional — any known status can be written over any other,
// and repeating the same update is a no-op. The acting user is
// recorded as the handler of the change.
func (h *PatientHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !model.KnownStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	username := middleware.Username(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Patients.UpdateStatus(ctx, id, req.Status, &username); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	// Best-effort audit event; the store row is the source of truth.
	_ = h.Audit.StatusChanged(ctx, queue.StatusChangedEvent{
		PatientID:   id,
		Status:      req.Status,
		HandlerUser: username,
		ChangedAt:   time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": req.Status, "handler_user": username})
}

// Delete handles DELETE /v1/patients/:id. The store cascades the
// removal through visits, tags and document rows; the stored
// attachment files are removed here, best-effort, from the paths the
// store reports back.
func (h *PatientHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	paths, err := h.Patients.Delete(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	for _, p := range paths {
		_ = h.Files.Remove(p)
	}
	return c.NoContent(http.StatusNoContent)
}
