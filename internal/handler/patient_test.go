package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/patientdex/patient-dex/internal/model"
	"github.com/patientdex/patient-dex/internal/queue"
	"github.com/patientdex/patient-dex/internal/repository"
	"github.com/patientdex/patient-dex/internal/upload"
)

// fakeAudit collects published events instead of dialing a broker.
type fakeAudit struct {
	visits   []queue.VisitRecordedEvent
	statuses []queue.StatusChangedEvent
}

func (f *fakeAudit) VisitRecorded(_ context.Context, ev queue.VisitRecordedEvent) error {
	f.visits = append(f.visits, ev)
	return nil
}

func (f *fakeAudit) StatusChanged(_ context.Context, ev queue.StatusChangedEvent) error {
	f.statuses = append(f.statuses, ev)
	return nil
}

// fakePatientStore keeps patients in memory and enforces the
// name+dob uniqueness rule the real store gets from its unique index.
type fakePatientStore struct {
	nextID   uint64
	patients map[uint64]model.Patient
	docPaths []string // reported back by Delete
}

func newFakePatientStore() *fakePatientStore {
	return &fakePatientStore{patients: map[uint64]model.Patient{}}
}

func (f *fakePatientStore) Create(_ context.Context, p model.Patient) (model.Patient, error) {
	for _, existing := range f.patients {
		if existing.Name == p.Name && existing.DOB == p.DOB {
			return model.Patient{}, repository.ErrDuplicatePatient
		}
	}
	f.nextID++
	p.ID = f.nextID
	f.patients[p.ID] = p
	return p, nil
}

func (f *fakePatientStore) GetByID(_ context.Context, id uint64) (model.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return model.Patient{}, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakePatientStore) Search(_ context.Context, term string) ([]model.Patient, error) {
	out := []model.Patient{}
	for _, p := range f.patients {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePatientStore) UpdateStatus(_ context.Context, id uint64, status string, handlerUser *string) error {
	p, ok := f.patients[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = status
	p.HandlerUser = handlerUser
	f.patients[id] = p
	return nil
}

func (f *fakePatientStore) Delete(_ context.Context, id uint64) ([]string, error) {
	if _, ok := f.patients[id]; !ok {
		return nil, sql.ErrNoRows
	}
	delete(f.patients, id)
	return f.docPaths, nil
}

// fakeVisitReader serves a canned history.
type fakeVisitReader struct {
	visits []model.Visit
}

func (f *fakeVisitReader) HistoryByPatient(_ context.Context, patientID uint64) ([]model.Visit, error) {
	return f.visits, nil
}

func newPatientHandler(store *fakePatientStore) (*PatientHandler, *fakeAudit) {
	audit := &fakeAudit{}
	return &PatientHandler{
		Patients: store,
		Visits:   &fakeVisitReader{},
		Files:    upload.NewMemStore(),
		Audit:    audit,
	}, audit
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestRegisterPatient(t *testing.T) {
	store := newFakePatientStore()
	h, _ := newPatientHandler(store)

	c, rec := newJSONContext(http.MethodPost, "/v1/patients",
		`{"name":"Jane Doe","dob":"1990-01-02","gender":"Female","diagnosis":"Hypertension"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp patientResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.ID == 0 || resp.Status != model.StatusAlive {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.HandlerUser != nil {
		t.Errorf("an ALIVE registration must not record a handler, got %q", *resp.HandlerUser)
	}
}

func TestRegisterDuplicatePatient(t *testing.T) {
	store := newFakePatientStore()
	h, _ := newPatientHandler(store)

	body := `{"name":"Jane Doe","dob":"1990-01-02"}`
	c, rec := newJSONContext(http.MethodPost, "/v1/patients", body)
	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	c, rec = newJSONContext(http.MethodPost, "/v1/patients", body)
	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if len(store.patients) != 1 {
		t.Fatalf("expected exactly 1 stored patient, got %d", len(store.patients))
	}
}

func TestRegisterBornHereRecordsHandler(t *testing.T) {
	store := newFakePatientStore()
	h, _ := newPatientHandler(store)

	c, rec := newJSONContext(http.MethodPost, "/v1/patients",
		`{"name":"Baby Roe","dob":"2024-02-29","status":"BORN_HERE"}`)
	c.Set("username", "drsmith")
	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp patientResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.HandlerUser == nil || *resp.HandlerUser != "drsmith" {
		t.Fatalf("expected handler_user=drsmith, got %+v", resp.HandlerUser)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	h, _ := newPatientHandler(newFakePatientStore())

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"dob":"1990-01-02"}`},
		{"bad dob", `{"name":"X","dob":"02/01/1990"}`},
		{"deceased at registration", `{"name":"X","dob":"1990-01-02","status":"DECEASED"}`},
		{"unknown status", `{"name":"X","dob":"1990-01-02","status":"UNKNOWN"}`},
	}
	for _, tc := range cases {
		c, rec := newJSONContext(http.MethodPost, "/v1/patients", tc.body)
		if err := h.Register(c); err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

// ---------------------------------------------------------------------------
// Get / UpdateStatus / Delete
// ---------------------------------------------------------------------------

func TestGetUnknownPatient(t *testing.T) {
	h, _ := newPatientHandler(newFakePatientStore())

	c, rec := newJSONContext(http.MethodGet, "/v1/patients/99", "")
	c.SetParamNames("id")
	c.SetParamValues("99")
	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateStatusOverwritesUnconditionally(t *testing.T) {
	store := newFakePatientStore()
	h, audit := newPatientHandler(store)
	p, _ := store.Create(context.Background(), model.Patient{Name: "Jane", DOB: "1990-01-02", Status: model.StatusAlive})

	patch := func(status string) int {
		c, rec := newJSONContext(http.MethodPatch,
			fmt.Sprintf("/v1/patients/%d/status", p.ID),
			fmt.Sprintf(`{"status":%q}`, status))
		c.SetParamNames("id")
		c.SetParamValues(fmt.Sprint(p.ID))
		c.Set("username", "admin")
		if err := h.UpdateStatus(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return rec.Code
	}

	// Any known status over any other, repeats included.
	for i, status := range []string{model.StatusDeceased, model.StatusDeceased, model.StatusAlive, model.StatusBornHere} {
		if code := patch(status); code != http.StatusOK {
			t.Fatalf("step %d (%s): expected 200, got %d", i, status, code)
		}
		if got := store.patients[p.ID].Status; got != status {
			t.Fatalf("step %d: expected stored status %s, got %s", i, status, got)
		}
	}
	if len(audit.statuses) != 4 {
		t.Errorf("expected 4 audit events, got %d", len(audit.statuses))
	}
	if hu := store.patients[p.ID].HandlerUser; hu == nil || *hu != "admin" {
		t.Errorf("expected the acting user recorded as handler, got %v", hu)
	}
}

func TestUpdateStatusUnknownPatient(t *testing.T) {
	h, audit := newPatientHandler(newFakePatientStore())

	c, rec := newJSONContext(http.MethodPatch, "/v1/patients/42/status", `{"status":"DECEASED"}`)
	c.SetParamNames("id")
	c.SetParamValues("42")
	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if len(audit.statuses) != 0 {
		t.Errorf("expected no audit event for a failed update")
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	store := newFakePatientStore()
	h, _ := newPatientHandler(store)
	p, _ := store.Create(context.Background(), model.Patient{Name: "Jane", DOB: "1990-01-02", Status: model.StatusAlive})

	c, rec := newJSONContext(http.MethodPatch,
		fmt.Sprintf("/v1/patients/%d/status", p.ID), `{"status":"CURED"}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(p.ID))
	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeletePatientRemovesStoredFiles(t *testing.T) {
	store := newFakePatientStore()
	h, _ := newPatientHandler(store)

	files := upload.NewMemStore()
	h.Files = files
	path, err := files.Save("scan.pdf", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.docPaths = []string{path}
	p, _ := store.Create(context.Background(), model.Patient{Name: "Jane", DOB: "1990-01-02", Status: model.StatusAlive})

	c, rec := newJSONContext(http.MethodDelete, fmt.Sprintf("/v1/patients/%d", p.ID), "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(p.ID))
	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(store.patients) != 0 {
		t.Errorf("expected the patient row gone")
	}
	if files.Len() != 0 {
		t.Errorf("expected cascaded file removal, %d files remain", files.Len())
	}
}

func TestDeleteUnknownPatient(t *testing.T) {
	h, _ := newPatientHandler(newFakePatientStore())

	c, rec := newJSONContext(http.MethodDelete, "/v1/patients/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
