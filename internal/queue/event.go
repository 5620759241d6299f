// Package queue defines the audit event payloads exchanged over the
// message broker and the background consumer that records them.
package queue

// VisitRecordedEvent is published when a visit is appended to a
// patient's history. It carries enough information for downstream
// consumers to log or trigger analytics without querying the primary
// database.
type VisitRecordedEvent struct {
	VisitID    uint64   `json:"visit_id"`
	PatientID  uint64   `json:"patient_id"`
	VisitDate  string   `json:"visit_date"`
	Progress   string   `json:"progress"`
	Tags       []string `json:"tags"`
	RecordedBy string   `json:"recorded_by"`
	RecordedAt string   `json:"recorded_at"`
}

// StatusChangedEvent is published when a patient's life status is
// overwritten, recording who handled the change.
type StatusChangedEvent struct {
	PatientID   uint64 `json:"patient_id"`
	Status      string `json:"status"`
	HandlerUser string `json:"handler_user"`
	ChangedAt   string `json:"changed_at"`
}
