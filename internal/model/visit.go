package model

import "time"

// Treatment-progress values recorded on a visit.
const (
	ProgressImproving = "IMPROVING"
	ProgressStable    = "STABLE"
	ProgressWorsening = "WORSENING"
)

// KnownProgress reports whether p is a recognized progress value.
func KnownProgress(p string) bool {
	switch p {
	case ProgressImproving, ProgressStable, ProgressWorsening:
		return true
	}
	return false
}

// TagVocabulary is the fixed set of procedure labels a visit may
// carry. Visits store an ordered subset of these; duplicates within
// one visit are retained as given.
var TagVocabulary = []string{
	"Injection",
	"ECG",
	"Consultation",
	"Prescription",
	"Minor Surgery",
	"Lab Test",
}

// KnownTag reports whether t belongs to the tag vocabulary.
func KnownTag(t string) bool {
	for _, v := range TagVocabulary {
		if v == t {
			return true
		}
	}
	return false
}

// Visit represents one clinical encounter as stored in the `visits`
// table. Visits are append-only: they are never updated or deleted on
// their own, only removed by cascade when the owning patient is
// removed. VisitDate is a plain YYYY-MM-DD string; monthly reporting
// compares these strings lexicographically.
//
// Fields:
//  ID             – primary key identifier.
//  PatientID      – owning patient (required, cascade on delete).
//  VisitDate      – date of the encounter, "YYYY-MM-DD".
//  Reason         – why the patient came in.
//  Outcome        – description of what was done / the result.
//  ProgressStatus – IMPROVING, STABLE or WORSENING.
//  Tags           – ordered procedure labels from TagVocabulary,
//                   stored in the visit_tags join table.
//  CreatedAt      – timestamp of insertion.
type Visit struct {
	ID             uint64    // visits.id
	PatientID      uint64    // visits.patient_id
	VisitDate      string    // visits.visit_date
	Reason         string    // visits.reason
	Outcome        string    // visits.outcome
	ProgressStatus string    // visits.progress_status
	Tags           []string  // visit_tags rows ordered by position
	CreatedAt      time.Time // visits.created_at
}
