package model

import "time"

// Life-status values for a patient. A patient is registered as ALIVE
// or BORN_HERE and may later be marked DECEASED. The two non-ALIVE
// statuses record the staff member who entered them (HandlerUser).
const (
	StatusAlive    = "ALIVE"
	StatusDeceased = "DECEASED"
	StatusBornHere = "BORN_HERE"
)

// KnownStatus reports whether s is one of the recognized life-status
// values.
func KnownStatus(s string) bool {
	switch s {
	case StatusAlive, StatusDeceased, StatusBornHere:
		return true
	}
	return false
}

// Patient represents a clinic-registered individual as stored in the
// `patients` table. The (Name, DOB) pair is unique; registering the
// same pair twice is rejected. DOB is kept as a plain YYYY-MM-DD
// string, matching how visit dates are stored and compared.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – full name of the patient.
//  DOB         – date of birth, "YYYY-MM-DD".
//  Gender      – free-form gender label.
//  Diagnosis   – primary diagnosis text.
//  Notes       – additional free-form notes.
//  Status      – life status (ALIVE, DECEASED, BORN_HERE).
//  HandlerUser – staff username that recorded a terminal status
//                (nil while the patient is ALIVE).
//  CreatedAt   – timestamp of registration.
type Patient struct {
	ID          uint64    // patients.id
	Name        string    // patients.name
	DOB         string    // patients.dob
	Gender      string    // patients.gender
	Diagnosis   string    // patients.diagnosis
	Notes       string    // patients.notes
	Status      string    // patients.status
	HandlerUser *string   // patients.handler_user (nullable)
	CreatedAt   time.Time // patients.created_at
}
