// Package repository contains data access logic separated from HTTP
// handlers. This file defines sentinel error values reused across the
// repositories so that handlers can distinguish failure scenarios:
// a duplicate patient registration, or a reference to a patient or
// visit that does not exist.
package repository

import (
	"errors"
	"strings"
)

// ErrDuplicatePatient is returned when a patient with the same
// (name, dob) pair already exists. Handlers should translate this
// into an HTTP 409 response; nothing is written.
var ErrDuplicatePatient = errors.New("patient already exists")

// ErrUnknownPatient is returned when an operation references a
// patient id that does not exist. Handlers should translate this
// into an HTTP 404 response.
var ErrUnknownPatient = errors.New("unknown patient")

// ErrUnknownVisit is returned when an operation references a visit id
// that does not exist. Handlers should translate this into an HTTP
// 404 response.
var ErrUnknownVisit = errors.New("unknown visit")

// ErrUsernameExists is returned when creating a staff account whose
// username is already taken.
var ErrUsernameExists = errors.New("username already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry
// violation (error 1062 on a UNIQUE key).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isForeignKeyViolation reports whether err is a MySQL foreign-key
// violation (error 1452: referenced row missing).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1452")
}
