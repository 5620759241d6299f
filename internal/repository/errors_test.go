package repository

import (
	"errors"
	"testing"
)

func TestIsDuplicateKey(t *testing.T) {
	dup := errors.New("Error 1062 (23000): Duplicate entry 'Jane Doe-1990-01-02' for key 'uniq_patient_identity'")
	if !isDuplicateKey(dup) {
		t.Error("expected duplicate-entry error to be recognized")
	}
	if isDuplicateKey(errors.New("Error 1452 (23000): Cannot add or update a child row")) {
		t.Error("foreign-key error must not read as a duplicate key")
	}
	if isDuplicateKey(nil) {
		t.Error("nil must not read as a duplicate key")
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	fk := errors.New("Error 1452 (23000): Cannot add or update a child row: a foreign key constraint fails")
	if !isForeignKeyViolation(fk) {
		t.Error("expected foreign-key error to be recognized")
	}
	if isForeignKeyViolation(errors.New("Error 1062 (23000): Duplicate entry")) {
		t.Error("duplicate-entry error must not read as a foreign key violation")
	}
	if isForeignKeyViolation(nil) {
		t.Error("nil must not read as a foreign key violation")
	}
}
