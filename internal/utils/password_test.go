package utils

import "testing"

func TestHashPasswordDeterministic(t *testing.T) {
	a := HashPassword("admin123")
	b := HashPassword("admin123")
	if a != b {
		t.Fatalf("same password produced different digests: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestHashPasswordDistinguishesInputs(t *testing.T) {
	if HashPassword("admin123") == HashPassword("admin124") {
		t.Fatal("different passwords produced the same digest")
	}
}

func TestVerifyPassword(t *testing.T) {
	stored := HashPassword("s3cret")
	if !VerifyPassword(stored, "s3cret") {
		t.Fatal("expected correct password to verify")
	}
	if VerifyPassword(stored, "wrong") {
		t.Fatal("expected wrong password to fail")
	}
	if VerifyPassword("", "anything") {
		t.Fatal("expected empty stored digest to fail")
	}
}
