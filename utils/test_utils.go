package utils

import (
	"errors"
	"testing"
)

func AssertNil(t *testing.T, v error) {
	t.Helper()
	if v != nil {
		t.Fatalf("expected nil, got: %v", v)
	}
}

func AssertNilMsg(t *testing.T, v error, msg string) {
	t.Helper()
	if v != nil {
		t.Fatalf("%s: %v", msg, v)
	}
}

func AssertNonNil(t *testing.T, v interface{}) {
	t.Helper()
	if v == nil {
		t.Fatalf("expected non-nil value")
	}
}

func AssertTrue(t *testing.T, condition bool) {
	t.Helper()
	if !condition {
		t.Fatalf("expected condition to hold")
	}
}

func AssertTrueMsg(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Fatal(msg)
	}
}

func AssertEquals[T comparable](t *testing.T, expected, actual T) {
	t.Helper()
	if expected != actual {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

func AssertEqualsMsg[T comparable](t *testing.T, expected, actual T, msg string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

func AssertErrorIs(t *testing.T, err error, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error %v, got: %v", target, err)
	}
}
