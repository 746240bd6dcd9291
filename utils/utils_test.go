package utils

import (
	"os"
	"testing"
)

func TestGetEnvOrDefault(t *testing.T) {
	if got := GetEnvOrDefault("FLOEDB_TEST_UNSET_VAR", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}

	os.Setenv("FLOEDB_TEST_SET_VAR", "set")
	defer os.Unsetenv("FLOEDB_TEST_SET_VAR")
	if got := GetEnvOrDefault("FLOEDB_TEST_SET_VAR", "fallback"); got != "set" {
		t.Fatalf("expected set, got %q", got)
	}
}

func TestGetEnvOrDefaultInt(t *testing.T) {
	if got := GetEnvOrDefaultInt("FLOEDB_TEST_UNSET_VAR", 7); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}

	os.Setenv("FLOEDB_TEST_INT_VAR", "42")
	defer os.Unsetenv("FLOEDB_TEST_INT_VAR")
	if got := GetEnvOrDefaultInt("FLOEDB_TEST_INT_VAR", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestPtrAndDeref(t *testing.T) {
	p := Ptr(int64(5))
	if *p != 5 {
		t.Fatalf("expected 5, got %d", *p)
	}
	if got := Deref(p, 9); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := Deref[int64](nil, 9); got != 9 {
		t.Fatalf("expected fallback 9, got %d", got)
	}
}
