package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		ok       bool
	}{
		{name: "", expected: "default", ok: true},
		{name: "home", expected: "home", ok: true},
		{name: "blog/post", expected: filepath.Join("blog", "post"), ok: true},
		{name: "blog/../home", expected: "home", ok: true},
		{name: "../secret", ok: false},
		{name: "/etc/passwd", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.name)
			if ok != tt.ok {
				t.Fatalf("Normalize(%q) ok = %v, expected %v", tt.name, ok, tt.ok)
			}
			if ok && got != tt.expected {
				t.Errorf("Normalize(%q) = %q, expected %q", tt.name, got, tt.expected)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindLayout, KindPage, KindPartial} {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q) failed: %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v, expected %v", k.String(), got, k)
		}
	}
	if _, err := ParseKind("stylesheet"); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

// assertNotFound checks the error wraps ErrNotFound.
func assertNotFound(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
