package model

import (
	"strings"
	"testing"
)

func TestMutatingKinds(t *testing.T) {
	cases := map[Kind]bool{
		KindCreateFile:  true,
		KindEditFile:    true,
		KindRunProject:  true,
		KindAnalyzeFile: false,
	}
	for kind, want := range cases {
		if got := kind.Mutating(); got != want {
			t.Errorf("%s: Mutating()=%v, want %v", kind, got, want)
		}
	}
}

func TestSpanEmpty(t *testing.T) {
	if !(Span{Start: 5, End: 5}).Empty() {
		t.Error("expected zero-width span to be empty")
	}
	if (Span{Start: 3, End: 9}).Empty() {
		t.Error("expected non-zero span to be non-empty")
	}
}

func TestNewTurnIDFormat(t *testing.T) {
	id := NewTurnID()
	if !strings.HasPrefix(id, "t-") {
		t.Errorf("expected t- prefix, got %q", id)
	}
	if len(id) != len("t-")+12 {
		t.Errorf("expected 12 hex chars, got %q", id)
	}
}

func TestNewTurnIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewTurnID()
		if seen[id] {
			t.Fatalf("duplicate ID %q", id)
		}
		seen[id] = true
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Reason: RejectMissingField, Field: "path", Detail: "is required"}
	msg := err.Error()
	if !strings.Contains(msg, "missing_field") || !strings.Contains(msg, "path") {
		t.Errorf("unexpected message: %s", msg)
	}
}
