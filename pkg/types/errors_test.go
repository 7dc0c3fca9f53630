package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	err := NewCapabilityUnsupported("python", "refactor_support")
	if CodeOf(err) != CodeCapabilityUnsupported {
		t.Errorf("code = %s, want capability_unsupported", CodeOf(err))
	}
	if err.Details["capability"] != "refactor_support" {
		t.Errorf("details should name the missing capability, got %v", err.Details)
	}
	if err.Details["language"] != "python" {
		t.Errorf("details should name the language, got %v", err.Details)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewPartialWrite("/tmp/x.go", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}

	wrapped := fmt.Errorf("apply failed: %w", err)
	if CodeOf(wrapped) != CodePartialWriteDetected {
		t.Errorf("CodeOf through wrapping = %s", CodeOf(wrapped))
	}

	var e *Error
	if !errors.As(wrapped, &e) {
		t.Fatal("errors.As should find *Error")
	}
	if e.Details["path"] != "/tmp/x.go" {
		t.Errorf("details = %v", e.Details)
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	a := NewStalePlan("a.go", "aaa", "bbb")
	sentinel := &Error{Code: CodeStalePlan}
	if !errors.Is(a, sentinel) {
		t.Error("expected code-based match")
	}
	other := &Error{Code: CodeTimeout}
	if errors.Is(a, other) {
		t.Error("different codes should not match")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if CodeOf(errors.New("plain")) != CodeInternal {
		t.Error("plain errors map to internal")
	}
}
