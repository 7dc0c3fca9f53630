package types

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable machine-readable identifier carried by every Error.
// Codes are part of the wire contract and must not be renamed.
type ErrorCode string

const (
	CodeInvalidRequest        ErrorCode = "invalid_request"
	CodeResourceNotFound      ErrorCode = "resource_not_found"
	CodeCapabilityUnsupported ErrorCode = "capability_unsupported"
	CodeStalePlan             ErrorCode = "stale_plan"
	CodePartialWriteDetected  ErrorCode = "partial_write_detected"
	CodeTimeout               ErrorCode = "timeout"
	CodeLockContention        ErrorCode = "lock_contention"
	CodeInternal              ErrorCode = "internal"
)

// Error is the error type surfaced to callers. It pairs a stable code with a
// human message and structured details sufficient to decide whether to retry,
// adjust scope, or escalate.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports code equality so errors.Is can match against sentinel values
// constructed with just a code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns e with an extra detail entry set.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// CodeOf extracts the ErrorCode from err, or CodeInternal when err carries
// no code.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func NewInvalidRequest(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func NewResourceNotFound(kind, name string) *Error {
	return &Error{
		Code:    CodeResourceNotFound,
		Message: fmt.Sprintf("%s not found: %s", kind, name),
		Details: map[string]any{"kind": kind, "name": name},
	}
}

// NewCapabilityUnsupported names the exact capability a plugin lacks so a
// caller can explain why, not just that, a verb was rejected.
func NewCapabilityUnsupported(language, capability string) *Error {
	return &Error{
		Code:    CodeCapabilityUnsupported,
		Message: fmt.Sprintf("language %q does not support capability %q", language, capability),
		Details: map[string]any{"language": language, "capability": capability},
	}
}

func NewStalePlan(path, expected, actual string) *Error {
	return &Error{
		Code:    CodeStalePlan,
		Message: fmt.Sprintf("file changed since plan was built: %s", path),
		Details: map[string]any{"path": path, "expected_checksum": expected, "actual_checksum": actual},
	}
}

func NewPartialWrite(path string, cause error) *Error {
	return &Error{
		Code:    CodePartialWriteDetected,
		Message: fmt.Sprintf("write failed mid-transaction at %s", path),
		Details: map[string]any{"path": path},
		Cause:   cause,
	}
}

func NewTimeout(operation string, cause error) *Error {
	return &Error{
		Code:    CodeTimeout,
		Message: fmt.Sprintf("%s timed out", operation),
		Details: map[string]any{"operation": operation},
		Cause:   cause,
	}
}

func NewLockContention(paths []string) *Error {
	return &Error{
		Code:    CodeLockContention,
		Message: "files are locked by another transaction",
		Details: map[string]any{"paths": paths},
	}
}

func NewInternal(message string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: message, Cause: cause}
}
