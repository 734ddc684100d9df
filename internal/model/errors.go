package model

import "fmt"

// RejectReason classifies why validation refused an intent.
type RejectReason string

const (
	RejectMissingField RejectReason = "missing_field"
	RejectUnsafePath   RejectReason = "unsafe_path"
	RejectUnknownKind  RejectReason = "unknown_kind"
)

// ValidationError is returned when an intent cannot become an Action.
// A rejected intent never reaches the executor.
type ValidationError struct {
	Reason RejectReason
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed (%s): field %q: %s", e.Reason, e.Field, e.Detail)
	}
	return fmt.Sprintf("validation failed (%s): %s", e.Reason, e.Detail)
}

// UnsafePathError is returned by path normalization when a path escapes the
// workspace root.
type UnsafePathError struct {
	Path   string
	Reason string
}

func (e *UnsafePathError) Error() string {
	return fmt.Sprintf("unsafe path %q: %s", e.Path, e.Reason)
}

// RateLimitedError is a terminal execution failure: too many actions inside
// the current window.
type RateLimitedError struct {
	Key     string
	Current int
	Limit   int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %d/%d in window, try again shortly", e.Key, e.Current, e.Limit)
}

// ForbiddenError is a terminal execution failure: the operation is
// disallowed by the active security policy.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("operation forbidden by policy: %s", e.Reason)
}

// IOError wraps a collaborator fault. Never retried automatically.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
