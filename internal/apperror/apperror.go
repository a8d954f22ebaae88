// Package apperror defines the error kinds spec.md §7 names, as typed
// wrapped errors so callers can errors.As/errors.Is against them
// instead of matching strings, following the teacher's
// fmt.Errorf("...: %w", err) wrapping idiom throughout pkg/db/postgres.
package apperror

import "errors"

// Kind identifies one of spec.md §7's error kinds.
type Kind int

const (
	// TransientUpstream: analytics or cache unreachable. Logged and
	// swallowed; the hot path falls back to stale data or /random.
	TransientUpstream Kind = iota
	// PermanentConfig: a required environment variable is missing.
	// Logged once at startup; the process runs in degraded mode.
	PermanentConfig
	// InputValidation: a reporting endpoint received a bad parameter.
	// Mapped to 400 with {error, validFields?}.
	InputValidation
	// Unexpected: any uncaught error on the dispatch path. Mapped to
	// the emergency redirect, never a 5xx.
	Unexpected
	// DuplicateKey: a unique-constraint violation on a persisted
	// store. Mapped to 409 Conflict.
	DuplicateKey
)

func (k Kind) String() string {
	switch k {
	case TransientUpstream:
		return "transient_upstream"
	case PermanentConfig:
		return "permanent_config"
	case InputValidation:
		return "input_validation"
	case Unexpected:
		return "unexpected"
	case DuplicateKey:
		return "duplicate_key"
	default:
		return "unknown"
	}
}

// Error is a typed, wrapped application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error of the given kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Is reports whether err is an *Error of kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
