package event

import (
	"errors"
	"fmt"
)

// FromPlainErrorKind classifies why an EventPlain could not be lifted to a
// typed Event.
type FromPlainErrorKind int

const (
	// ErrMissingField means a field required for the requested conversion
	// (id, last_modified, start_date, end_date, or rrule when a recurrence
	// block is present) was absent.
	ErrMissingField FromPlainErrorKind = iota
	// ErrInvalidSpan means start_time and end_time disagreed on presence.
	ErrInvalidSpan
	// ErrRRuleParse means the recurrence block's rrule failed to parse.
	ErrRRuleParse
)

func (k FromPlainErrorKind) String() string {
	switch k {
	case ErrMissingField:
		return "missing_field"
	case ErrInvalidSpan:
		return "invalid_span"
	case ErrRRuleParse:
		return "rrule_parse_error"
	default:
		return "unknown"
	}
}

// FromPlainError reports why EventPlain could not become a typed Event.
// For ErrRRuleParse, Unwrap returns the *recurrence.ParseError that caused it.
type FromPlainError struct {
	Kind  FromPlainErrorKind
	Field string
	Inner error
}

func (e *FromPlainError) Error() string {
	switch e.Kind {
	case ErrMissingField:
		return fmt.Sprintf("event: missing required field %q", e.Field)
	case ErrInvalidSpan:
		return "event: start_time and end_time must both be present or both be absent"
	case ErrRRuleParse:
		return fmt.Sprintf("event: recurrence rrule: %v", e.Inner)
	default:
		return "event: invalid plain event"
	}
}

func (e *FromPlainError) Unwrap() error { return e.Inner }

// Is reports whether target is a *FromPlainError with the same Kind.
func (e *FromPlainError) Is(target error) bool {
	var other *FromPlainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}
