package recurrence

import (
	"errors"
	"fmt"
)

// ParseErrorKind classifies why an RRULE string failed to parse.
type ParseErrorKind int

const (
	// ErrUnknownKey means a key in the RRULE string is not recognized.
	ErrUnknownKey ParseErrorKind = iota
	// ErrMissingFreq means the required FREQ key is absent.
	ErrMissingFreq
	// ErrDuplicateKey means a key appeared more than once.
	ErrDuplicateKey
	// ErrBadValue means a key's value could not be parsed into its type.
	ErrBadValue
	// ErrOutOfRange means a key's value parsed but fell outside its domain.
	ErrOutOfRange
	// ErrConflictingLimit means both COUNT and UNTIL were supplied.
	ErrConflictingLimit
)

func (k ParseErrorKind) String() string {
	switch k {
	case ErrUnknownKey:
		return "unknown_key"
	case ErrMissingFreq:
		return "missing_freq"
	case ErrDuplicateKey:
		return "duplicate_key"
	case ErrBadValue:
		return "bad_value"
	case ErrOutOfRange:
		return "out_of_range"
	case ErrConflictingLimit:
		return "conflicting_limit"
	default:
		return "unknown"
	}
}

// ParseError reports a single reason an RRULE string is not a valid Rule.
// Key is empty for kinds that are not tied to a specific RRULE key
// (ErrMissingFreq, ErrConflictingLimit).
type ParseError struct {
	Kind  ParseErrorKind
	Key   string
	Value string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrMissingFreq:
		return "rrule: missing required FREQ"
	case ErrConflictingLimit:
		return "rrule: COUNT and UNTIL are mutually exclusive"
	case ErrUnknownKey:
		return fmt.Sprintf("rrule: unknown key %q", e.Key)
	case ErrDuplicateKey:
		return fmt.Sprintf("rrule: duplicate key %q", e.Key)
	case ErrBadValue:
		return fmt.Sprintf("rrule: bad value %q for key %q", e.Value, e.Key)
	case ErrOutOfRange:
		return fmt.Sprintf("rrule: value %q for key %q is out of range", e.Value, e.Key)
	default:
		return "rrule: invalid rule"
	}
}

// Is reports whether target is a *ParseError with the same Kind, so callers
// can do errors.Is(err, &recurrence.ParseError{Kind: recurrence.ErrMissingFreq}).
func (e *ParseError) Is(target error) bool {
	var other *ParseError
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// RuleDomainErrorKind classifies why a rule cannot be evaluated by the
// iterator.
type RuleDomainErrorKind int

const (
	// ErrIncompatibleFilter means a BY-filter is used with a frequency that
	// does not support it (e.g. BYMONTHDAY with WEEKLY).
	ErrIncompatibleFilter RuleDomainErrorKind = iota
	// ErrUnsupportedFilter means a filter is recognized but not implemented
	// (BYSETPOS, the nontrivial BYWEEKNO semantics).
	ErrUnsupportedFilter
)

// RuleDomainError reports that the occurrence iterator cannot evaluate a
// rule because of an invalid or unimplemented filter combination. It
// terminates the iterator's sequence; it is never returned mid-iteration
// alongside a valid occurrence.
type RuleDomainError struct {
	Kind   RuleDomainErrorKind
	Filter string
	Reason string
}

func (e *RuleDomainError) Error() string {
	switch e.Kind {
	case ErrUnsupportedFilter:
		return fmt.Sprintf("recurrence: %s is not implemented", e.Filter)
	default:
		return fmt.Sprintf("recurrence: %s: %s", e.Filter, e.Reason)
	}
}
