// Package event models calendar events: single, recurring, and the
// transient instances a recurring event expands into.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/example/calendar-engine/internal/recurrence"
	"github.com/example/calendar-engine/internal/span"
)

// EventRecurrence pairs a recurrence Rule with the exdates/rdates that
// adjust its expansion: exdates suppress an otherwise-generated
// occurrence, rdates add an occurrence the rule would not otherwise
// generate.
type EventRecurrence struct {
	Rule    recurrence.Rule
	ExDates []time.Time
	RDates  []time.Time
}

// EventRecurring is a calendar event that repeats according to a rule.
type EventRecurring struct {
	ID           uuid.UUID
	Span         span.Span
	Recurrence   EventRecurrence
	LastModified time.Time
}

// EventSingle is a non-repeating calendar event. A non-nil ParentID means
// this event replaces a removed occurrence of the EventRecurring with that
// id: see Materialize.
type EventSingle struct {
	ID           uuid.UUID
	ParentID     *uuid.UUID
	Span         span.Span
	LastModified time.Time
}

// EventInstance is a transient occurrence produced by expanding an
// EventRecurring. It has no id of its own and is never persisted
// standalone.
type EventInstance struct {
	ParentID uuid.UUID
	Span     span.Span
}

// Kind distinguishes the two Event variants.
type Kind int

const (
	// KindRecurring marks an Event backed by an EventRecurring.
	KindRecurring Kind = iota
	// KindSingle marks an Event backed by an EventSingle.
	KindSingle
)

// Event is a tagged union of a recurring or a single calendar event.
type Event struct {
	kind      Kind
	recurring EventRecurring
	single    EventSingle
}

// NewRecurringEvent wraps e as an Event.
func NewRecurringEvent(e EventRecurring) Event {
	return Event{kind: KindRecurring, recurring: e}
}

// NewSingleEvent wraps e as an Event.
func NewSingleEvent(e EventSingle) Event {
	return Event{kind: KindSingle, single: e}
}

// Kind reports which variant this Event holds.
func (e Event) Kind() Kind { return e.kind }

// Recurring returns the underlying EventRecurring and true if Kind is
// KindRecurring.
func (e Event) Recurring() (EventRecurring, bool) {
	if e.kind != KindRecurring {
		return EventRecurring{}, false
	}
	return e.recurring, true
}

// Single returns the underlying EventSingle and true if Kind is KindSingle.
func (e Event) Single() (EventSingle, bool) {
	if e.kind != KindSingle {
		return EventSingle{}, false
	}
	return e.single, true
}

// ID returns the id shared by both Event variants.
func (e Event) ID() uuid.UUID {
	switch e.kind {
	case KindRecurring:
		return e.recurring.ID
	default:
		return e.single.ID
	}
}
