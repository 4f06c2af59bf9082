package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/calendar-engine/internal/recurrence"
	"github.com/example/calendar-engine/internal/span"
)

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04"
	dateTimeLayout = "2006-01-02T15:04"
)

// dateOnly, timeOnly and dateTimeOnly wrap time.Time for the wire formats:
// no seconds, no timezone offset. They round-trip through JSON as plain
// quoted strings.
type dateOnly struct{ time.Time }
type timeOnly struct{ time.Time }
type dateTimeOnly struct{ time.Time }

func (d dateOnly) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *dateOnly) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("event: bad date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

func (d timeOnly) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(timeLayout))
}

func (d *timeOnly) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return fmt.Errorf("event: bad time %q: %w", s, err)
	}
	d.Time = t
	return nil
}

func (d dateTimeOnly) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateTimeLayout))
}

func (d *dateTimeOnly) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateTimeLayout, s)
	if err != nil {
		return fmt.Errorf("event: bad date-time %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// RecurrencePlain is the wire-level representation of an EventRecurrence.
// A nil ExDates/RDates means the field was absent from the payload, not
// that it was an empty list. ValidateNonPatch does not inspect either field.
type RecurrencePlain struct {
	RRule   *string     `json:"rrule,omitempty"`
	ExDates *[]dateOnly `json:"exdates,omitempty"`
	RDates  *[]dateOnly `json:"rdates,omitempty"`
}

// EventPlain is the wire-level, all-fields-optional representation of an
// Event, used for both PATCH-style transport and for lifting into a typed
// Event. See ValidateNonPatch and ToEvent.
type EventPlain struct {
	ID       *uuid.UUID `json:"id,omitempty"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`

	StartDate *dateOnly `json:"start_date,omitempty"`
	StartTime *timeOnly `json:"start_time,omitempty"`
	EndDate   *dateOnly `json:"end_date,omitempty"`
	EndTime   *timeOnly `json:"end_time,omitempty"`

	Recurrence *RecurrencePlain `json:"recurrence,omitempty"`

	LastModified *dateTimeOnly `json:"last_modified,omitempty"`
}

// ValidateNonPatch reports whether p is acceptable as a create (non-PATCH)
// request: start_date and end_date are both present, start_time is present
// iff end_time is present, and if recurrence is present its rrule is
// present.
func (p *EventPlain) ValidateNonPatch() bool {
	if p.StartDate == nil || p.EndDate == nil {
		return false
	}
	if (p.StartTime == nil) != (p.EndTime == nil) {
		return false
	}
	if p.Recurrence != nil && p.Recurrence.RRule == nil {
		return false
	}
	return true
}

// SetLastModified stamps p's last_modified with t, in the seconds-free wire
// format.
func (p *EventPlain) SetLastModified(t time.Time) {
	p.LastModified = &dateTimeOnly{t}
}

// Merge returns a copy of existing with every field present in p overriding
// the matching field. Fields absent from p are carried over unchanged; a
// present recurrence block replaces the existing block wholesale.
func (p *EventPlain) Merge(existing EventPlain) EventPlain {
	merged := existing
	if p.ID != nil {
		merged.ID = p.ID
	}
	if p.ParentID != nil {
		merged.ParentID = p.ParentID
	}
	if p.StartDate != nil {
		merged.StartDate = p.StartDate
	}
	if p.StartTime != nil {
		merged.StartTime = p.StartTime
	}
	if p.EndDate != nil {
		merged.EndDate = p.EndDate
	}
	if p.EndTime != nil {
		merged.EndTime = p.EndTime
	}
	if p.Recurrence != nil {
		merged.Recurrence = p.Recurrence
	}
	if p.LastModified != nil {
		merged.LastModified = p.LastModified
	}
	return merged
}

// ValidatePatch reports whether p is an acceptable PATCH-style update against
// existing: every field present in p overrides the matching field in a copy
// of existing, and the merged result is checked with ValidateNonPatch. Unlike
// ValidateNonPatch, p itself may leave any field absent — it is interpreted
// against existing's already-valid state.
func (p *EventPlain) ValidatePatch(existing *EventPlain) bool {
	if existing == nil {
		return false
	}
	merged := p.Merge(*existing)
	return merged.ValidateNonPatch()
}

// ToEvent lifts p to a typed Event. It requires everything ValidateNonPatch
// requires, plus id and last_modified.
func (p *EventPlain) ToEvent() (Event, error) {
	if p.StartDate == nil || p.EndDate == nil {
		return Event{}, &FromPlainError{Kind: ErrMissingField, Field: "start_date/end_date"}
	}
	if (p.StartTime == nil) != (p.EndTime == nil) {
		return Event{}, &FromPlainError{Kind: ErrInvalidSpan}
	}
	if p.ID == nil {
		return Event{}, &FromPlainError{Kind: ErrMissingField, Field: "id"}
	}
	if p.LastModified == nil {
		return Event{}, &FromPlainError{Kind: ErrMissingField, Field: "last_modified"}
	}

	var eventSpan span.Span
	if p.StartTime != nil {
		eventSpan = span.NewDateTimeSpan(
			combineDateTime(p.StartDate.Time, p.StartTime.Time),
			combineDateTime(p.EndDate.Time, p.EndTime.Time),
		)
	} else {
		eventSpan = span.NewDateSpan(p.StartDate.Time, p.EndDate.Time)
	}

	if p.Recurrence != nil {
		recur, err := p.Recurrence.toEventRecurrence()
		if err != nil {
			return Event{}, err
		}
		return NewRecurringEvent(EventRecurring{
			ID:           *p.ID,
			Span:         eventSpan,
			Recurrence:   recur,
			LastModified: p.LastModified.Time,
		}), nil
	}

	return NewSingleEvent(EventSingle{
		ID:           *p.ID,
		ParentID:     p.ParentID,
		Span:         eventSpan,
		LastModified: p.LastModified.Time,
	}), nil
}

func (r *RecurrencePlain) toEventRecurrence() (EventRecurrence, error) {
	if r.RRule == nil {
		return EventRecurrence{}, &FromPlainError{Kind: ErrMissingField, Field: "rrule"}
	}
	rule, err := recurrence.Parse(*r.RRule)
	if err != nil {
		return EventRecurrence{}, &FromPlainError{Kind: ErrRRuleParse, Inner: err}
	}
	return EventRecurrence{
		Rule:    rule,
		ExDates: datesOf(r.ExDates),
		RDates:  datesOf(r.RDates),
	}, nil
}

func datesOf(dates *[]dateOnly) []time.Time {
	if dates == nil {
		return nil
	}
	out := make([]time.Time, len(*dates))
	for i, d := range *dates {
		out[i] = d.Time
	}
	return out
}

func combineDateTime(date, timeOfDay time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, timeOfDay.Hour(), timeOfDay.Minute(), 0, 0, time.UTC)
}

// Plain converts an Event back to its wire representation.
func (e Event) Plain() EventPlain {
	switch e.kind {
	case KindRecurring:
		return e.recurring.Plain()
	default:
		return e.single.Plain()
	}
}

// Plain converts r to its wire representation.
func (r EventRecurring) Plain() EventPlain {
	id := r.ID
	lastModified := dateTimeOnly{r.LastModified}
	return EventPlain{
		ID:           &id,
		StartDate:    spanStartDate(r.Span),
		EndDate:      spanEndDate(r.Span),
		StartTime:    spanStartTime(r.Span),
		EndTime:      spanEndTime(r.Span),
		Recurrence:   r.Recurrence.plain(),
		LastModified: &lastModified,
	}
}

// Plain converts s to its wire representation.
func (s EventSingle) Plain() EventPlain {
	id := s.ID
	lastModified := dateTimeOnly{s.LastModified}
	return EventPlain{
		ID:           &id,
		ParentID:     s.ParentID,
		StartDate:    spanStartDate(s.Span),
		EndDate:      spanEndDate(s.Span),
		StartTime:    spanStartTime(s.Span),
		EndTime:      spanEndTime(s.Span),
		LastModified: &lastModified,
	}
}

// Plain converts i to its wire representation. The result has no id and no
// last_modified, since an EventInstance is never persisted standalone.
func (i EventInstance) Plain() EventPlain {
	return EventPlain{
		ParentID:  &i.ParentID,
		StartDate: spanStartDate(i.Span),
		EndDate:   spanEndDate(i.Span),
		StartTime: spanStartTime(i.Span),
		EndTime:   spanEndTime(i.Span),
	}
}

func (r EventRecurrence) plain() *RecurrencePlain {
	rrule := recurrence.Print(r.Rule)
	exdates := datesToPlain(r.ExDates)
	rdates := datesToPlain(r.RDates)
	return &RecurrencePlain{
		RRule:   &rrule,
		ExDates: &exdates,
		RDates:  &rdates,
	}
}

func datesToPlain(dates []time.Time) []dateOnly {
	out := make([]dateOnly, len(dates))
	for i, d := range dates {
		out[i] = dateOnly{d}
	}
	return out
}

func spanStartDate(s span.Span) *dateOnly {
	d := dateOnly{s.StartDate()}
	return &d
}

func spanEndDate(s span.Span) *dateOnly {
	d := dateOnly{s.EndDate()}
	return &d
}

func spanStartTime(s span.Span) *timeOnly {
	t, ok := s.StartTime()
	if !ok {
		return nil
	}
	return &timeOnly{t}
}

func spanEndTime(s span.Span) *timeOnly {
	t, ok := s.EndTime()
	if !ok {
		return nil
	}
	return &timeOnly{t}
}
