// Package span models the date and date-time extents an event can occupy.
package span

import "time"

// DateSpan is a date-only extent. Start must not be after End.
type DateSpan struct {
	Start time.Time
	End   time.Time
}

// DateTimeSpan is a naive UTC date-time extent. Start must not be after End.
// Times carry no timezone information; callers are responsible for treating
// them as UTC.
type DateTimeSpan struct {
	Start time.Time
	End   time.Time
}

// AsDateSpan projects a DateTimeSpan onto a DateSpan by dropping times.
func (s DateTimeSpan) AsDateSpan() DateSpan {
	return DateSpan{
		Start: truncateToDate(s.Start),
		End:   truncateToDate(s.End),
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Kind distinguishes the two Span variants.
type Kind int

const (
	// KindDate marks a Span backed by a DateSpan.
	KindDate Kind = iota
	// KindDateTime marks a Span backed by a DateTimeSpan.
	KindDateTime
)

// Span is a tagged union of a date-only extent or a date-time extent.
// Exactly one of Date / DateTime is meaningful, selected by Kind.
type Span struct {
	kind     Kind
	date     DateSpan
	dateTime DateTimeSpan
}

// NewDateSpan builds a Span from an explicit date-only extent.
func NewDateSpan(start, end time.Time) Span {
	return Span{kind: KindDate, date: DateSpan{Start: start, End: end}}
}

// NewDateTimeSpan builds a Span from an explicit date-time extent.
func NewDateTimeSpan(start, end time.Time) Span {
	return Span{kind: KindDateTime, dateTime: DateTimeSpan{Start: start, End: end}}
}

// FromDateAndDuration builds a date-only Span starting at start and lasting
// duration. duration is expected to be a whole number of days; a sub-day
// remainder is dropped by truncating the end to its date.
func FromDateAndDuration(start time.Time, duration time.Duration) Span {
	return NewDateSpan(start, truncateToDate(start.Add(duration)))
}

// FromDateTimeAndDuration builds a date-time Span starting at start and
// lasting duration.
func FromDateTimeAndDuration(start time.Time, duration time.Duration) Span {
	return NewDateTimeSpan(start, start.Add(duration))
}

// Kind reports whether this Span is date-only or date-time.
func (s Span) Kind() Kind { return s.kind }

// DateSpan returns the date-only projection of this Span, dropping any times.
func (s Span) DateSpan() DateSpan {
	switch s.kind {
	case KindDateTime:
		return s.dateTime.AsDateSpan()
	default:
		return s.date
	}
}

// DateTimeSpan returns the underlying date-time extent and true if this Span
// carries times, or the zero value and false if it is date-only.
func (s Span) DateTimeSpan() (DateTimeSpan, bool) {
	if s.kind != KindDateTime {
		return DateTimeSpan{}, false
	}
	return s.dateTime, true
}

// StartDate returns the start of this Span's date projection.
func (s Span) StartDate() time.Time { return s.DateSpan().Start }

// EndDate returns the end of this Span's date projection.
func (s Span) EndDate() time.Time { return s.DateSpan().End }

// StartTime returns the start date-time if this Span carries times.
func (s Span) StartTime() (time.Time, bool) {
	dt, ok := s.DateTimeSpan()
	if !ok {
		return time.Time{}, false
	}
	return dt.Start, true
}

// EndTime returns the end date-time if this Span carries times.
func (s Span) EndTime() (time.Time, bool) {
	dt, ok := s.DateTimeSpan()
	if !ok {
		return time.Time{}, false
	}
	return dt.End, true
}

// Duration returns the extent of this Span. For a date-only Span this is an
// integral number of days.
func (s Span) Duration() time.Duration {
	switch s.kind {
	case KindDateTime:
		return s.dateTime.End.Sub(s.dateTime.Start)
	default:
		return s.date.End.Sub(s.date.Start)
	}
}
