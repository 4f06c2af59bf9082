package event

import (
	"sort"
	"time"

	"github.com/example/calendar-engine/internal/recurrence"
	"github.com/example/calendar-engine/internal/span"
)

// Materialize expands e into the EventInstance values its rule produces
// between from and to, inclusive, honoring the recurrence's exdates
// (occurrences to suppress) and rdates (occurrence dates to add that the
// rule alone would not generate). from and to are independent bounds;
// from must not be after to.
//
// The returned instances are in strictly ascending date order, deduplicated
// against rdates that coincide with a rule-generated date. A RuleDomainError
// from the underlying rule aborts materialization and is returned as-is.
func Materialize(e EventRecurring, from, to time.Time) ([]EventInstance, error) {
	instantiated := recurrence.Instantiate(e.Recurrence.Rule, e.Span.StartDate())
	it := recurrence.NewIterator(instantiated)

	excluded := toDateSet(e.Recurrence.ExDates)
	fromDate, toDate := truncateToDate(from), truncateToDate(to)

	dates := make([]time.Time, 0, 16)
	seen := make(map[time.Time]struct{})

	for it.Next() {
		occ := it.Date()
		if occ.Before(fromDate) {
			continue
		}
		if occ.After(toDate) {
			break
		}
		if _, excludedHere := excluded[truncateToDate(occ)]; excludedHere {
			continue
		}
		dates = append(dates, occ)
		seen[truncateToDate(occ)] = struct{}{}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	for _, rdate := range e.Recurrence.RDates {
		if rdate.Before(fromDate) || rdate.After(toDate) {
			continue
		}
		if _, dup := seen[truncateToDate(rdate)]; dup {
			continue
		}
		dates = append(dates, rdate)
		seen[truncateToDate(rdate)] = struct{}{}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	instances := make([]EventInstance, len(dates))
	for i, date := range dates {
		instances[i] = EventInstance{
			ParentID: e.ID,
			Span:     shiftSpanTo(e.Span, date),
		}
	}
	return instances, nil
}

func toDateSet(dates []time.Time) map[time.Time]struct{} {
	set := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		set[truncateToDate(d)] = struct{}{}
	}
	return set
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// shiftSpanTo rebuilds s with its start moved to date, preserving its
// duration and, for a date-time span, its start time-of-day.
func shiftSpanTo(s span.Span, date time.Time) span.Span {
	duration := s.Duration()
	if startTime, ok := s.StartTime(); ok {
		start := combineDateTime(date, startTime)
		return span.NewDateTimeSpan(start, start.Add(duration))
	}
	return span.NewDateSpan(date, date.Add(duration))
}
