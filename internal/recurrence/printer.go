package recurrence

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders r as a canonical RRULE string. Parts are emitted in a fixed
// order — FREQ, INTERVAL, BYYEARDAY, BYDAY, BYWEEKNO, BYMONTHDAY, BYSETPOS,
// BYMONTH, then the limit — chosen for round-trippability, not to match any
// particular RFC 5545 implementation byte-for-byte.
func Print(r Rule) string {
	parts := make([]string, 0, 9)

	parts = append(parts, "FREQ="+r.Frequency.String())

	if r.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", r.Interval))
	}

	if r.ByYearDay != nil {
		parts = append(parts, "BYYEARDAY="+joinInts(r.ByYearDay))
	}

	if r.ByDay != nil {
		parts = append(parts, "BYDAY="+joinWeekdays(r.ByDay))
	}

	if r.ByWeekNo != nil {
		parts = append(parts, "BYWEEKNO="+joinInts(r.ByWeekNo))
	}

	if r.ByMonthDay != nil {
		parts = append(parts, "BYMONTHDAY="+joinInts(r.ByMonthDay))
	}

	if r.BySetPos != nil {
		parts = append(parts, "BYSETPOS="+joinInts(r.BySetPos))
	}

	if r.ByMonth != nil {
		parts = append(parts, "BYMONTH="+joinMonths(r.ByMonth))
	}

	switch r.Limit.Kind {
	case LimitUntil:
		parts = append(parts, "UNTIL="+r.Limit.Until.Format("20060102"))
	case LimitCount:
		parts = append(parts, fmt.Sprintf("COUNT=%d", r.Limit.Count))
	}

	return strings.Join(parts, ";")
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func joinMonths(months []Month) string {
	parts := make([]string, len(months))
	for i, m := range months {
		parts[i] = strconv.Itoa(int(m))
	}
	return strings.Join(parts, ",")
}

func joinWeekdays(days []Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = weekdayToCode(d)
	}
	return strings.Join(parts, ",")
}
