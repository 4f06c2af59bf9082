package recurrence

import (
	"strconv"
	"strings"
	"time"
)

var freqFromName = map[string]Frequency{
	"DAILY":   Daily,
	"WEEKLY":  Weekly,
	"MONTHLY": Monthly,
	"YEARLY":  Yearly,
}

// recognizedKeys lists every key this parser understands, for the
// ErrUnknownKey check.
var recognizedKeys = map[string]struct{}{
	"FREQ":       {},
	"INTERVAL":   {},
	"COUNT":      {},
	"UNTIL":      {},
	"BYMONTH":    {},
	"BYWEEKNO":   {},
	"BYYEARDAY":  {},
	"BYMONTHDAY": {},
	"BYDAY":      {},
	"BYSETPOS":   {},
}

// Parse parses an RRULE string (a `;`-separated list of KEY=VALUE parts)
// into a Rule. It is a pure function: it does not read or mutate any
// package-level state.
func Parse(rrule string) (Rule, error) {
	rule := Rule{Interval: 1, Limit: Indefinite()}

	var hasFreq, hasCount, hasUntil bool
	seen := make(map[string]struct{})

	for _, part := range strings.Split(rrule, ";") {
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return Rule{}, &ParseError{Kind: ErrBadValue, Key: part, Value: part}
		}
		key, value := kv[0], kv[1]

		if _, ok := recognizedKeys[key]; !ok {
			return Rule{}, &ParseError{Kind: ErrUnknownKey, Key: key}
		}
		if _, dup := seen[key]; dup {
			return Rule{}, &ParseError{Kind: ErrDuplicateKey, Key: key}
		}
		seen[key] = struct{}{}

		switch key {
		case "FREQ":
			freq, ok := freqFromName[value]
			if !ok {
				return Rule{}, &ParseError{Kind: ErrBadValue, Key: key, Value: value}
			}
			rule.Frequency = freq
			hasFreq = true

		case "INTERVAL":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Rule{}, &ParseError{Kind: ErrBadValue, Key: key, Value: value}
			}
			if n < 1 {
				return Rule{}, &ParseError{Kind: ErrOutOfRange, Key: key, Value: value}
			}
			rule.Interval = n

		case "COUNT":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Rule{}, &ParseError{Kind: ErrBadValue, Key: key, Value: value}
			}
			if n < 1 {
				return Rule{}, &ParseError{Kind: ErrOutOfRange, Key: key, Value: value}
			}
			rule.Limit = CountLimit(uint32(n))
			hasCount = true

		case "UNTIL":
			t, err := time.Parse("20060102", value)
			if err != nil {
				return Rule{}, &ParseError{Kind: ErrBadValue, Key: key, Value: value}
			}
			rule.Limit = Until(t)
			hasUntil = true

		case "BYMONTH":
			ints, err := parseIntList(key, value, 1, 12)
			if err != nil {
				return Rule{}, err
			}
			months := make([]Month, len(ints))
			for i, n := range ints {
				months[i] = Month(n)
			}
			rule.ByMonth = months

		case "BYWEEKNO":
			ints, err := parseSignedIntList(key, value, 1, 53)
			if err != nil {
				return Rule{}, err
			}
			rule.ByWeekNo = ints

		case "BYYEARDAY":
			ints, err := parseSignedIntList(key, value, 1, 366)
			if err != nil {
				return Rule{}, err
			}
			rule.ByYearDay = ints

		case "BYMONTHDAY":
			ints, err := parseSignedIntList(key, value, 1, 31)
			if err != nil {
				return Rule{}, err
			}
			rule.ByMonthDay = ints

		case "BYDAY":
			days := strings.Split(value, ",")
			weekdays := make([]time.Weekday, len(days))
			for i, d := range days {
				wd, ok := codeToWeekday(strings.TrimSpace(d))
				if !ok {
					return Rule{}, &ParseError{Kind: ErrBadValue, Key: key, Value: d}
				}
				weekdays[i] = wd
			}
			rule.ByDay = weekdays

		case "BYSETPOS":
			ints, err := parseNonZeroIntList(key, value)
			if err != nil {
				return Rule{}, err
			}
			rule.BySetPos = ints
		}
	}

	if !hasFreq {
		return Rule{}, &ParseError{Kind: ErrMissingFreq}
	}
	if hasCount && hasUntil {
		return Rule{}, &ParseError{Kind: ErrConflictingLimit}
	}

	return rule, nil
}

// parseIntList parses a comma-separated list of positive integers in
// [lo, hi].
func parseIntList(key, value string, lo, hi int) ([]int, error) {
	parts := strings.Split(value, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &ParseError{Kind: ErrBadValue, Key: key, Value: p}
		}
		if n < lo || n > hi {
			return nil, &ParseError{Kind: ErrOutOfRange, Key: key, Value: p}
		}
		out[i] = n
	}
	return out, nil
}

// parseSignedIntList parses a comma-separated list of integers whose
// absolute value lies in [lo, hi]; negative values count from the end of
// the period (-1 = last).
func parseSignedIntList(key, value string, lo, hi int) ([]int, error) {
	parts := strings.Split(value, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &ParseError{Kind: ErrBadValue, Key: key, Value: p}
		}
		abs := n
		if abs < 0 {
			abs = -abs
		}
		if abs < lo || abs > hi {
			return nil, &ParseError{Kind: ErrOutOfRange, Key: key, Value: p}
		}
		out[i] = n
	}
	return out, nil
}

// parseNonZeroIntList parses a comma-separated list of nonzero integers.
func parseNonZeroIntList(key, value string) ([]int, error) {
	parts := strings.Split(value, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &ParseError{Kind: ErrBadValue, Key: key, Value: p}
		}
		if n == 0 {
			return nil, &ParseError{Kind: ErrOutOfRange, Key: key, Value: p}
		}
		out[i] = n
	}
	return out, nil
}
