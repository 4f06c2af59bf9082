package recurrence

import (
	"errors"
	"testing"
	"time"
)

func TestParse_Frequencies(t *testing.T) {
	t.Parallel()

	cases := map[string]Frequency{
		"FREQ=DAILY":   Daily,
		"FREQ=WEEKLY":  Weekly,
		"FREQ=MONTHLY": Monthly,
		"FREQ=YEARLY":  Yearly,
	}
	for input, want := range cases {
		input, want := input, want
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			rule, err := Parse(input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rule.Frequency != want {
				t.Fatalf("expected %v, got %v", want, rule.Frequency)
			}
			if rule.Interval != 1 {
				t.Fatalf("expected default interval 1, got %d", rule.Interval)
			}
			if rule.Limit.Kind != LimitIndefinite {
				t.Fatalf("expected indefinite limit, got %v", rule.Limit)
			}
		})
	}
}

func TestParse_Fields(t *testing.T) {
	t.Parallel()

	t.Run("interval", func(t *testing.T) {
		t.Parallel()
		rule, err := Parse("FREQ=DAILY;INTERVAL=3")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rule.Interval != 3 {
			t.Fatalf("expected interval 3, got %d", rule.Interval)
		}
	})

	t.Run("count", func(t *testing.T) {
		t.Parallel()
		rule, err := Parse("FREQ=DAILY;COUNT=10")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rule.Limit.Kind != LimitCount || rule.Limit.Count != 10 {
			t.Fatalf("expected count limit 10, got %v", rule.Limit)
		}
	})

	t.Run("until", func(t *testing.T) {
		t.Parallel()
		rule, err := Parse("FREQ=DAILY;UNTIL=20201231")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
		if rule.Limit.Kind != LimitUntil || !rule.Limit.Until.Equal(want) {
			t.Fatalf("expected until %v, got %v", want, rule.Limit)
		}
	})

	t.Run("byday preserves order", func(t *testing.T) {
		t.Parallel()
		rule, err := Parse("FREQ=WEEKLY;BYDAY=MO,WE,FR")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertWeekdays(t, rule.ByDay, time.Monday, time.Wednesday, time.Friday)
	})

	t.Run("bymonth", func(t *testing.T) {
		t.Parallel()
		rule, err := Parse("FREQ=YEARLY;BYMONTH=1,6,12")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rule.ByMonth) != 3 || rule.ByMonth[0] != 1 || rule.ByMonth[2] != 12 {
			t.Fatalf("unexpected by_month: %v", rule.ByMonth)
		}
	})

	t.Run("negative bymonthday", func(t *testing.T) {
		t.Parallel()
		rule, err := Parse("FREQ=MONTHLY;BYMONTHDAY=-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rule.ByMonthDay) != 1 || rule.ByMonthDay[0] != -1 {
			t.Fatalf("unexpected by_month_day: %v", rule.ByMonthDay)
		}
	})

	t.Run("bysetpos nonzero", func(t *testing.T) {
		t.Parallel()
		rule, err := Parse("FREQ=MONTHLY;BYSETPOS=1,-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rule.BySetPos) != 2 {
			t.Fatalf("unexpected by_set_pos: %v", rule.BySetPos)
		}
	})
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		kind  ParseErrorKind
	}{
		{"missing freq", "INTERVAL=2", ErrMissingFreq},
		{"unknown key", "FREQ=DAILY;BOGUS=1", ErrUnknownKey},
		{"duplicate key", "FREQ=DAILY;FREQ=WEEKLY", ErrDuplicateKey},
		{"bad freq value", "FREQ=FORTNIGHTLY", ErrBadValue},
		{"bad interval", "FREQ=DAILY;INTERVAL=abc", ErrBadValue},
		{"out of range interval", "FREQ=DAILY;INTERVAL=0", ErrOutOfRange},
		{"bad until", "FREQ=DAILY;UNTIL=2020-12-31", ErrBadValue},
		{"bad weekday code", "FREQ=WEEKLY;BYDAY=MONDAY", ErrBadValue},
		{"bymonth out of range", "FREQ=YEARLY;BYMONTH=13", ErrOutOfRange},
		{"byyearday out of range", "FREQ=YEARLY;BYYEARDAY=400", ErrOutOfRange},
		{"bysetpos zero", "FREQ=MONTHLY;BYSETPOS=0", ErrOutOfRange},
		{"conflicting limit", "FREQ=DAILY;COUNT=5;UNTIL=20200101", ErrConflictingLimit},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tc.input)
			if err == nil {
				t.Fatalf("expected error for %q", tc.input)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if parseErr.Kind != tc.kind {
				t.Fatalf("expected kind %v, got %v", tc.kind, parseErr.Kind)
			}
		})
	}
}

func TestParse_AbsentVsEmptyFilter(t *testing.T) {
	t.Parallel()

	t.Run("absent filter is nil", func(t *testing.T) {
		t.Parallel()
		rule, err := Parse("FREQ=DAILY")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rule.ByMonth != nil {
			t.Fatalf("expected nil by_month, got %v", rule.ByMonth)
		}
	})
}
