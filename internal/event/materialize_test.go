package event

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/calendar-engine/internal/recurrence"
	"github.com/example/calendar-engine/internal/span"
)

func TestMaterialize_WeeklyWithExdateAndRdate(t *testing.T) {
	t.Parallel()

	rule, err := recurrence.Parse("FREQ=WEEKLY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id := uuid.New()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) // Wednesday
	recurring := EventRecurring{
		ID:   id,
		Span: span.NewDateSpan(start, start),
		Recurrence: EventRecurrence{
			Rule:    rule,
			ExDates: []time.Time{time.Date(2020, 1, 8, 0, 0, 0, 0, time.UTC)},
			RDates:  []time.Time{time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC)},
		},
	}

	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2020, 1, 22, 0, 0, 0, 0, time.UTC)

	instances, err := Materialize(recurring, from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Time{
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 22, 0, 0, 0, 0, time.UTC),
	}
	if len(instances) != len(want) {
		t.Fatalf("expected %d instances, got %d: %v", len(want), len(instances), instances)
	}
	for i, w := range want {
		if !instances[i].Span.StartDate().Equal(w) {
			t.Fatalf("instance %d: expected %v, got %v", i, w, instances[i].Span.StartDate())
		}
		if instances[i].ParentID != id {
			t.Fatalf("instance %d: expected parent id %v, got %v", i, id, instances[i].ParentID)
		}
	}
}

func TestMaterialize_PreservesTimeOfDay(t *testing.T) {
	t.Parallel()

	rule, err := recurrence.Parse("FREQ=DAILY;COUNT=3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Date(2020, 1, 1, 9, 30, 0, 0, time.UTC)
	end := time.Date(2020, 1, 1, 10, 30, 0, 0, time.UTC)
	recurring := EventRecurring{
		ID:   uuid.New(),
		Span: span.NewDateTimeSpan(start, end),
		Recurrence: EventRecurrence{
			Rule: rule,
		},
	}

	instances, err := Materialize(recurring, start, time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(instances))
	}
	for i, inst := range instances {
		startTime, ok := inst.Span.StartTime()
		if !ok {
			t.Fatalf("instance %d: expected a date-time span", i)
		}
		if startTime.Hour() != 9 || startTime.Minute() != 30 {
			t.Fatalf("instance %d: expected 09:30 start time, got %v", i, startTime)
		}
	}
}

func TestMaterialize_DomainErrorAborts(t *testing.T) {
	t.Parallel()

	recurring := EventRecurring{
		ID:   uuid.New(),
		Span: span.NewDateSpan(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
		Recurrence: EventRecurrence{
			Rule: recurrence.Rule{Frequency: recurrence.Weekly, Interval: 1, Limit: recurrence.Indefinite(), ByMonthDay: []int{1}},
		},
	}

	_, err := Materialize(recurring, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected a RuleDomainError")
	}
}
