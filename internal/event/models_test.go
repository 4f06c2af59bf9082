package event

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/calendar-engine/internal/span"
)

func TestEvent_RecurringRoundTrip(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	recurring := EventRecurring{
		ID:           id,
		Span:         span.NewDateSpan(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
		LastModified: time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	e := NewRecurringEvent(recurring)
	if e.Kind() != KindRecurring {
		t.Fatalf("expected KindRecurring, got %v", e.Kind())
	}
	if e.ID() != id {
		t.Fatalf("expected id %v, got %v", id, e.ID())
	}
	if _, ok := e.Single(); ok {
		t.Fatal("expected Single() to report false for a recurring event")
	}
	got, ok := e.Recurring()
	if !ok {
		t.Fatal("expected Recurring() to report true")
	}
	if got.ID != id {
		t.Fatalf("expected id %v, got %v", id, got.ID)
	}
}

func TestEvent_SingleRoundTrip(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	parentID := uuid.New()
	single := EventSingle{
		ID:           id,
		ParentID:     &parentID,
		Span:         span.NewDateSpan(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
		LastModified: time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	e := NewSingleEvent(single)
	if e.Kind() != KindSingle {
		t.Fatalf("expected KindSingle, got %v", e.Kind())
	}
	if e.ID() != id {
		t.Fatalf("expected id %v, got %v", id, e.ID())
	}
	if _, ok := e.Recurring(); ok {
		t.Fatal("expected Recurring() to report false for a single event")
	}
	got, ok := e.Single()
	if !ok {
		t.Fatal("expected Single() to report true")
	}
	if *got.ParentID != parentID {
		t.Fatalf("expected parent id %v, got %v", parentID, *got.ParentID)
	}
}
