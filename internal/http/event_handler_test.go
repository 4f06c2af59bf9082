package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/calendar-engine/internal/event"
	"github.com/example/calendar-engine/internal/eventstore"
	"github.com/example/calendar-engine/internal/recurrence"
	"github.com/example/calendar-engine/internal/span"
)

type memoryEventStore struct {
	events map[uuid.UUID]event.EventPlain
}

func newMemoryEventStore() *memoryEventStore {
	return &memoryEventStore{events: make(map[uuid.UUID]event.EventPlain)}
}

func (s *memoryEventStore) Save(_ context.Context, p event.EventPlain) error {
	s.events[*p.ID] = p
	return nil
}

func (s *memoryEventStore) GetByID(_ context.Context, id uuid.UUID) (event.EventPlain, error) {
	p, ok := s.events[id]
	if !ok {
		return event.EventPlain{}, eventstore.ErrNotFound
	}
	return p, nil
}

func (s *memoryEventStore) ListRecurring(_ context.Context) ([]event.EventPlain, error) {
	var out []event.EventPlain
	for _, p := range s.events {
		if p.Recurrence != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memoryEventStore) DeleteByID(_ context.Context, id uuid.UUID) error {
	delete(s.events, id)
	return nil
}

func newEventTestRouter(store eventStore) (http.Handler, *EventHandler) {
	handler := NewEventHandler(store, nil)
	handler.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	handler.newID = func() uuid.UUID { return uuid.MustParse("11111111-2222-3333-4444-555555555555") }
	return NewRouter(RouterConfig{Events: handler}), handler
}

func storedRecurring(t *testing.T, store *memoryEventStore, rrule string, start time.Time) uuid.UUID {
	t.Helper()
	rule, err := recurrence.Parse(rrule)
	if err != nil {
		t.Fatalf("Parse(%q): %v", rrule, err)
	}
	recurring := event.EventRecurring{
		ID:           uuid.New(),
		Span:         span.NewDateSpan(start, start),
		Recurrence:   event.EventRecurrence{Rule: rule},
		LastModified: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := store.Save(context.Background(), recurring.Plain()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return recurring.ID
}

func TestEventHandlers_Create(t *testing.T) {
	t.Parallel()

	t.Run("creates a single event and stamps id and last_modified", func(t *testing.T) {
		t.Parallel()
		store := newMemoryEventStore()
		router, _ := newEventTestRouter(store)

		body := `{"start_date":"2026-03-02","end_date":"2026-03-02","start_time":"09:00","end_time":"10:00"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/calendar/cal-1/events", strings.NewReader(body))

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var payload event.EventPlain
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if payload.ID == nil || payload.ID.String() != "11111111-2222-3333-4444-555555555555" {
			t.Fatalf("expected server-assigned id, got %v", payload.ID)
		}
		if payload.LastModified == nil {
			t.Fatalf("expected server-stamped last_modified")
		}
		if _, ok := store.events[*payload.ID]; !ok {
			t.Fatalf("expected event to be persisted")
		}
	})

	t.Run("rejects a payload failing non-PATCH validation", func(t *testing.T) {
		t.Parallel()
		store := newMemoryEventStore()
		router, _ := newEventTestRouter(store)

		// start_time without end_time.
		body := `{"start_date":"2026-03-02","end_date":"2026-03-02","start_time":"09:00"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/calendar/cal-1/events", strings.NewReader(body))

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		if len(store.events) != 0 {
			t.Fatalf("nothing may be persisted on validation failure")
		}
	})

	t.Run("rejects a malformed rrule before persisting", func(t *testing.T) {
		t.Parallel()
		store := newMemoryEventStore()
		router, _ := newEventTestRouter(store)

		body := `{"start_date":"2026-03-02","end_date":"2026-03-02","recurrence":{"rrule":"FREQ=SOMETIMES"}}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/calendar/cal-1/events", strings.NewReader(body))

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(store.events) != 0 {
			t.Fatalf("nothing may be persisted for a malformed rrule")
		}
	})
}

func TestEventHandlers_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns the stored event", func(t *testing.T) {
		t.Parallel()
		store := newMemoryEventStore()
		id := storedRecurring(t, store, "FREQ=WEEKLY", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
		router, _ := newEventTestRouter(store)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/calendar/cal-1/events/"+id.String(), nil)

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var payload event.EventPlain
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if payload.ID == nil || *payload.ID != id {
			t.Fatalf("unexpected event id %v", payload.ID)
		}
	})

	t.Run("materializes instances inside a from/to window", func(t *testing.T) {
		t.Parallel()
		store := newMemoryEventStore()
		id := storedRecurring(t, store, "FREQ=WEEKLY", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
		router, _ := newEventTestRouter(store)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/calendar/cal-1/events/"+id.String()+"?from=2026-03-01&to=2026-03-31", nil)

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var payload eventExpansionResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		// Mondays in March 2026: 2, 9, 16, 23, 30.
		if len(payload.Instances) != 5 {
			t.Fatalf("expected 5 instances, got %d", len(payload.Instances))
		}
		for _, instance := range payload.Instances {
			if instance.ParentID == nil || *instance.ParentID != id {
				t.Fatalf("expected parent linkage to %s, got %v", id, instance.ParentID)
			}
		}
	})

	t.Run("rejects an inverted window", func(t *testing.T) {
		t.Parallel()
		store := newMemoryEventStore()
		id := storedRecurring(t, store, "FREQ=WEEKLY", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
		router, _ := newEventTestRouter(store)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/calendar/cal-1/events/"+id.String()+"?from=2026-03-31&to=2026-03-01", nil)

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for from > to, got %d", rec.Code)
		}
	})

	t.Run("maps an unknown id to 404 and a malformed id to 400", func(t *testing.T) {
		t.Parallel()
		store := newMemoryEventStore()
		router, _ := newEventTestRouter(store)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar/cal-1/events/"+uuid.NewString(), nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar/cal-1/events/not-a-uuid", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
		}
	})
}

func TestEventHandlers_Patch(t *testing.T) {
	t.Parallel()

	t.Run("merges the patch over the stored entity", func(t *testing.T) {
		t.Parallel()
		store := newMemoryEventStore()
		id := storedRecurring(t, store, "FREQ=WEEKLY", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
		router, _ := newEventTestRouter(store)

		body := `{"start_date":"2026-03-03","end_date":"2026-03-03"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/calendar/cal-1/events/"+id.String(), strings.NewReader(body))

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		stored := store.events[id]
		if stored.StartDate == nil || stored.StartDate.Format("2006-01-02") != "2026-03-03" {
			t.Fatalf("expected start_date to be patched, got %v", stored.StartDate)
		}
		if stored.Recurrence == nil {
			t.Fatalf("expected untouched recurrence block to survive the patch")
		}
	})

	t.Run("rejects a patch that breaks time-presence pairing", func(t *testing.T) {
		t.Parallel()
		store := newMemoryEventStore()
		id := storedRecurring(t, store, "FREQ=WEEKLY", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
		router, _ := newEventTestRouter(store)

		body := `{"start_time":"09:00"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/calendar/cal-1/events/"+id.String(), strings.NewReader(body))

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})
}

func TestEventHandlers_DeleteAndList(t *testing.T) {
	t.Parallel()

	t.Run("delete removes the stored event", func(t *testing.T) {
		t.Parallel()
		store := newMemoryEventStore()
		id := storedRecurring(t, store, "FREQ=WEEKLY", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
		router, _ := newEventTestRouter(store)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/calendar/cal-1/events/"+id.String(), nil)

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if len(store.events) != 0 {
			t.Fatalf("expected event to be deleted")
		}
	})

	t.Run("list expands every recurring event inside the window", func(t *testing.T) {
		t.Parallel()
		store := newMemoryEventStore()
		storedRecurring(t, store, "FREQ=WEEKLY", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
		storedRecurring(t, store, "FREQ=DAILY;COUNT=3", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
		router, _ := newEventTestRouter(store)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/calendar/cal-1/events?from=2026-03-01&to=2026-03-31", nil)

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var payload eventListResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(payload.Events) != 2 {
			t.Fatalf("expected 2 stored events, got %d", len(payload.Events))
		}
		// 5 weekly Mondays plus 3 daily occurrences.
		if len(payload.Instances) != 8 {
			t.Fatalf("expected 8 instances, got %d", len(payload.Instances))
		}
	})
}
