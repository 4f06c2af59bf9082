package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/calendar-engine/internal/application"
)

type stubScheduleService struct {
	created    *application.CreateScheduleParams
	updated    *application.UpdateScheduleParams
	deleted    []string
	listParams *application.ListSchedulesParams

	schedule  application.Schedule
	schedules []application.Schedule
	warnings  []application.ConflictWarning
	err       error
}

func (s *stubScheduleService) CreateSchedule(_ context.Context, params application.CreateScheduleParams) (application.Schedule, []application.ConflictWarning, error) {
	s.created = &params
	return s.schedule, s.warnings, s.err
}

func (s *stubScheduleService) UpdateSchedule(_ context.Context, params application.UpdateScheduleParams) (application.Schedule, []application.ConflictWarning, error) {
	s.updated = &params
	return s.schedule, s.warnings, s.err
}

func (s *stubScheduleService) DeleteSchedule(_ context.Context, _ application.Principal, scheduleID string) error {
	s.deleted = append(s.deleted, scheduleID)
	return s.err
}

func (s *stubScheduleService) ListSchedules(_ context.Context, params application.ListSchedulesParams) ([]application.Schedule, []application.ConflictWarning, error) {
	s.listParams = &params
	return s.schedules, s.warnings, s.err
}

func newScheduleTestRouter(service *stubScheduleService, principal application.Principal) http.Handler {
	handler := NewScheduleHandler(service, nil)
	router := NewRouter(RouterConfig{Schedules: handler})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		router.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

func TestScheduleHandlers(t *testing.T) {
	t.Parallel()

	t.Run("create decodes the request and renders the schedule with warnings", func(t *testing.T) {
		t.Parallel()
		roomID := "room-1"
		service := &stubScheduleService{
			schedule: application.Schedule{ID: "sched-1", CreatorID: "alice", Title: "Planning"},
			warnings: []application.ConflictWarning{{ScheduleID: "sched-2", Type: "participant", ParticipantID: "bob"}},
		}

		body := `{"title":"Planning","start":"2026-03-02T09:00:00+09:00","end":"2026-03-02T10:00:00+09:00","room_id":"` + roomID + `","participant_ids":["bob"]}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/schedules", strings.NewReader(body))

		newScheduleTestRouter(service, application.Principal{UserID: "alice"}).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if service.created == nil {
			t.Fatalf("expected CreateSchedule to be called")
		}
		if service.created.Principal.UserID != "alice" {
			t.Fatalf("expected principal from context, got %+v", service.created.Principal)
		}
		if got := service.created.Input.Title; got != "Planning" {
			t.Fatalf("unexpected title %q", got)
		}

		var payload scheduleResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if payload.Schedule.ID != "sched-1" {
			t.Fatalf("unexpected schedule id %q", payload.Schedule.ID)
		}
		if len(payload.Warnings) != 1 || payload.Warnings[0].ParticipantID != "bob" {
			t.Fatalf("expected conflict warning in payload, got %+v", payload.Warnings)
		}
	})

	t.Run("create maps service sentinel errors to HTTP status codes", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			name   string
			err    error
			status int
		}{
			{name: "unauthorized", err: application.ErrUnauthorized, status: http.StatusForbidden},
			{name: "not found", err: application.ErrNotFound, status: http.StatusNotFound},
			{name: "validation", err: &application.ValidationError{FieldErrors: map[string]string{"title": "title is required"}}, status: http.StatusUnprocessableEntity},
		}
		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()
				service := &stubScheduleService{err: tc.err}
				rec := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodPost, "/schedules", strings.NewReader(`{"title":"x"}`))

				newScheduleTestRouter(service, application.Principal{UserID: "alice"}).ServeHTTP(rec, req)

				if rec.Code != tc.status {
					t.Fatalf("expected %d, got %d", tc.status, rec.Code)
				}
			})
		}
	})

	t.Run("create rejects a malformed body", func(t *testing.T) {
		t.Parallel()
		service := &stubScheduleService{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/schedules", strings.NewReader("{not json"))

		newScheduleTestRouter(service, application.Principal{UserID: "alice"}).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if service.created != nil {
			t.Fatalf("service must not be called for a bad body")
		}
	})

	t.Run("update resolves the schedule id from the path", func(t *testing.T) {
		t.Parallel()
		service := &stubScheduleService{schedule: application.Schedule{ID: "sched-9"}}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/schedules/sched-9", strings.NewReader(`{"title":"Moved"}`))

		newScheduleTestRouter(service, application.Principal{UserID: "alice"}).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if service.updated == nil || service.updated.ScheduleID != "sched-9" {
			t.Fatalf("expected update for sched-9, got %+v", service.updated)
		}
	})

	t.Run("delete returns 204 and forwards the id", func(t *testing.T) {
		t.Parallel()
		service := &stubScheduleService{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/schedules/sched-3", nil)

		newScheduleTestRouter(service, application.Principal{UserID: "alice"}).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if len(service.deleted) != 1 || service.deleted[0] != "sched-3" {
			t.Fatalf("expected delete of sched-3, got %v", service.deleted)
		}
	})

	t.Run("list maps query parameters to service filter options", func(t *testing.T) {
		t.Parallel()
		service := &stubScheduleService{
			schedules: []application.Schedule{{
				ID: "sched-1",
				Occurrences: []application.ScheduleOccurrence{
					{ScheduleID: "sched-1", RuleID: "rule-1", Start: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
				},
			}},
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/schedules?participants=bob,carol&period=week&reference=2026-03-02T00:00:00Z", nil)

		newScheduleTestRouter(service, application.Principal{UserID: "alice"}).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if service.listParams == nil {
			t.Fatalf("expected ListSchedules to be called")
		}
		if got := service.listParams.ParticipantIDs; len(got) != 2 || got[0] != "bob" || got[1] != "carol" {
			t.Fatalf("unexpected participant filter %v", got)
		}
		if service.listParams.Period != application.ListPeriodWeek {
			t.Fatalf("expected week period, got %q", service.listParams.Period)
		}
		if service.listParams.PeriodReference.IsZero() {
			t.Fatalf("expected period reference to be set")
		}

		var payload scheduleListResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(payload.Schedules) != 1 || len(payload.Schedules[0].Occurrences) != 1 {
			t.Fatalf("expected expanded occurrences in payload, got %+v", payload.Schedules)
		}
	})
}
