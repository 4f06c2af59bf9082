package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/calendar-engine/internal/event"
	"github.com/example/calendar-engine/internal/eventstore"
	"github.com/example/calendar-engine/internal/recurrence"
)

// eventStore defines the subset of eventstore operations required by the HTTP layer.
type eventStore interface {
	Save(ctx context.Context, p event.EventPlain) error
	GetByID(ctx context.Context, id uuid.UUID) (event.EventPlain, error)
	ListRecurring(ctx context.Context) ([]event.EventPlain, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// EventHandler exposes calendar event endpoints backed by an event store.
// Events live under /calendar/{calendar_id}/events; each store instance
// scopes a single calendar, so the calendar id is carried for routing and
// logging only.
type EventHandler struct {
	store     eventStore
	responder responder
	logger    *slog.Logger
	now       func() time.Time
	newID     func() uuid.UUID
}

// NewEventHandler wires dependencies for event endpoints.
func NewEventHandler(store eventStore, logger *slog.Logger) *EventHandler {
	base := defaultLogger(logger)
	return &EventHandler{
		store:     store,
		responder: newResponder(base),
		logger:    base,
		now:       time.Now,
		newID:     uuid.New,
	}
}

// Create handles POST /calendar/{calendar_id}/events. The body is an
// EventPlain; it must satisfy the strict non-PATCH validity rules. A missing
// id or last_modified is filled in server-side.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	logger := h.loggerFor(r, "Create")

	var plain event.EventPlain
	if err := json.NewDecoder(r.Body).Decode(&plain); err != nil {
		logger.ErrorContext(r.Context(), "failed to decode request body", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if !plain.ValidateNonPatch() {
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{Message: "入力内容に誤りがあります。"})
		return
	}

	if plain.ID == nil {
		id := h.newID()
		plain.ID = &id
	}
	if plain.LastModified == nil {
		plain = stampLastModified(plain, h.now())
	}

	// ToEvent also parses the recurrence rrule, rejecting malformed rules
	// before anything is persisted.
	if _, err := plain.ToEvent(); err != nil {
		h.renderEventError(r, w, err)
		return
	}

	if err := h.store.Save(r.Context(), plain); err != nil {
		h.renderEventError(r, w, err)
		return
	}

	logger.With("event_id", plain.ID).InfoContext(r.Context(), "event created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, plain)
}

// Get handles GET /calendar/{calendar_id}/events/{event_id}. With from/to
// query bounds (YYYY-MM-DD, from <= to) on a recurring event, the response
// carries the materialized instances in that window instead of the stored
// entity alone.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.eventIDFrom(r, w)
	if !ok {
		return
	}

	plain, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.renderEventError(r, w, err)
		return
	}

	from, to, window, err := expansionWindow(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	if !window || plain.Recurrence == nil {
		h.responder.writeJSON(r.Context(), w, http.StatusOK, plain)
		return
	}

	typed, err := plain.ToEvent()
	if err != nil {
		h.renderEventError(r, w, err)
		return
	}
	recurring, _ := typed.Recurring()

	instances, err := event.Materialize(recurring, from, to)
	if err != nil {
		h.renderEventError(r, w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventExpansionResponse{
		Event:     plain,
		Instances: instancesToPlain(instances),
	})
}

// List handles GET /calendar/{calendar_id}/events. Without bounds it
// returns the stored recurring events; with from/to bounds it returns every
// instance those events materialize to inside the window.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	events, err := h.store.ListRecurring(r.Context())
	if err != nil {
		h.renderEventError(r, w, err)
		return
	}

	from, to, window, err := expansionWindow(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	if !window {
		h.responder.writeJSON(r.Context(), w, http.StatusOK, eventListResponse{Events: events})
		return
	}

	var instances []event.EventInstance
	for _, plain := range events {
		typed, err := plain.ToEvent()
		if err != nil {
			h.renderEventError(r, w, err)
			return
		}
		recurring, ok := typed.Recurring()
		if !ok {
			continue
		}
		expanded, err := event.Materialize(recurring, from, to)
		if err != nil {
			h.renderEventError(r, w, err)
			return
		}
		instances = append(instances, expanded...)
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventListResponse{
		Events:    events,
		Instances: instancesToPlain(instances),
	})
}

// Patch handles PATCH /calendar/{calendar_id}/events/{event_id}: any subset
// of EventPlain fields, validated against the stored entity before the
// merged result replaces it.
func (h *EventHandler) Patch(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	logger := h.loggerFor(r, "Patch")

	id, ok := h.eventIDFrom(r, w)
	if !ok {
		return
	}

	existing, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.renderEventError(r, w, err)
		return
	}

	var patch event.EventPlain
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		logger.ErrorContext(r.Context(), "failed to decode request body", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	// The path, not the body, names the entity.
	patch.ID = nil

	if !patch.ValidatePatch(&existing) {
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{Message: "入力内容に誤りがあります。"})
		return
	}

	merged := patch.Merge(existing)
	merged = stampLastModified(merged, h.now())

	if _, err := merged.ToEvent(); err != nil {
		h.renderEventError(r, w, err)
		return
	}

	if err := h.store.Save(r.Context(), merged); err != nil {
		h.renderEventError(r, w, err)
		return
	}

	logger.With("event_id", merged.ID).InfoContext(r.Context(), "event patched")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, merged)
}

// Delete handles DELETE /calendar/{calendar_id}/events/{event_id}.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.eventIDFrom(r, w)
	if !ok {
		return
	}

	if err := h.store.DeleteByID(r.Context(), id); err != nil {
		h.renderEventError(r, w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *EventHandler) eventIDFrom(r *http.Request, w http.ResponseWriter) (uuid.UUID, bool) {
	raw, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(raw) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *EventHandler) loggerFor(r *http.Request, operation string) *slog.Logger {
	attrs := []any{}
	if calendarID, ok := CalendarIDFromContext(r.Context()); ok {
		attrs = append(attrs, "calendar_id", calendarID)
	}
	return handlerLogger(r.Context(), h.logger, "EventHandler", operation, attrs...)
}

func (h *EventHandler) renderEventError(r *http.Request, w http.ResponseWriter, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, eventstore.ErrNotFound):
		h.responder.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "指定されたリソースが見つかりません。"})
		return
	}

	var plainErr *event.FromPlainError
	if errors.As(err, &plainErr) {
		h.responder.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: plainErr.Kind.String(),
			Message:   plainErr.Error(),
		})
		return
	}

	var domainErr *recurrence.RuleDomainError
	if errors.As(err, &domainErr) {
		h.responder.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "rule_domain_error",
			Message:   domainErr.Error(),
		})
		return
	}

	h.loggerFor(r, "").ErrorContext(ctx, "event operation failed", "error", err, "error_kind", eventstore.ErrorKind(err))
	h.responder.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "サーバー内部でエラーが発生しました。"})
}

// expansionWindow reads the from/to date bounds used for instance
// materialization. Both must be present together, and from must not be
// after to.
func expansionWindow(r *http.Request) (from, to time.Time, ok bool, err error) {
	query := r.URL.Query()
	rawFrom := strings.TrimSpace(query.Get("from"))
	rawTo := strings.TrimSpace(query.Get("to"))
	if rawFrom == "" && rawTo == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if rawFrom == "" || rawTo == "" {
		return time.Time{}, time.Time{}, false, errors.New("from と to は両方指定してください")
	}
	from, err = time.Parse("2006-01-02", rawFrom)
	if err != nil {
		return time.Time{}, time.Time{}, false, errors.New("from の日付形式が不正です")
	}
	to, err = time.Parse("2006-01-02", rawTo)
	if err != nil {
		return time.Time{}, time.Time{}, false, errors.New("to の日付形式が不正です")
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, false, errors.New("from は to 以前である必要があります")
	}
	return from, to, true, nil
}

func stampLastModified(p event.EventPlain, now time.Time) event.EventPlain {
	p.SetLastModified(now.UTC())
	return p
}

func instancesToPlain(instances []event.EventInstance) []event.EventPlain {
	if len(instances) == 0 {
		return nil
	}
	out := make([]event.EventPlain, len(instances))
	for i, instance := range instances {
		out[i] = instance.Plain()
	}
	return out
}

type eventExpansionResponse struct {
	Event     event.EventPlain   `json:"event"`
	Instances []event.EventPlain `json:"instances,omitempty"`
}

type eventListResponse struct {
	Events    []event.EventPlain `json:"events"`
	Instances []event.EventPlain `json:"instances,omitempty"`
}
