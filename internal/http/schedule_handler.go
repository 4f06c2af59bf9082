package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/calendar-engine/internal/application"
)

// scheduleService defines the subset of application schedule operations required by the HTTP layer.
type scheduleService interface {
	CreateSchedule(ctx context.Context, params application.CreateScheduleParams) (application.Schedule, []application.ConflictWarning, error)
	UpdateSchedule(ctx context.Context, params application.UpdateScheduleParams) (application.Schedule, []application.ConflictWarning, error)
	DeleteSchedule(ctx context.Context, principal application.Principal, scheduleID string) error
	ListSchedules(ctx context.Context, params application.ListSchedulesParams) ([]application.Schedule, []application.ConflictWarning, error)
}

// ScheduleHandler exposes HTTP endpoints backed by the schedule service.
type ScheduleHandler struct {
	service   scheduleService
	responder responder
	logger    *slog.Logger
}

// NewScheduleHandler wires dependencies for schedule endpoints.
func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	base := defaultLogger(logger)
	return &ScheduleHandler{
		service:   service,
		responder: newResponder(base),
		logger:    base,
	}
}

// Create handles POST /schedules requests.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	logger := handlerLogger(r.Context(), h.logger, "ScheduleHandler", "Create")

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.ErrorContext(r.Context(), "failed to decode request body", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, warnings, err := h.service.CreateSchedule(r.Context(), application.CreateScheduleParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, warnings, http.StatusCreated)
}

// Update handles PUT /schedules/{id} requests.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	logger := handlerLogger(r.Context(), h.logger, "ScheduleHandler", "Update")

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.ErrorContext(r.Context(), "failed to decode request body", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, warnings, err := h.service.UpdateSchedule(r.Context(), application.UpdateScheduleParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		Input:      req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, warnings, http.StatusOK)
}

// Delete handles DELETE /schedules/{id} requests.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	if err := h.service.DeleteSchedule(r.Context(), principal, scheduleID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// List handles GET /schedules requests. Query parameters: participants
// (comma-separated ids), period (day|week|month) with reference, and
// explicit starts_after / ends_before RFC 3339 bounds.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	params := application.ListSchedulesParams{Principal: principal}

	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("participants")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				params.ParticipantIDs = append(params.ParticipantIDs, id)
			}
		}
	}
	if raw := strings.TrimSpace(query.Get("starts_after")); raw != "" {
		ts := parseTime(raw)
		params.StartsAfter = &ts
	}
	if raw := strings.TrimSpace(query.Get("ends_before")); raw != "" {
		ts := parseTime(raw)
		params.EndsBefore = &ts
	}
	switch strings.TrimSpace(query.Get("period")) {
	case "day":
		params.Period = application.ListPeriodDay
	case "week":
		params.Period = application.ListPeriodWeek
	case "month":
		params.Period = application.ListPeriodMonth
	}
	if params.Period != application.ListPeriodNone {
		params.PeriodReference = time.Now().UTC()
		if raw := strings.TrimSpace(query.Get("reference")); raw != "" {
			params.PeriodReference = parseTime(raw)
		}
	}

	schedules, warnings, err := h.service.ListSchedules(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := scheduleListResponse{
		Schedules: make([]scheduleDTO, 0, len(schedules)),
		Warnings:  toWarningDTOs(warnings),
	}
	for _, schedule := range schedules {
		payload.Schedules = append(payload.Schedules, toScheduleDTO(schedule))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

func (h *ScheduleHandler) renderSchedule(ctx context.Context, w http.ResponseWriter, schedule application.Schedule, warnings []application.ConflictWarning, status int) {
	payload := scheduleResponse{
		Schedule: toScheduleDTO(schedule),
		Warnings: toWarningDTOs(warnings),
	}
	h.responder.writeJSON(ctx, w, status, payload)
}

type scheduleRequest struct {
	CreatorID        string              `json:"creator_id"`
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	Start            string              `json:"start"`
	End              string              `json:"end"`
	RoomID           *string             `json:"room_id"`
	WebConferenceURL string              `json:"web_conference_url"`
	ParticipantIDs   []string            `json:"participant_ids"`
	Recurrence       *recurrenceInputDTO `json:"recurrence,omitempty"`
}

type recurrenceInputDTO struct {
	Frequency string   `json:"frequency"`
	Weekdays  []string `json:"weekdays,omitempty"`
	Until     *string  `json:"until,omitempty"`
}

func (r scheduleRequest) toInput() application.ScheduleInput {
	return application.ScheduleInput{
		CreatorID:        r.CreatorID,
		Title:            r.Title,
		Description:      r.Description,
		Start:            parseTime(r.Start),
		End:              parseTime(r.End),
		RoomID:           r.RoomID,
		WebConferenceURL: r.WebConferenceURL,
		ParticipantIDs:   r.ParticipantIDs,
		Recurrence:       r.Recurrence.toApplication(),
	}
}

func (r *recurrenceInputDTO) toApplication() *application.RecurrenceInput {
	if r == nil {
		return nil
	}
	input := &application.RecurrenceInput{
		Frequency: r.Frequency,
		Weekdays:  r.Weekdays,
	}
	if r.Until != nil {
		until := parseTime(*r.Until)
		input.Until = &until
	}
	return input
}

func parseTime(value string) time.Time {
	if strings.TrimSpace(value) == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

type scheduleResponse struct {
	Schedule scheduleDTO          `json:"schedule"`
	Warnings []conflictWarningDTO `json:"warnings,omitempty"`
}

type scheduleListResponse struct {
	Schedules []scheduleDTO        `json:"schedules"`
	Warnings  []conflictWarningDTO `json:"warnings,omitempty"`
}

type scheduleDTO struct {
	ID               string                  `json:"id"`
	CreatorID        string                  `json:"creator_id"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	Start            string                  `json:"start"`
	End              string                  `json:"end"`
	RoomID           *string                 `json:"room_id,omitempty"`
	WebConferenceURL string                  `json:"web_conference_url,omitempty"`
	ParticipantIDs   []string                `json:"participant_ids"`
	CreatedAt        string                  `json:"created_at"`
	UpdatedAt        string                  `json:"updated_at"`
	Occurrences      []scheduleOccurrenceDTO `json:"occurrences,omitempty"`
}

type scheduleOccurrenceDTO struct {
	RuleID string `json:"rule_id"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

func toScheduleDTO(schedule application.Schedule) scheduleDTO {
	return scheduleDTO{
		ID:               schedule.ID,
		CreatorID:        schedule.CreatorID,
		Title:            schedule.Title,
		Description:      schedule.Description,
		Start:            schedule.Start.UTC().Format(time.RFC3339Nano),
		End:              schedule.End.UTC().Format(time.RFC3339Nano),
		RoomID:           schedule.RoomID,
		WebConferenceURL: schedule.WebConferenceURL,
		ParticipantIDs:   append([]string(nil), schedule.ParticipantIDs...),
		CreatedAt:        schedule.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:        schedule.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Occurrences:      toScheduleOccurrenceDTOs(schedule.Occurrences),
	}
}

func toScheduleOccurrenceDTOs(occurrences []application.ScheduleOccurrence) []scheduleOccurrenceDTO {
	if len(occurrences) == 0 {
		return nil
	}
	out := make([]scheduleOccurrenceDTO, len(occurrences))
	for i, occ := range occurrences {
		out[i] = scheduleOccurrenceDTO{
			RuleID: occ.RuleID,
			Start:  occ.Start.UTC().Format(time.RFC3339Nano),
			End:    occ.End.UTC().Format(time.RFC3339Nano),
		}
	}
	return out
}

type conflictWarningDTO struct {
	ScheduleID    string  `json:"schedule_id"`
	Type          string  `json:"type"`
	ParticipantID string  `json:"participant_id,omitempty"`
	RoomID        *string `json:"room_id,omitempty"`
}

func toWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	if len(warnings) == 0 {
		return nil
	}

	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		dto := conflictWarningDTO{
			ScheduleID:    warning.ScheduleID,
			Type:          warning.Type,
			ParticipantID: warning.ParticipantID,
			RoomID:        warning.RoomID,
		}
		out = append(out, dto)
	}
	return out
}
