package persistence

import "context"
import "time"

// ScheduleFilter narrows schedule queries.
type ScheduleFilter struct {
	ParticipantIDs []string
	StartsAfter    *time.Time
	EndsBefore     *time.Time
}

// ScheduleRepository stores schedule entries and their participants.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) error
	UpdateSchedule(ctx context.Context, schedule Schedule) error
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// RecurrenceRepository stores recurrence rules attached to schedules.
type RecurrenceRepository interface {
	UpsertRecurrence(ctx context.Context, rule RecurrenceRule) error
	ListRecurrencesForSchedule(ctx context.Context, scheduleID string) ([]RecurrenceRule, error)
	DeleteRecurrence(ctx context.Context, id string) error
	DeleteRecurrencesForSchedule(ctx context.Context, scheduleID string) error
}
