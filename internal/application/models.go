package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// ScheduleInput captures caller provided schedule fields.
type ScheduleInput struct {
	CreatorID        string
	Title            string
	Description      string
	Start            time.Time
	End              time.Time
	RoomID           *string
	WebConferenceURL string
	ParticipantIDs   []string
	Recurrence       *RecurrenceInput
}

// RecurrenceInput captures the caller-supplied recurrence configuration for
// a schedule. Frequency and Weekdays are plain strings here (rather than the
// recurrence package's typed Frequency/Weekday) because this is the
// application-layer boundary: schedule_service renders it to an RRULE string
// before handing it to the recurrence engine.
type RecurrenceInput struct {
	Frequency string
	Weekdays  []string
	Until     *time.Time
}

// Schedule represents a persisted meeting schedule.
type Schedule struct {
	ID               string
	CreatorID        string
	Title            string
	Description      string
	Start            time.Time
	End              time.Time
	RoomID           *string
	WebConferenceURL string
	ParticipantIDs   []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Occurrences      []ScheduleOccurrence
}

// ScheduleOccurrence represents an expanded occurrence generated from a recurrence rule.
type ScheduleOccurrence struct {
	ScheduleID string
	RuleID     string
	Start      time.Time
	End        time.Time
}

// ConflictWarning describes a scheduling conflict that should be surfaced to callers.
type ConflictWarning struct {
	ScheduleID    string
	Type          string
	ParticipantID string
	RoomID        *string
}

// CreateScheduleParams wraps the data required to create a schedule.
type CreateScheduleParams struct {
	Principal Principal
	Input     ScheduleInput
}

// UpdateScheduleParams wraps the data required to update an existing schedule.
type UpdateScheduleParams struct {
	Principal  Principal
	ScheduleID string
	Input      ScheduleInput
}

// ListPeriod identifies the range preset requested for schedule listings.
type ListPeriod string

const (
	// ListPeriodNone indicates no preset; caller supplied explicit bounds.
	ListPeriodNone ListPeriod = ""
	// ListPeriodDay constrains results to a single day.
	ListPeriodDay ListPeriod = "day"
	// ListPeriodWeek constrains results to the Monday-start week containing the reference time.
	ListPeriodWeek ListPeriod = "week"
	// ListPeriodMonth constrains results to the month containing the reference time.
	ListPeriodMonth ListPeriod = "month"
)

// ListSchedulesParams wraps the data required to list schedules.
type ListSchedulesParams struct {
	Principal       Principal
	ParticipantIDs  []string
	StartsAfter     *time.Time
	EndsBefore      *time.Time
	Period          ListPeriod
	PeriodReference time.Time
}

