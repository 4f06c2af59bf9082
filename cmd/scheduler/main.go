package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/calendar-engine/internal/application"
	"github.com/example/calendar-engine/internal/config"
	"github.com/example/calendar-engine/internal/eventstore"
	httptransport "github.com/example/calendar-engine/internal/http"
	"github.com/example/calendar-engine/internal/persistence"
	"github.com/example/calendar-engine/internal/persistence/sqlite"
	"github.com/example/calendar-engine/internal/persistence/sqlite/migration"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(migration.DefaultSQLiteConfig(cfg.SQLiteDSN))
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := runDatabaseMigrations(ctx, pool, logger); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	events, err := eventstore.Open(ctx, cfg.SQLiteDSN, logger)
	if err != nil {
		logger.Error("failed to open event store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := events.Close(); cerr != nil {
			logger.Error("failed to close event store", "error", cerr)
		}
	}()

	idGenerator := func() string { return randomHex(16) }
	now := time.Now

	scheduleRepo := newScheduleRepositoryAdapter(sqlite.NewScheduleRepository(pool))
	recurrenceRepo := newRecurrenceRepositoryAdapter(sqlite.NewRecurrenceRepository(pool), idGenerator)

	scheduleService := application.NewScheduleServiceWithLogger(scheduleRepo, nil, nil, recurrenceRepo, idGenerator, now, logger)

	scheduleHandler := httptransport.NewScheduleHandler(scheduleService, logger)
	eventHandler := httptransport.NewEventHandler(events, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Schedules: scheduleHandler,
		Events:    eventHandler,
	})

	protected := httptransport.RequireAPIKey(newAPIKeyAuthenticator(cfg.APIKeys), logger)(router)
	handler := httptransport.RequestLogger(logger)(protected)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// newAPIKeyAuthenticator resolves Authorization header values against the
// keys configured via SCHEDULER_API_KEYS.
func newAPIKeyAuthenticator(keys map[string]config.APIKeyPrincipal) httptransport.APIKeyAuthenticatorFunc {
	return func(_ context.Context, key string) (application.Principal, error) {
		entry, ok := keys[key]
		if !ok {
			return application.Principal{}, application.ErrUnauthorized
		}
		return application.Principal{UserID: entry.UserID, IsAdmin: entry.IsAdmin}, nil
	}
}

// runDatabaseMigrations applies the embedded schema migrations against the
// pool's database, logging version progress the same way on every start.
func runDatabaseMigrations(ctx context.Context, pool *sqlite.ConnectionPool, logger *slog.Logger) error {
	logger.Info("initializing database migration system")

	migrations, err := migration.ScanFS(migration.Embedded())
	if err != nil {
		logger.Error("failed to scan embedded migrations", "error", err)
		return fmt.Errorf("failed to scan migrations: %w", err)
	}

	runner := migration.NewRunner(pool.DB())

	current, err := runner.CurrentVersion(ctx)
	if err != nil {
		logger.Error("could not determine current schema version", "error", err)
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("current database schema version", "version", current)

	pending, err := runner.Pending(ctx, migrations)
	if err != nil {
		logger.Error("failed to scan for pending migrations", "error", err)
		return fmt.Errorf("failed to get pending migrations: %w", err)
	}

	if len(pending) == 0 {
		logger.Info("database schema is up to date - no migrations pending")
		return nil
	}

	for i, m := range pending {
		logger.Info("migration queued for execution",
			"sequence", i+1,
			"total", len(pending),
			"version", m.Version,
			"description", m.Description)
	}

	migrationStartTime := time.Now()
	applied, err := runner.Apply(ctx, migrations)
	if err != nil {
		logger.Error("migration execution failed", "error", err, "applied", applied)
		return fmt.Errorf("migration execution failed: %w", err)
	}

	final, err := runner.CurrentVersion(ctx)
	if err != nil {
		logger.Warn("could not verify final schema version", "error", err)
	}

	logger.Info("database migrations completed successfully",
		"execution_time", time.Since(migrationStartTime),
		"migrations_applied", applied,
		"schema_version", final)
	return nil
}

type scheduleRepositoryAdapter struct {
	repo persistence.ScheduleRepository
}

func newScheduleRepositoryAdapter(repo persistence.ScheduleRepository) *scheduleRepositoryAdapter {
	return &scheduleRepositoryAdapter{repo: repo}
}

func (a *scheduleRepositoryAdapter) CreateSchedule(ctx context.Context, schedule application.Schedule) (application.Schedule, error) {
	if err := a.repo.CreateSchedule(ctx, toPersistenceSchedule(schedule)); err != nil {
		return application.Schedule{}, err
	}
	stored, err := a.repo.GetSchedule(ctx, schedule.ID)
	if err != nil {
		return application.Schedule{}, err
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleRepositoryAdapter) GetSchedule(ctx context.Context, id string) (application.Schedule, error) {
	stored, err := a.repo.GetSchedule(ctx, id)
	if err != nil {
		return application.Schedule{}, err
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleRepositoryAdapter) UpdateSchedule(ctx context.Context, schedule application.Schedule) (application.Schedule, error) {
	if err := a.repo.UpdateSchedule(ctx, toPersistenceSchedule(schedule)); err != nil {
		return application.Schedule{}, err
	}
	stored, err := a.repo.GetSchedule(ctx, schedule.ID)
	if err != nil {
		return application.Schedule{}, err
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleRepositoryAdapter) DeleteSchedule(ctx context.Context, id string) error {
	return a.repo.DeleteSchedule(ctx, id)
}

func (a *scheduleRepositoryAdapter) ListSchedules(ctx context.Context, filter application.ScheduleRepositoryFilter) ([]application.Schedule, error) {
	persistedFilter := persistence.ScheduleFilter{
		ParticipantIDs: append([]string(nil), filter.ParticipantIDs...),
		StartsAfter:    filter.StartsAfter,
		EndsBefore:     filter.EndsBefore,
	}
	models, err := a.repo.ListSchedules(ctx, persistedFilter)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	schedules := make([]application.Schedule, 0, len(models))
	for _, model := range models {
		schedules = append(schedules, toApplicationSchedule(model))
	}
	return schedules, nil
}

type recurrenceRepositoryAdapter struct {
	repo        persistence.RecurrenceRepository
	idGenerator func() string
}

func newRecurrenceRepositoryAdapter(repo persistence.RecurrenceRepository, idGenerator func() string) *recurrenceRepositoryAdapter {
	return &recurrenceRepositoryAdapter{repo: repo, idGenerator: idGenerator}
}

func (a *recurrenceRepositoryAdapter) SaveRecurrence(ctx context.Context, scheduleID string, start time.Time, recurrence application.RecurrenceInput) error {
	weekdays := make([]time.Weekday, 0, len(recurrence.Weekdays))
	for _, day := range recurrence.Weekdays {
		weekdays = append(weekdays, toWeekday(day))
	}

	now := time.Now().UTC()
	rule := persistence.RecurrenceRule{
		ID:         a.idGenerator(),
		ScheduleID: scheduleID,
		Frequency:  toPersistenceFrequency(recurrence.Frequency),
		Weekdays:   weekdays,
		StartsOn:   start,
		EndsOn:     recurrence.Until,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return a.repo.UpsertRecurrence(ctx, rule)
}

func (a *recurrenceRepositoryAdapter) ListRecurrencesForSchedules(ctx context.Context, scheduleIDs []string) (map[string][]application.RecurrenceRule, error) {
	result := make(map[string][]application.RecurrenceRule, len(scheduleIDs))
	for _, id := range scheduleIDs {
		rules, err := a.repo.ListRecurrencesForSchedule(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(rules) == 0 {
			continue
		}
		converted := make([]application.RecurrenceRule, len(rules))
		for i, rule := range rules {
			converted[i] = application.RecurrenceRule{
				ID:        rule.ID,
				Frequency: fromPersistenceFrequency(rule.Frequency),
				Weekdays:  fromWeekdays(rule.Weekdays),
				Until:     rule.EndsOn,
				StartsOn:  rule.StartsOn,
			}
		}
		result[id] = converted
	}
	return result, nil
}

func (a *recurrenceRepositoryAdapter) DeleteRecurrencesForSchedule(ctx context.Context, scheduleID string) error {
	return a.repo.DeleteRecurrencesForSchedule(ctx, scheduleID)
}

// Frequency codes are 1-based: the persistence layer rejects zero values.
func fromPersistenceFrequency(freq int) string {
	if freq == 1 {
		return "daily"
	}
	return "weekly"
}

func fromWeekdays(days []time.Weekday) []string {
	names := make([]string, 0, len(days))
	for _, day := range days {
		names = append(names, strings.ToLower(day.String()))
	}
	return names
}

func toWeekday(day string) time.Weekday {
	switch strings.ToLower(day) {
	case "sunday":
		return time.Sunday
	case "monday":
		return time.Monday
	case "tuesday":
		return time.Tuesday
	case "wednesday":
		return time.Wednesday
	case "thursday":
		return time.Thursday
	case "friday":
		return time.Friday
	case "saturday":
		return time.Saturday
	}
	return time.Sunday // Default
}

func toPersistenceFrequency(freq string) int {
	switch strings.ToLower(freq) {
	case "daily":
		return 1
	case "weekly":
		return 2
	}
	return 2 // Default to weekly
}

func toApplicationSchedule(model persistence.Schedule) application.Schedule {
	description := ""
	if model.Memo != nil {
		description = *model.Memo
	}
	webURL := ""
	if model.WebConferenceURL != nil {
		webURL = *model.WebConferenceURL
	}
	return application.Schedule{
		ID:               model.ID,
		CreatorID:        model.CreatorID,
		Title:            model.Title,
		Description:      description,
		Start:            model.Start,
		End:              model.End,
		RoomID:           cloneString(model.RoomID),
		WebConferenceURL: webURL,
		ParticipantIDs:   append([]string(nil), model.Participants...),
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func toPersistenceSchedule(schedule application.Schedule) persistence.Schedule {
	var memo *string
	if strings.TrimSpace(schedule.Description) != "" {
		memo = cloneString(&schedule.Description)
	}
	var web *string
	if strings.TrimSpace(schedule.WebConferenceURL) != "" {
		web = cloneString(&schedule.WebConferenceURL)
	}
	return persistence.Schedule{
		ID:               schedule.ID,
		Title:            schedule.Title,
		Start:            schedule.Start,
		End:              schedule.End,
		CreatorID:        schedule.CreatorID,
		Memo:             memo,
		Participants:     append([]string(nil), schedule.ParticipantIDs...),
		RoomID:           cloneString(schedule.RoomID),
		WebConferenceURL: web,
		CreatedAt:        schedule.CreatedAt,
		UpdatedAt:        schedule.UpdatedAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
