package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/calendar-engine/internal/persistence"
	"github.com/example/calendar-engine/internal/persistence/sqlite/migration"
)

func TestScheduleRepository_CreateSchedule(t *testing.T) {
	repo, cleanup := setupScheduleRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()

	start := time.Now().UTC().Add(time.Hour)
	end := start.Add(time.Hour)
	memo := "Quarterly planning"

	schedule := persistence.Schedule{
		ID:           "schedule1",
		Title:        "Planning",
		Start:        start,
		End:          end,
		CreatorID:    "user1",
		Memo:         &memo,
		Participants: []string{"user2"},
	}

	err := repo.CreateSchedule(ctx, schedule)
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	// Verify schedule was created
	retrieved, err := repo.GetSchedule(ctx, "schedule1")
	if err != nil {
		t.Fatalf("GetSchedule failed: %v", err)
	}

	if retrieved.Title != "Planning" {
		t.Errorf("Expected title 'Planning', got '%s'", retrieved.Title)
	}
	if retrieved.CreatorID != "user1" {
		t.Errorf("Expected creator 'user1', got '%s'", retrieved.CreatorID)
	}
	if len(retrieved.Participants) != 1 || retrieved.Participants[0] != "user2" {
		t.Errorf("Expected participants ['user2'], got %v", retrieved.Participants)
	}
}

func TestScheduleRepository_CreateSchedule_InvalidTime(t *testing.T) {
	repo, cleanup := setupScheduleRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()

	start := time.Now().UTC().Add(time.Hour)
	end := start.Add(-time.Hour) // End before start - invalid

	schedule := persistence.Schedule{
		ID:        "schedule1",
		Title:     "Planning",
		Start:     start,
		End:       end,
		CreatorID: "user1",
	}

	err := repo.CreateSchedule(ctx, schedule)
	if err == nil {
		t.Fatal("Expected constraint violation error for invalid time range, got nil")
	}
}

func TestScheduleRepository_UpdateSchedule(t *testing.T) {
	repo, cleanup := setupScheduleRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()

	start := time.Now().UTC().Add(time.Hour)
	end := start.Add(time.Hour)

	schedule := persistence.Schedule{
		ID:           "schedule1",
		Title:        "Planning",
		Start:        start,
		End:          end,
		CreatorID:    "user1",
		Participants: []string{"user2"},
	}

	err := repo.CreateSchedule(ctx, schedule)
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	// Update schedule
	schedule.Title = "Updated Planning"
	schedule.Participants = []string{"user2", "user3"}
	err = repo.UpdateSchedule(ctx, schedule)
	if err != nil {
		t.Fatalf("UpdateSchedule failed: %v", err)
	}

	// Verify update
	retrieved, err := repo.GetSchedule(ctx, "schedule1")
	if err != nil {
		t.Fatalf("GetSchedule failed: %v", err)
	}

	if retrieved.Title != "Updated Planning" {
		t.Errorf("Expected title 'Updated Planning', got '%s'", retrieved.Title)
	}
	if len(retrieved.Participants) != 2 {
		t.Errorf("Expected 2 participants, got %d", len(retrieved.Participants))
	}
}

func TestScheduleRepository_ListSchedules_WithFilter(t *testing.T) {
	repo, cleanup := setupScheduleRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()

	now := time.Now().UTC()

	// Create multiple schedules
	schedules := []persistence.Schedule{
		{
			ID:        "schedule1",
			Title:     "Meeting 1",
			Start:     now.Add(time.Hour),
			End:       now.Add(2 * time.Hour),
			CreatorID: "user1",
		},
		{
			ID:           "schedule2",
			Title:        "Meeting 2",
			Start:        now.Add(3 * time.Hour),
			End:          now.Add(4 * time.Hour),
			CreatorID:    "user1",
			Participants: []string{"user2"},
		},
	}

	for _, schedule := range schedules {
		err := repo.CreateSchedule(ctx, schedule)
		if err != nil {
			t.Fatalf("CreateSchedule failed for %s: %v", schedule.ID, err)
		}
	}

	// Test filter by participant
	filter := persistence.ScheduleFilter{
		ParticipantIDs: []string{"user2"},
	}

	retrieved, err := repo.ListSchedules(ctx, filter)
	if err != nil {
		t.Fatalf("ListSchedules failed: %v", err)
	}

	if len(retrieved) != 1 {
		t.Errorf("Expected 1 schedule with user2 as participant, got %d", len(retrieved))
	}
	if len(retrieved) > 0 && retrieved[0].ID != "schedule2" {
		t.Errorf("Expected schedule2, got %s", retrieved[0].ID)
	}
}

func TestScheduleRepository_DeleteSchedule(t *testing.T) {
	repo, cleanup := setupScheduleRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()

	start := time.Now().UTC().Add(time.Hour)
	end := start.Add(time.Hour)

	schedule := persistence.Schedule{
		ID:        "schedule1",
		Title:     "Planning",
		Start:     start,
		End:       end,
		CreatorID: "user1",
	}

	err := repo.CreateSchedule(ctx, schedule)
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	// Delete schedule
	err = repo.DeleteSchedule(ctx, "schedule1")
	if err != nil {
		t.Fatalf("DeleteSchedule failed: %v", err)
	}

	// Verify schedule is deleted
	_, err = repo.GetSchedule(ctx, "schedule1")
	if err == nil {
		t.Fatal("Expected schedule to be deleted, but GetSchedule succeeded")
	}
}

// setupScheduleRepositoryTest opens a temp database and applies the same
// embedded migrations the binary ships, so the tests exercise the
// production schema rather than a hand-rolled copy.
func setupScheduleRepositoryTest(t *testing.T) (*ScheduleRepository, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	config := migration.TempFileTestSQLiteConfig(dbPath)
	pool, err := NewConnectionPool(config)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}

	ctx := context.Background()
	migrations, err := migration.ScanFS(migration.Embedded())
	if err != nil {
		pool.Close()
		t.Fatalf("Failed to scan embedded migrations: %v", err)
	}
	if _, err := migration.NewRunner(pool.DB()).Apply(ctx, migrations); err != nil {
		pool.Close()
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	repo := NewScheduleRepository(pool)

	cleanup := func() {
		pool.Close()
	}

	return repo, cleanup
}
