package scheduler

import (
	"testing"
	"time"
)

func at(hour int) time.Time {
	return time.Date(2026, 3, 2, hour, 0, 0, 0, time.UTC)
}

func TestDetectConflicts(t *testing.T) {
	t.Run("participant overlap produces conflict", func(t *testing.T) {
		existing := []Schedule{{
			ID:           "existing-1",
			Participants: []string{"alice", "bob"},
			Start:        at(9),
			End:          at(10),
		}}
		candidate := Schedule{
			ID:           "candidate",
			Participants: []string{"bob", "carol"},
			Start:        at(9),
			End:          at(11),
		}

		conflicts := DetectConflicts(existing, candidate)

		if len(conflicts) != 1 {
			t.Fatalf("expected one conflict, got %v", conflicts)
		}
		if conflicts[0].Type != ConflictTypeParticipant {
			t.Fatalf("expected participant conflict, got %s", conflicts[0].Type)
		}
		if conflicts[0].Participant != "bob" {
			t.Fatalf("expected conflict for bob, got %s", conflicts[0].Participant)
		}
		if conflicts[0].WithScheduleID != "existing-1" {
			t.Fatalf("expected conflict against existing-1, got %s", conflicts[0].WithScheduleID)
		}
	})

	t.Run("room overlap produces conflict", func(t *testing.T) {
		room := "room-1"
		existing := []Schedule{{
			ID:     "existing-1",
			RoomID: &room,
			Start:  at(9),
			End:    at(10),
		}}
		candidate := Schedule{
			ID:     "candidate",
			RoomID: &room,
			Start:  at(9),
			End:    at(10),
		}

		conflicts := DetectConflicts(existing, candidate)

		if len(conflicts) != 1 {
			t.Fatalf("expected one conflict, got %v", conflicts)
		}
		if conflicts[0].Type != ConflictTypeRoom {
			t.Fatalf("expected room conflict, got %s", conflicts[0].Type)
		}
		if conflicts[0].RoomID == nil || *conflicts[0].RoomID != room {
			t.Fatalf("expected conflict for %s, got %v", room, conflicts[0].RoomID)
		}
	})

	t.Run("different rooms do not conflict", func(t *testing.T) {
		roomA, roomB := "room-a", "room-b"
		existing := []Schedule{{ID: "existing-1", RoomID: &roomA, Start: at(9), End: at(10)}}
		candidate := Schedule{ID: "candidate", RoomID: &roomB, Start: at(9), End: at(10)}

		if conflicts := DetectConflicts(existing, candidate); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %v", conflicts)
		}
	})

	t.Run("non-overlapping schedules yield no conflicts", func(t *testing.T) {
		room := "room-1"
		existing := []Schedule{{
			ID:           "existing-1",
			Participants: []string{"alice"},
			RoomID:       &room,
			Start:        at(9),
			End:          at(10),
		}}
		candidate := Schedule{
			ID:           "candidate",
			Participants: []string{"alice"},
			RoomID:       &room,
			Start:        at(10), // back-to-back is not an overlap
			End:          at(11),
		}

		if conflicts := DetectConflicts(existing, candidate); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %v", conflicts)
		}
	})
}
