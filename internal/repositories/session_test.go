package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"docq/internal/models"
	"docq/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func sampleSession(id string, createdAt time.Time) models.ChatSession {
	return models.ChatSession{
		ID:        id,
		UserID:    "u1",
		Filename:  "report.pdf",
		CreatedAt: createdAt,
		Messages: []models.Message{
			{ID: id + "-m1", Query: "What is this about?", Answer: "A report.", Sources: []string{"report.pdf"}, Timestamp: createdAt.Add(time.Minute)},
			{ID: id + "-m2", Query: "Summarize it.", Answer: "Done.", Timestamp: createdAt.Add(2 * time.Minute)},
		},
	}
}

func TestSessionRepository(t *testing.T) {
	t.Run("SaveAndGet", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		want := sampleSession("s1", time.Now().UTC().Truncate(time.Second))

		if err := repo.Save(want); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := repo.Get("s1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Filename != want.Filename || got.UserID != want.UserID {
			t.Errorf("Got %+v, want %+v", got, want)
		}
		if len(got.Messages) != 2 {
			t.Fatalf("Expected 2 messages, got %d", len(got.Messages))
		}
		if got.Messages[0].Query != "What is this about?" {
			t.Errorf("Messages out of order: %v", got.Messages)
		}
		if len(got.Messages[0].Sources) != 1 || got.Messages[0].Sources[0] != "report.pdf" {
			t.Errorf("Sources not round-tripped: %v", got.Messages[0].Sources)
		}
	})

	t.Run("SaveIsUpsert", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := sampleSession("s1", time.Now().UTC())
		if err := repo.Save(session); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		session.Filename = "renamed.pdf"
		session.Messages = session.Messages[:1]
		if err := repo.Save(session); err != nil {
			t.Fatalf("Second Save failed: %v", err)
		}

		got, err := repo.Get("s1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Filename != "renamed.pdf" {
			t.Errorf("Expected renamed.pdf, got %s", got.Filename)
		}
		if len(got.Messages) != 1 {
			t.Errorf("Transcript should be replaced, got %d messages", len(got.Messages))
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		_, err := repo.Get("missing")
		if !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		base := time.Now().UTC().Truncate(time.Second)
		for i, id := range []string{"old", "mid", "new"} {
			if err := repo.Save(sampleSession(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
				t.Fatalf("Save %s failed: %v", id, err)
			}
		}

		sessions, err := repo.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(sessions) != 3 {
			t.Fatalf("Expected 3 sessions, got %d", len(sessions))
		}
		if sessions[0].ID != "new" || sessions[2].ID != "old" {
			t.Errorf("Wrong order: %s, %s, %s", sessions[0].ID, sessions[1].ID, sessions[2].ID)
		}
	})

	t.Run("Refresh", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if err := repo.Save(sampleSession("stale", time.Now().UTC())); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		fresh := []models.ChatSession{
			sampleSession("a", time.Now().UTC()),
			sampleSession("b", time.Now().UTC()),
		}
		if err := repo.Refresh(fresh); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}

		sessions, err := repo.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("Expected 2 sessions after refresh, got %d", len(sessions))
		}
		if _, err := repo.Get("stale"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("Stale session should be gone, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if err := repo.Save(sampleSession("s1", time.Now().UTC())); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		if err := repo.Delete("s1"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := repo.Get("s1"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
		}

		if err := repo.Delete("s1"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("Deleting a missing session should fail, got %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		for _, id := range []string{"s1", "s2"} {
			if err := repo.Save(sampleSession(id, time.Now().UTC())); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}

		if err := repo.Clear(); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		sessions, err := repo.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(sessions) != 0 {
			t.Errorf("Expected empty cache, got %d sessions", len(sessions))
		}
	})
}
