package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"docq/internal/models"
	"docq/internal/shared"
)

// SessionRepository caches chat sessions and their transcripts in SQLite.
//
// The backend owns the data; the cache is refreshed wholesale on every
// successful fetch and read when the backend cannot be reached.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save upserts a session and replaces its cached transcript in one transaction.
func (r *SessionRepository) Save(session models.ChatSession) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.saveTx(tx, session); err != nil {
		return err
	}
	return tx.Commit()
}

// Refresh replaces the entire cache with a freshly fetched session list.
func (r *SessionRepository) Refresh(sessions []models.ChatSession) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages"); err != nil {
		return fmt.Errorf("failed to clear cached messages: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM chat_sessions"); err != nil {
		return fmt.Errorf("failed to clear cached sessions: %w", err)
	}

	for _, session := range sessions {
		if err := r.saveTx(tx, session); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SessionRepository) saveTx(tx *sql.Tx, session models.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (id, user_id, filename, created_at, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			filename = excluded.filename,
			created_at = excluded.created_at,
			cached_at = excluded.cached_at
	`
	if _, err := tx.Exec(query, session.ID, session.UserID, session.Filename, session.CreatedAt, time.Now()); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM messages WHERE session_id = ?", session.ID); err != nil {
		return fmt.Errorf("failed to clear session transcript: %w", err)
	}

	for _, msg := range session.Messages {
		id := msg.ID
		if id == "" {
			id = shared.GenerateID()
		}
		sources, err := json.Marshal(msg.Sources)
		if err != nil {
			return fmt.Errorf("failed to encode sources: %w", err)
		}

		insert := `
			INSERT INTO messages (id, session_id, query, answer, sources, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.Exec(insert, id, session.ID, msg.Query, msg.Answer, string(sources), msg.Timestamp); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}
	return nil
}

// Get retrieves a cached session with its transcript.
func (r *SessionRepository) Get(id string) (*models.ChatSession, error) {
	query := `
		SELECT id, user_id, filename, created_at
		FROM chat_sessions
		WHERE id = ?
	`

	var session models.ChatSession
	err := r.db.QueryRow(query, id).Scan(&session.ID, &session.UserID, &session.Filename, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	messages, err := r.messages(session.ID)
	if err != nil {
		return nil, err
	}
	session.Messages = messages
	return &session, nil
}

// List returns all cached sessions with transcripts, newest first.
func (r *SessionRepository) List() ([]models.ChatSession, error) {
	query := `
		SELECT id, user_id, filename, created_at
		FROM chat_sessions
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ChatSession
	for rows.Next() {
		var session models.ChatSession
		if err := rows.Scan(&session.ID, &session.UserID, &session.Filename, &session.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	for i := range sessions {
		messages, err := r.messages(sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Messages = messages
	}
	return sessions, nil
}

func (r *SessionRepository) messages(sessionID string) ([]models.Message, error) {
	query := `
		SELECT id, query, answer, sources, timestamp
		FROM messages
		WHERE session_id = ?
		ORDER BY timestamp ASC
	`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var sources string
		if err := rows.Scan(&msg.ID, &msg.Query, &msg.Answer, &sources, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if sources != "" {
			if err := json.Unmarshal([]byte(sources), &msg.Sources); err != nil {
				return nil, fmt.Errorf("failed to decode sources: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// Delete removes one cached session and its transcript.
func (r *SessionRepository) Delete(id string) error {
	if _, err := r.db.Exec("DELETE FROM messages WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session transcript: %w", err)
	}
	result, err := r.db.Exec("DELETE FROM chat_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return nil
}

// Clear empties the cache, mirroring a server-side history wipe.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM messages"); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	if _, err := r.db.Exec("DELETE FROM chat_sessions"); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	return nil
}
