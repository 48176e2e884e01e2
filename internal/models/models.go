// package models defines the data model for the document chat client
package models

import (
	"strings"
	"time"
)

// User represents the authenticated identity returned by the backend.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Message represents one question/answer exchange within a chat session.
type Message struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Sources   []string  `json:"sources"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession represents a conversation scoped to an uploaded document.
type ChatSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// Stats represents the aggregate counters shown on the authenticated landing view.
type Stats struct {
	TotalDocuments   int `json:"total_documents"`
	TotalChunks      int `json:"total_chunks"`
	ChatHistoryCount int `json:"chat_history_count"`
}

// Matches reports whether the message's query or answer contains term (case-insensitive).
// An empty term matches everything.
func (m Message) Matches(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(m.Query), term) ||
		strings.Contains(strings.ToLower(m.Answer), term)
}

// Matches reports whether the session's filename or any of its messages match term.
func (s ChatSession) Matches(term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(s.Filename), strings.ToLower(term)) {
		return true
	}
	for _, m := range s.Messages {
		if m.Matches(term) {
			return true
		}
	}
	return false
}
