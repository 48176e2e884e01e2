package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"docq/internal/models"
	"docq/internal/services"
	"docq/internal/shared"
)

// FallbackAnswer stands in for a reply when a query fails, so the exchange
// still appears in the transcript.
const FallbackAnswer = "Sorry, I encountered an error processing your request. Please try again."

// Conversation drives a question and answer exchange against a single chat
// session, accumulating the transcript locally.
type Conversation struct {
	svc    services.Service
	logger *log.Logger

	mu        sync.Mutex
	sessionID string
	messages  []models.Message
}

// NewConversation creates a conversation with no session yet; the first Ask
// opens one.
func NewConversation(svc services.Service, logger *log.Logger) *Conversation {
	return &Conversation{svc: svc, logger: logger}
}

// Resume loads an existing session's transcript so new questions continue it.
func (c *Conversation) Resume(ctx context.Context, sessionID string) error {
	session, err := c.svc.Session(ctx, sessionID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sessionID = session.ID
	c.messages = append([]models.Message(nil), session.Messages...)
	c.mu.Unlock()
	return nil
}

// Attach binds the conversation to a session id without fetching history,
// used right after an upload hands off to chat.
func (c *Conversation) Attach(sessionID string) {
	c.mu.Lock()
	c.sessionID = sessionID
	c.mu.Unlock()
}

// SessionID returns the bound session id, empty before the first question.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Messages returns a copy of the transcript in order.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message(nil), c.messages...)
}

// Filter returns the transcript entries matching a search term, the whole
// transcript when the term is empty.
func (c *Conversation) Filter(term string) []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if term == "" {
		return append([]models.Message(nil), c.messages...)
	}
	var out []models.Message
	for _, m := range c.messages {
		if m.Matches(term) {
			out = append(out, m)
		}
	}
	return out
}

// Ask submits a question to the bound session, opening one if needed, and
// appends the exchange to the transcript. A failed query still produces a
// transcript entry carrying [FallbackAnswer], and the error is returned so
// callers can log or surface it.
func (c *Conversation) Ask(ctx context.Context, query string) (models.Message, error) {
	if query == "" {
		return models.Message{}, fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
	}
	if c.svc == nil {
		return models.Message{}, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	if sessionID == "" {
		id, err := c.svc.NewSession(ctx)
		if err != nil {
			return models.Message{}, fmt.Errorf("opening chat session: %w", err)
		}
		c.Attach(id)
		sessionID = id
	}

	msg := models.Message{
		ID:        shared.GenerateID(),
		Query:     query,
		Timestamp: time.Now().UTC(),
	}

	res, err := c.svc.Query(ctx, query, sessionID)
	if err != nil {
		c.logger.Warn("query failed", "session", sessionID, "error", err)
		msg.Answer = FallbackAnswer
	} else {
		msg.Answer = res.Answer
		msg.Sources = res.Sources
	}

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	return msg, err
}
