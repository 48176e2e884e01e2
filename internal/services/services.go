// package services defines interface Service for interacting with the document chat backend over HTTP
package services

import (
	"context"

	"docq/internal/models"
)

// Service defines the operations the client consumes from the document chat backend.
type Service interface {
	// Login exchanges credentials for a bearer token and user identity.
	Login(ctx context.Context, email, password string) (*Credentials, error)

	// Signup creates an account. It does not log the user in.
	Signup(ctx context.Context, name, email, password string) error

	// Verify validates the currently attached bearer token and returns the user it belongs to.
	Verify(ctx context.Context) (*models.User, error)

	// Upload sends one document as a multipart request. The progress callback,
	// if non-nil, receives (sent, total) byte counts as the body is transferred.
	Upload(ctx context.Context, filename string, data []byte, progress func(sent, total int64)) (*UploadReceipt, error)

	// NewSession creates an empty chat session and returns its identifier.
	NewSession(ctx context.Context) (string, error)

	// Query submits a question scoped to a chat session.
	Query(ctx context.Context, query, sessionID string) (*QueryResult, error)

	// Sessions retrieves all chat sessions for the authenticated user, newest first.
	Sessions(ctx context.Context) ([]models.ChatSession, error)

	// Session retrieves one chat session with its messages.
	Session(ctx context.Context, id string) (*models.ChatSession, error)

	// ClearHistory deletes all chat sessions and messages for the authenticated user.
	ClearHistory(ctx context.Context) error

	// Stats retrieves the aggregate counters for the stats view.
	Stats(ctx context.Context) (*models.Stats, error)

	// SetToken attaches a bearer token to every subsequent request.
	SetToken(token string)

	// ClearToken detaches the bearer token.
	ClearToken()

	// Name returns the name of the service
	Name() string
}

// Credentials is the payload returned by a successful login.
type Credentials struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// UploadReceipt is the payload returned by a successful document upload.
type UploadReceipt struct {
	Message     string `json:"message"`
	Filename    string `json:"filename"`
	ChunksCount int    `json:"chunks_count"`
	SessionID   string `json:"session_id"`
}

// QueryResult is the payload returned by a successful query.
type QueryResult struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	Query     string   `json:"query"`
	SessionID string   `json:"session_id"`
}
