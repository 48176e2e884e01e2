// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"docq/internal/models"
	"docq/internal/services"
	"docq/internal/shared"
)

// MockService is a configurable test double for [services.Service].
// Unset function fields make the corresponding call fail with ErrNotImplemented.
type MockService struct {
	LoginFn        func(ctx context.Context, email, password string) (*services.Credentials, error)
	SignupFn       func(ctx context.Context, name, email, password string) error
	VerifyFn       func(ctx context.Context) (*models.User, error)
	UploadFn       func(ctx context.Context, filename string, data []byte, progress func(sent, total int64)) (*services.UploadReceipt, error)
	NewSessionFn   func(ctx context.Context) (string, error)
	QueryFn        func(ctx context.Context, query, sessionID string) (*services.QueryResult, error)
	SessionsFn     func(ctx context.Context) ([]models.ChatSession, error)
	SessionFn      func(ctx context.Context, id string) (*models.ChatSession, error)
	ClearHistoryFn func(ctx context.Context) error
	StatsFn        func(ctx context.Context) (*models.Stats, error)

	mu     sync.Mutex
	tokens []string // every SetToken argument, in order; "" records a ClearToken
}

func (m *MockService) Login(ctx context.Context, email, password string) (*services.Credentials, error) {
	if m.LoginFn == nil {
		return nil, shared.ErrNotImplemented
	}
	return m.LoginFn(ctx, email, password)
}

func (m *MockService) Signup(ctx context.Context, name, email, password string) error {
	if m.SignupFn == nil {
		return shared.ErrNotImplemented
	}
	return m.SignupFn(ctx, name, email, password)
}

func (m *MockService) Verify(ctx context.Context) (*models.User, error) {
	if m.VerifyFn == nil {
		return nil, shared.ErrNotImplemented
	}
	return m.VerifyFn(ctx)
}

func (m *MockService) Upload(ctx context.Context, filename string, data []byte, progress func(sent, total int64)) (*services.UploadReceipt, error) {
	if m.UploadFn == nil {
		return nil, shared.ErrNotImplemented
	}
	return m.UploadFn(ctx, filename, data, progress)
}

func (m *MockService) NewSession(ctx context.Context) (string, error) {
	if m.NewSessionFn == nil {
		return "", shared.ErrNotImplemented
	}
	return m.NewSessionFn(ctx)
}

func (m *MockService) Query(ctx context.Context, query, sessionID string) (*services.QueryResult, error) {
	if m.QueryFn == nil {
		return nil, shared.ErrNotImplemented
	}
	return m.QueryFn(ctx, query, sessionID)
}

func (m *MockService) Sessions(ctx context.Context) ([]models.ChatSession, error) {
	if m.SessionsFn == nil {
		return nil, shared.ErrNotImplemented
	}
	return m.SessionsFn(ctx)
}

func (m *MockService) Session(ctx context.Context, id string) (*models.ChatSession, error) {
	if m.SessionFn == nil {
		return nil, shared.ErrNotImplemented
	}
	return m.SessionFn(ctx, id)
}

func (m *MockService) ClearHistory(ctx context.Context) error {
	if m.ClearHistoryFn == nil {
		return shared.ErrNotImplemented
	}
	return m.ClearHistoryFn(ctx)
}

func (m *MockService) Stats(ctx context.Context) (*models.Stats, error) {
	if m.StatsFn == nil {
		return nil, shared.ErrNotImplemented
	}
	return m.StatsFn(ctx)
}

func (m *MockService) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, token)
}

func (m *MockService) ClearToken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, "")
}

// Tokens returns every SetToken/ClearToken call in order; "" marks a ClearToken.
func (m *MockService) Tokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.tokens))
	copy(out, m.tokens)
	return out
}

func (m *MockService) Name() string { return "mock" }

// RecordingRouter is a test double for session.Router that records every
// navigation and tracks the current location.
type RecordingRouter struct {
	mu       sync.Mutex
	location string
	visits   []string
}

func NewRecordingRouter(location string) *RecordingRouter {
	return &RecordingRouter{location: location}
}

func (r *RecordingRouter) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.location = path
	r.visits = append(r.visits, path)
}

func (r *RecordingRouter) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

// Visits returns every Navigate argument in order.
func (r *RecordingRouter) Visits() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.visits))
	copy(out, r.visits)
	return out
}

// SetLocation moves the router without recording a visit (simulates the user
// navigating directly).
func (r *RecordingRouter) SetLocation(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.location = path
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
