// Backend API implementation of [Service]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"

	"docq/internal/models"
	"docq/internal/shared"
	"golang.org/x/oauth2"
)

// BackendService implements the [Service] interface against the document chat REST backend.
//
// The bearer token is attached by swapping in an [oauth2] client built from a
// static token source, so every outgoing request carries the Authorization
// header without per-call plumbing. 401 responses invoke the unauthorized
// hook (set by the session controller) before the error is returned.
type BackendService struct {
	baseURL string
	base    *http.Client

	mu             sync.RWMutex
	httpClient     *http.Client
	onUnauthorized func()
}

// NewBackendService creates a new backend service with the given base URL.
func NewBackendService(baseURL string, client *http.Client) *BackendService {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &BackendService{
		baseURL:    baseURL,
		base:       client,
		httpClient: client,
	}
}

func (s *BackendService) Name() string {
	return "docq backend"
}

// SetUnauthorizedHook registers a callback invoked whenever the backend
// rejects a request as unauthenticated. Only one hook is held at a time.
func (s *BackendService) SetUnauthorizedHook(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUnauthorized = fn
}

// SetToken attaches token to all subsequent requests.
func (s *BackendService) SetToken(token string) {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, s.base)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.httpClient = oauth2.NewClient(ctx, src)
}

// ClearToken restores the unauthenticated client.
func (s *BackendService) ClearToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.httpClient = s.base
}

func (s *BackendService) client() *http.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.httpClient
}

// apiError is the backend's error body shape.
type apiError struct {
	Detail string `json:"detail"`
}

// errorFromResponse maps a non-2xx response to a typed error, preferring the
// server-supplied detail message.
func (s *BackendService) errorFromResponse(resp *http.Response, body []byte) error {
	detail := fmt.Sprintf("status %d", resp.StatusCode)

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Detail != "" {
		detail = apiErr.Detail
	}

	if resp.StatusCode == http.StatusUnauthorized {
		s.mu.RLock()
		hook := s.onUnauthorized
		s.mu.RUnlock()
		if hook != nil {
			hook()
		}
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, detail)
	}

	return fmt.Errorf("%w: %s", shared.ErrAPIRequest, detail)
}

// doRequest performs an HTTP request against the backend, marshaling body to
// JSON when non-nil and decoding a 2xx response into result when non-nil.
func (s *BackendService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	apiURL := s.baseURL + endpoint

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.errorFromResponse(resp, data)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Login exchanges credentials for a token and user identity.
func (s *BackendService) Login(ctx context.Context, email, password string) (*Credentials, error) {
	payload := map[string]string{"email": email, "password": password}

	var creds Credentials
	if err := s.doRequest(ctx, http.MethodPost, "/api/auth/login", payload, &creds); err != nil {
		return nil, err
	}
	if creds.Token == "" {
		return nil, fmt.Errorf("%w: response missing token", shared.ErrAuthFailed)
	}
	return &creds, nil
}

// Signup creates an account.
func (s *BackendService) Signup(ctx context.Context, name, email, password string) error {
	payload := map[string]string{"name": name, "email": email, "password": password}
	return s.doRequest(ctx, http.MethodPost, "/api/auth/signup", payload, nil)
}

// Verify validates the attached bearer token.
func (s *BackendService) Verify(ctx context.Context) (*models.User, error) {
	var response struct {
		User models.User `json:"user"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/api/auth/verify", nil, &response); err != nil {
		return nil, err
	}
	return &response.User, nil
}

// NewSession creates an empty chat session.
func (s *BackendService) NewSession(ctx context.Context) (string, error) {
	var response struct {
		SessionID string `json:"session_id"`
	}
	if err := s.doRequest(ctx, http.MethodPost, "/api/chat-sessions/new", nil, &response); err != nil {
		return "", err
	}
	return response.SessionID, nil
}

// Query submits a question scoped to a chat session.
func (s *BackendService) Query(ctx context.Context, query, sessionID string) (*QueryResult, error) {
	payload := map[string]string{"query": query, "session_id": sessionID}

	var result QueryResult
	if err := s.doRequest(ctx, http.MethodPost, "/query", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Sessions retrieves all chat sessions for the authenticated user.
func (s *BackendService) Sessions(ctx context.Context) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	if err := s.doRequest(ctx, http.MethodGet, "/api/chat-sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Session retrieves one chat session with its messages.
func (s *BackendService) Session(ctx context.Context, id string) (*models.ChatSession, error) {
	var session models.ChatSession
	endpoint := fmt.Sprintf("/api/chat-sessions/%s", url.PathEscape(id))
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ClearHistory deletes all chat sessions and messages for the authenticated user.
func (s *BackendService) ClearHistory(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodDelete, "/chat-history", nil, nil)
}

// Stats retrieves the aggregate counters for the stats view.
func (s *BackendService) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := s.doRequest(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Upload sends one document as a multipart request.
//
// The multipart body is assembled in memory (uploads are capped well below the
// pipeline's size ceiling) and wrapped in a [progressReader] so the progress
// callback observes real transfer offsets as the transport consumes the body.
func (s *BackendService) Upload(ctx context.Context, filename string, data []byte, progress func(sent, total int64)) (*UploadReceipt, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	total := int64(buf.Len())
	body := &progressReader{r: bytes.NewReader(buf.Bytes()), total: total, report: progress}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/upload", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.ContentLength = total

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, s.errorFromResponse(resp, respBody)
	}

	var receipt UploadReceipt
	if err := json.Unmarshal(respBody, &receipt); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &receipt, nil
}

// progressReader reports cumulative bytes read to a callback as the HTTP
// transport drains the request body.
type progressReader struct {
	r      io.Reader
	total  int64
	sent   int64
	report func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.report != nil {
			p.report(p.sent, p.total)
		}
	}
	return n, err
}
