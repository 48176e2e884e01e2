package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"docq/internal/models"
	"docq/internal/services"
	"docq/internal/shared"
)

// Controller owns the client's authentication lifecycle: restoring a saved
// token on startup, logging in and out, and keeping the route guard fed with
// the current state. The stored token and the service's in-memory token move
// in lock step so a restart always reproduces the same session.
type Controller struct {
	svc    services.Service
	store  *TokenStore
	router Router
	guard  *Guard
	logger *log.Logger

	mu      sync.Mutex
	user    *models.User
	loading bool
}

// NewController wires a controller to its service, token store and router.
// The controller starts in the loading state until [Controller.Initialize]
// runs.
func NewController(svc services.Service, store *TokenStore, router Router, logger *log.Logger) *Controller {
	c := &Controller{
		svc:     svc,
		store:   store,
		router:  router,
		guard:   NewGuard(router),
		logger:  logger,
		loading: true,
	}
	if hooked, ok := svc.(interface{ SetUnauthorizedHook(func()) }); ok {
		hooked.SetUnauthorizedHook(c.invalidate)
	}
	return c
}

// State reports the current auth state.
func (c *Controller) State() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() AuthState {
	if c.loading {
		return StateLoading
	}
	if c.user != nil {
		return StateAuthenticated
	}
	return StateUnauthenticated
}

// User returns the verified account for the active session, or nil.
func (c *Controller) User() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Initialize restores a previously saved session. A stored token is attached
// to the service and verified against the backend; a missing or rejected
// token leaves the client unauthenticated with the stale token cleared from
// disk. The loading state ends when Initialize returns, and the guard is
// evaluated against the current location either way.
func (c *Controller) Initialize(ctx context.Context) error {
	token, err := c.store.Load()
	if err != nil {
		c.finishLoading(nil)
		return fmt.Errorf("restoring session: %w", err)
	}

	if token == "" {
		c.finishLoading(nil)
		return nil
	}

	c.svc.SetToken(token)
	user, err := c.svc.Verify(ctx)
	if err != nil {
		c.logger.Debug("stored token rejected", "error", err)
		c.svc.ClearToken()
		if rmErr := c.store.Clear(); rmErr != nil {
			c.logger.Warn("failed to discard stale token", "error", rmErr)
		}
		c.finishLoading(nil)
		return nil
	}

	c.logger.Debug("session restored", "email", user.Email)
	c.finishLoading(user)
	return nil
}

func (c *Controller) finishLoading(user *models.User) {
	c.mu.Lock()
	c.loading = false
	c.user = user
	state := c.stateLocked()
	c.mu.Unlock()
	c.guard.Evaluate(state, c.router.Location())
}

// Login exchanges credentials for a token, persists it, attaches it to the
// service and navigates to the stats view. On failure the session is left
// untouched and the error carries the backend's detail.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	creds, err := c.svc.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := c.store.Save(creds.Token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	c.svc.SetToken(creds.Token)

	c.mu.Lock()
	c.user = &creds.User
	c.loading = false
	state := c.stateLocked()
	c.mu.Unlock()

	c.logger.Info("logged in", "email", creds.User.Email)
	c.router.Navigate(PathStats)
	c.guard.Evaluate(state, c.router.Location())
	return nil
}

// Signup registers a new account and immediately logs it in, so a successful
// signup always lands in an authenticated session.
func (c *Controller) Signup(ctx context.Context, name, email, password string) error {
	if err := c.svc.Signup(ctx, name, email, password); err != nil {
		return err
	}
	return c.Login(ctx, email, password)
}

// Logout discards the stored and in-memory token, drops the session user and
// returns to the landing view. Local teardown proceeds even if the token
// file cannot be removed.
func (c *Controller) Logout() error {
	err := c.store.Clear()
	if err != nil {
		c.logger.Warn("failed to remove stored token", "error", err)
		err = fmt.Errorf("clearing token: %w", err)
	}
	c.svc.ClearToken()

	c.mu.Lock()
	c.user = nil
	c.loading = false
	state := c.stateLocked()
	c.mu.Unlock()

	c.router.Navigate(PathLanding)
	c.guard.Evaluate(state, c.router.Location())
	return err
}

// invalidate tears the session down after the backend rejects the token
// mid-session. Rejections during startup verification are already handled by
// Initialize and are ignored here.
func (c *Controller) invalidate() {
	c.mu.Lock()
	if c.loading || c.user == nil {
		c.mu.Unlock()
		return
	}
	c.user = nil
	state := c.stateLocked()
	c.mu.Unlock()

	c.logger.Warn("session expired", "error", shared.ErrTokenExpired)
	c.svc.ClearToken()
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("failed to discard expired token", "error", err)
	}
	c.router.Navigate(PathLogin)
	c.guard.Evaluate(state, c.router.Location())
}

// OnNavigate re-runs the route guard after the router's location changes.
func (c *Controller) OnNavigate(location string) {
	c.mu.Lock()
	state := c.stateLocked()
	c.mu.Unlock()
	c.guard.Evaluate(state, location)
}
