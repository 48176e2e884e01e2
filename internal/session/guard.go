package session

import (
	"strings"
	"sync"
)

// View paths known to the client.
const (
	PathLanding = "/"
	PathAbout   = "/about"
	PathContact = "/contact"
	PathLogin   = "/login"
	PathSignup  = "/signup"
	PathStats   = "/stats"
	PathUpload  = "/upload"
	PathChat    = "/chat"
	PathHistory = "/history"
)

// publicPaths are the views reachable without authentication.
var publicPaths = map[string]bool{
	PathLanding: true,
	PathAbout:   true,
	PathContact: true,
	PathLogin:   true,
	PathSignup:  true,
}

// AuthState is the session controller's externally visible state.
type AuthState int

const (
	StateLoading AuthState = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return ""
	}
}

// Router abstracts the view router the guard and controller instruct.
type Router interface {
	// Navigate moves the current location to path.
	Navigate(path string)
	// Location returns the current path.
	Location() string
}

// Decide is the pure redirect rule evaluated on every navigation event and
// after every session state change:
//
//   - loading suspends all decisions
//   - an authenticated session on the public landing view goes to stats
//   - an unauthenticated session outside the public set goes to login
//
// The boolean reports whether a redirect is required. Query strings on the
// location (e.g. a chat session id) are ignored for the decision.
func Decide(state AuthState, location string) (string, bool) {
	if state == StateLoading {
		return "", false
	}

	if idx := strings.Index(location, "?"); idx >= 0 {
		location = location[:idx]
	}

	if state == StateAuthenticated && location == PathLanding {
		return PathStats, true
	}
	if state == StateUnauthenticated && !publicPaths[location] {
		return PathLogin, true
	}
	return "", false
}

// Guard applies [Decide] against a [Router], issuing a navigation only when
// the inputs actually change. Re-evaluating with an unchanged (state,
// location) pair never re-triggers navigation.
type Guard struct {
	router Router

	mu        sync.Mutex
	evaluated bool
	lastState AuthState
	lastLoc   string
}

// NewGuard creates a guard bound to the given router.
func NewGuard(router Router) *Guard {
	return &Guard{router: router}
}

// Evaluate runs the redirect rule for the given inputs and instructs the
// router when a redirect is required. Returns the redirect target, if any.
func (g *Guard) Evaluate(state AuthState, location string) (string, bool) {
	g.mu.Lock()
	if g.evaluated && g.lastState == state && g.lastLoc == location {
		g.mu.Unlock()
		return "", false
	}
	g.evaluated = true
	g.lastState = state
	g.lastLoc = location
	g.mu.Unlock()

	target, ok := Decide(state, location)
	if ok {
		g.router.Navigate(target)
	}
	return target, ok
}
