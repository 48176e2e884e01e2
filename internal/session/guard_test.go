package session

import (
	"testing"

	dqtest "docq/internal/testing"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		state    AuthState
		location string
		target   string
		redirect bool
	}{
		{"LoadingSuspendsProtectedPath", StateLoading, PathStats, "", false},
		{"LoadingSuspendsLanding", StateLoading, PathLanding, "", false},
		{"AuthenticatedLandingGoesToStats", StateAuthenticated, PathLanding, PathStats, true},
		{"AuthenticatedStaysOnStats", StateAuthenticated, PathStats, "", false},
		{"AuthenticatedStaysOnChat", StateAuthenticated, PathChat, "", false},
		{"AuthenticatedStaysOnLogin", StateAuthenticated, PathLogin, "", false},
		{"AuthenticatedStaysOnAbout", StateAuthenticated, PathAbout, "", false},
		{"UnauthenticatedStaysOnLanding", StateUnauthenticated, PathLanding, "", false},
		{"UnauthenticatedStaysOnAbout", StateUnauthenticated, PathAbout, "", false},
		{"UnauthenticatedStaysOnContact", StateUnauthenticated, PathContact, "", false},
		{"UnauthenticatedStaysOnLogin", StateUnauthenticated, PathLogin, "", false},
		{"UnauthenticatedStaysOnSignup", StateUnauthenticated, PathSignup, "", false},
		{"UnauthenticatedStatsGoesToLogin", StateUnauthenticated, PathStats, PathLogin, true},
		{"UnauthenticatedUploadGoesToLogin", StateUnauthenticated, PathUpload, PathLogin, true},
		{"UnauthenticatedChatGoesToLogin", StateUnauthenticated, PathChat, PathLogin, true},
		{"UnauthenticatedUnknownGoesToLogin", StateUnauthenticated, "/nonsense", PathLogin, true},
		{"QueryStringIgnored", StateUnauthenticated, PathChat + "?session=abc", PathLogin, true},
		{"AuthenticatedQueryStringIgnored", StateAuthenticated, PathLanding + "?ref=home", PathStats, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, redirect := Decide(tt.state, tt.location)
			if redirect != tt.redirect {
				t.Errorf("Decide(%v, %q) redirect = %v, want %v", tt.state, tt.location, redirect, tt.redirect)
			}
			if target != tt.target {
				t.Errorf("Decide(%v, %q) target = %q, want %q", tt.state, tt.location, target, tt.target)
			}
		})
	}

	t.Run("RedirectTargetsAreStable", func(t *testing.T) {
		// A redirect destination must itself decide to no further redirect,
		// otherwise the guard would loop.
		if _, redirect := Decide(StateAuthenticated, PathStats); redirect {
			t.Error("Stats redirects again for an authenticated session")
		}
		if _, redirect := Decide(StateUnauthenticated, PathLogin); redirect {
			t.Error("Login redirects again for an unauthenticated session")
		}
	})
}

func TestGuard(t *testing.T) {
	t.Run("EvaluateNavigates", func(t *testing.T) {
		router := dqtest.NewRecordingRouter(PathStats)
		guard := NewGuard(router)

		target, redirect := guard.Evaluate(StateUnauthenticated, PathStats)
		if !redirect || target != PathLogin {
			t.Fatalf("Expected redirect to login, got (%q, %v)", target, redirect)
		}
		if router.Location() != PathLogin {
			t.Errorf("Router location = %q, want %q", router.Location(), PathLogin)
		}
	})

	t.Run("UnchangedInputsDoNotReNavigate", func(t *testing.T) {
		router := dqtest.NewRecordingRouter(PathStats)
		guard := NewGuard(router)

		guard.Evaluate(StateUnauthenticated, PathStats)
		guard.Evaluate(StateUnauthenticated, PathStats)
		guard.Evaluate(StateUnauthenticated, PathStats)

		if visits := router.Visits(); len(visits) != 1 {
			t.Errorf("Expected 1 navigation, got %v", visits)
		}
	})

	t.Run("StateChangeReEvaluates", func(t *testing.T) {
		router := dqtest.NewRecordingRouter(PathStats)
		guard := NewGuard(router)

		guard.Evaluate(StateLoading, PathStats)
		if len(router.Visits()) != 0 {
			t.Fatalf("Loading state should not navigate, got %v", router.Visits())
		}

		guard.Evaluate(StateUnauthenticated, PathStats)
		if visits := router.Visits(); len(visits) != 1 || visits[0] != PathLogin {
			t.Errorf("Expected redirect to login, got %v", visits)
		}
	})

	t.Run("LocationChangeReEvaluates", func(t *testing.T) {
		router := dqtest.NewRecordingRouter(PathLanding)
		guard := NewGuard(router)

		guard.Evaluate(StateUnauthenticated, PathLanding)
		if len(router.Visits()) != 0 {
			t.Fatalf("Public path should not navigate, got %v", router.Visits())
		}

		router.SetLocation(PathUpload)
		guard.Evaluate(StateUnauthenticated, PathUpload)
		if visits := router.Visits(); len(visits) != 1 || visits[0] != PathLogin {
			t.Errorf("Expected redirect to login, got %v", visits)
		}
	})
}
