package ui

import (
	"testing"

	"docq/internal/session"
)

func TestChannelRouter(t *testing.T) {
	t.Run("NavigateUpdatesLocationAndQueues", func(t *testing.T) {
		router := NewChannelRouter(session.PathLanding)
		router.Navigate(session.PathLogin)

		if router.Location() != session.PathLogin {
			t.Errorf("Location = %q, want %q", router.Location(), session.PathLogin)
		}
		select {
		case path := <-router.Changes():
			if path != session.PathLogin {
				t.Errorf("Queued path = %q, want %q", path, session.PathLogin)
			}
		default:
			t.Error("Expected a queued navigation")
		}
	})

	t.Run("FullQueueNeverBlocks", func(t *testing.T) {
		router := NewChannelRouter(session.PathLanding)
		for i := 0; i < 100; i++ {
			router.Navigate(session.PathStats)
		}
		if router.Location() != session.PathStats {
			t.Errorf("Location = %q, want %q", router.Location(), session.PathStats)
		}
	})
}

func TestViewForPath(t *testing.T) {
	tests := []struct {
		path string
		want ViewState
	}{
		{session.PathLanding, LandingView},
		{session.PathLogin, LoginView},
		{session.PathSignup, SignupView},
		{session.PathStats, StatsView},
		{session.PathUpload, UploadView},
		{session.PathChat, ChatView},
		{session.PathChat + "?session=abc", ChatView},
		{session.PathHistory, HistoryView},
		{"/unknown", LandingView},
	}
	for _, tt := range tests {
		if got := viewForPath(tt.path); got != tt.want {
			t.Errorf("viewForPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSessionParam(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{session.PathChat, ""},
		{session.PathChat + "?session=abc", "abc"},
		{session.PathChat + "?ref=history&session=xyz", "xyz"},
		{session.PathChat + "?other=1", ""},
	}
	for _, tt := range tests {
		if got := sessionParam(tt.path); got != tt.want {
			t.Errorf("sessionParam(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
