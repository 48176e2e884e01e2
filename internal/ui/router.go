package ui

import (
	"sync"
)

// ChannelRouter implements [session.Router] for the TUI. Navigations are
// recorded immediately and forwarded through a buffered channel so the Elm
// loop can react without the caller ever blocking.
type ChannelRouter struct {
	mu       sync.Mutex
	location string
	ch       chan string
}

// NewChannelRouter creates a router positioned at the given location.
func NewChannelRouter(location string) *ChannelRouter {
	return &ChannelRouter{
		location: location,
		ch:       make(chan string, 16),
	}
}

// Navigate moves the router and queues the change for the UI. A full queue
// drops the notification rather than blocking; the location is still updated.
func (r *ChannelRouter) Navigate(path string) {
	r.mu.Lock()
	r.location = path
	r.mu.Unlock()

	select {
	case r.ch <- path:
	default:
	}
}

// Location returns the current path.
func (r *ChannelRouter) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

// Changes exposes the navigation feed for the UI loop.
func (r *ChannelRouter) Changes() <-chan string {
	return r.ch
}
