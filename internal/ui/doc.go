// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI mirrors a small multi-page app with guarded navigation:
//  1. [LandingView] : Entry point with sign in / sign up
//  2. [LoginView] / [SignupView] : Credential forms
//  3. [StatsView] : Knowledge base counters, the authenticated home
//  4. [UploadView] : Staged documents with per-file upload progress
//  5. [ChatView] : Question and answer transcript for one session
//  6. [HistoryView] : Browse, search, resume, and clear past sessions
//
// Navigation flows through [ChannelRouter]: every view change, whether user
// initiated or forced by the session guard, arrives as a message in the
// Update loop. Protected views are never rendered for an unauthenticated
// session because the guard redirects before the view switch lands.
//
// Progress updates from the upload pipeline flow through a channel,
// providing non-blocking status reporting during transfers.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
