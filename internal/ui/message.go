package ui

import (
	"docq/internal/models"
	"docq/internal/tasks"
)

// navigateMsg reports a router location change.
type navigateMsg string

// sessionReadyMsg signals that startup session restoration finished.
type sessionReadyMsg struct {
	err error
}

// authDoneMsg reports the outcome of a login or signup attempt.
type authDoneMsg struct {
	err error
}

// statsFetchedMsg carries the knowledge base counters.
type statsFetchedMsg struct {
	stats *models.Stats
	err   error
}

// sessionsFetchedMsg carries the chat history list. fromCache is set when
// the backend was unreachable and the local cache served the data.
type sessionsFetchedMsg struct {
	sessions  []models.ChatSession
	fromCache bool
	err       error
}

// uploadProgressMsg wraps a pipeline progress event.
type uploadProgressMsg tasks.ProgressUpdate

// uploadDoneMsg reports a finished upload batch.
type uploadDoneMsg struct {
	result *tasks.BatchResult
	err    error
}

// answerMsg carries a completed question/answer exchange.
type answerMsg struct {
	message models.Message
	err     error
}

// transcriptLoadedMsg carries a resumed session's history.
type transcriptLoadedMsg struct {
	err error
}

// historyClearedMsg reports the outcome of wiping chat history.
type historyClearedMsg struct {
	err error
}
