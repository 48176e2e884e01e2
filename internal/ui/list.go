package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"docq/internal/models"
)

var _ list.Item = sessionItem{}

// sessionItem wraps [models.ChatSession] to implement [list.Item].
type sessionItem struct {
	session models.ChatSession
}

func (i sessionItem) FilterValue() string {
	return i.session.Filename + " " + i.session.ID
}

func (i sessionItem) Title() string {
	if i.session.Filename != "" {
		return i.session.Filename
	}
	return i.session.ID
}

func (i sessionItem) Description() string {
	desc := fmt.Sprintf("%d messages", len(i.session.Messages))
	if !i.session.CreatedAt.IsZero() {
		desc = fmt.Sprintf("%s • %s", desc, i.session.CreatedAt.Format("Jan 2 15:04"))
	}
	return desc
}
