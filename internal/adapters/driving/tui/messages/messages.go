// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/regbot/internal/core/domain"
)

// AnswerReceived carries the outcome of one question back to the model.
type AnswerReceived struct {
	Question string
	Answer   domain.Answer

	// Session is the conversation with the new turn appended.
	Session domain.Session

	// Err is set only when the question was rejected.
	Err error
}

// CacheCleared signals the response cache was emptied.
type CacheCleared struct {
	Err error
}

// IndexStatusLoaded carries the state of the vector index.
type IndexStatusLoaded struct {
	Status domain.IndexStatus
}

// SessionReset signals a new, empty conversation was started.
type SessionReset struct {
	Session domain.Session
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the question input and answer view.
	ViewChat ViewType = iota
	// ViewHistory lists the turns of the current session.
	ViewHistory
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewHistory:
		return "history"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
