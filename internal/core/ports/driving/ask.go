package driving

import (
	"context"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

// AskService answers questions about the indexed document.
type AskService interface {
	// NewSession starts an empty conversation.
	NewSession() domain.Session

	// Ask answers one question and returns the session with the turn appended.
	// Only validation failures are returned as errors; every other failure is
	// rendered as a degraded answer. On error the session is returned unchanged.
	Ask(ctx context.Context, session domain.Session, question string) (domain.Answer, domain.Session, error)

	// ClearCache drops every cached answer.
	ClearCache(ctx context.Context) error
}
