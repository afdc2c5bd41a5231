package driving

import (
	"context"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

// BatchService asks a list of questions and collects the results.
type BatchService interface {
	// Run asks every question in order, each in a fresh session.
	Run(ctx context.Context, questions []string) []domain.BatchResult
}
