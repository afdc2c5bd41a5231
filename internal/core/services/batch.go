package services

import (
	"context"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driving"
	"github.com/custodia-labs/regbot/internal/logger"
)

// Ensure BatchService implements the interface.
var _ driving.BatchService = (*BatchService)(nil)

// BatchService asks a fixed list of questions, one fresh session each.
type BatchService struct {
	ask driving.AskService
}

// NewBatchService creates a batch runner over ask.
func NewBatchService(ask driving.AskService) *BatchService {
	return &BatchService{ask: ask}
}

// Run asks every question in order. A rejected question records its error
// and the run continues; cancelling ctx marks the remaining questions.
func (b *BatchService) Run(ctx context.Context, questions []string) []domain.BatchResult {
	logger.Section("Batch")
	if len(questions) == 0 {
		questions = domain.DefaultBatchQuestions()
	}

	results := make([]domain.BatchResult, 0, len(questions))
	for i, q := range questions {
		if err := ctx.Err(); err != nil {
			results = append(results, domain.BatchResult{Question: q, Err: err})
			continue
		}

		logger.Info("Question %d/%d: %q", i+1, len(questions), q)
		answer, _, err := b.ask.Ask(ctx, b.ask.NewSession(), q)
		results = append(results, domain.BatchResult{Question: q, Answer: answer, Err: err})
	}
	return results
}
