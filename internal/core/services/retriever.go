package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/core/ports/driving"
	"github.com/custodia-labs/regbot/internal/logger"
)

// DefaultRetrievalK is the number of chunks retrieved per question.
const DefaultRetrievalK = 2

// Retriever embeds a question and fetches the most similar chunks.
// k is fixed at construction; callers cannot change it per question.
type Retriever struct {
	embedder driven.EmbeddingService
	index    driving.IndexService
	k        int
}

// NewRetriever creates a retriever returning k chunks per question.
func NewRetriever(embedder driven.EmbeddingService, index driving.IndexService, k int) *Retriever {
	if k <= 0 {
		k = DefaultRetrievalK
	}
	return &Retriever{embedder: embedder, index: index, k: k}
}

// K returns the number of chunks retrieved per question.
func (r *Retriever) K() int { return r.k }

// Retrieve returns min(k, index size) chunks, highest similarity first.
// Returns domain.ErrIndexEmpty when nothing is indexed and wraps
// domain.ErrServiceUnavailable when the question cannot be embedded.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]domain.ScoredChunk, error) {
	defer logger.Elapsed("retrieve", time.Now())

	if r.embedder == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, domain.ErrEmbeddingUnavailable)
	}

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embed question: %w", domain.ErrServiceUnavailable, err)
	}

	results, err := r.index.Query(ctx, vec, r.k)
	if err != nil {
		if errors.Is(err, domain.ErrIndexEmpty) {
			return nil, err
		}
		return nil, fmt.Errorf("query index: %w", err)
	}

	for i, sc := range results {
		logger.Debug("  %d. %s (%s) score=%.4f", i+1, sc.Chunk.ID, sc.Chunk.Locator, sc.Score)
	}
	return results, nil
}
