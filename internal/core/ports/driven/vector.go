package driven

import (
	"context"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

// VectorIndex provides in-process similarity search over embedded chunks.
// It is populated once after a build or load and read-only afterwards.
type VectorIndex interface {
	// Add inserts a chunk. The chunk must carry its embedding.
	Add(ctx context.Context, chunk domain.Chunk) error

	// Search returns up to k chunks most similar to the query vector,
	// highest similarity first. Equal scores are ordered by chunk ordinal.
	Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error)

	// Len returns the number of indexed chunks.
	Len() int

	// Reset drops every chunk so the index can be repopulated.
	Reset()

	// Close releases resources.
	Close() error
}
