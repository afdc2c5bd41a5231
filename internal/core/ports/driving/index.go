package driving

import (
	"context"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

// IndexService builds, reuses and queries the vector index.
type IndexService interface {
	// Ingest loads the persisted index when one exists, or builds it from the
	// document at path. opts.Rebuild forces a destructive rebuild.
	Ingest(ctx context.Context, path string, opts domain.IngestOptions) (*domain.IngestReport, error)

	// Load reads the persisted index into memory, verifying the embedding model.
	Load(ctx context.Context) (*domain.IndexManifest, error)

	// Query returns the k chunks most similar to vector.
	Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error)

	// Status reports what is currently loaded.
	Status() domain.IndexStatus
}
