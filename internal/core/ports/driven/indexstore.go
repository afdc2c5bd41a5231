package driven

import (
	"context"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

// IndexStore persists a built vector index so it can be reused across runs.
// A store holds exactly one index: the manifest plus every chunk with its embedding.
type IndexStore interface {
	// Exists returns true if a manifest has been saved.
	Exists(ctx context.Context) (bool, error)

	// Remove destroys the persisted index. Removing a missing index is not an error.
	Remove(ctx context.Context) error

	// Save writes the manifest and chunks in a single pass.
	Save(ctx context.Context, manifest domain.IndexManifest, chunks []domain.Chunk) error

	// Load reads the manifest and chunks in ordinal order.
	// Returns domain.ErrNotFound if nothing has been saved.
	Load(ctx context.Context) (*domain.IndexManifest, []domain.Chunk, error)

	// Location describes where the index lives (directory, DSN store ID).
	Location() string

	// Close releases resources.
	Close() error
}
