package driven

import (
	"context"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

// DocumentLoader reads the source document into its page texts.
type DocumentLoader interface {
	// Supports returns true if the loader can read the file at path.
	Supports(path string) bool

	// Load reads the file at path.
	Load(ctx context.Context, path string) (*domain.Document, error)
}
