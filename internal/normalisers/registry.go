package normalisers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/normalisers/docx"
	"github.com/custodia-labs/regbot/internal/normalisers/markdown"
	"github.com/custodia-labs/regbot/internal/normalisers/pdf"
	"github.com/custodia-labs/regbot/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.DocumentLoader = (*Registry)(nil)

// Registry dispatches to the first registered loader that supports a path.
type Registry struct {
	loaders []driven.DocumentLoader
}

// NewRegistry creates a registry over the given loaders, tried in order.
func NewRegistry(loaders ...driven.DocumentLoader) *Registry {
	return &Registry{loaders: loaders}
}

// DefaultRegistry returns a registry with every built-in loader.
func DefaultRegistry() *Registry {
	return NewRegistry(
		pdf.New(),
		docx.New(),
		markdown.New(),
		plaintext.New(),
	)
}

// Supports returns true if any registered loader handles path.
func (r *Registry) Supports(path string) bool {
	return r.loaderFor(path) != nil
}

// Load reads path with the matching loader.
func (r *Registry) Load(ctx context.Context, path string) (*domain.Document, error) {
	loader := r.loaderFor(path)
	if loader == nil {
		return nil, fmt.Errorf("%w: no loader for %q files", domain.ErrUnsupportedType, filepath.Ext(path))
	}
	return loader.Load(ctx, path)
}

func (r *Registry) loaderFor(path string) driven.DocumentLoader {
	for _, l := range r.loaders {
		if l.Supports(path) {
			return l
		}
	}
	return nil
}
