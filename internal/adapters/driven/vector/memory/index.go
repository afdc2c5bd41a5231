// Package memory provides a brute-force in-memory vector index.
//
// Every search scores all chunks by cosine similarity. For a single document
// of a few hundred chunks this is exact and fast enough.
package memory

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	chunk domain.Chunk
	norm  float64
}

// Index is a brute-force cosine similarity index.
type Index struct {
	mu      sync.RWMutex
	entries []entry
	dims    int
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// Add inserts a chunk. All chunks must share the same dimensionality.
func (x *Index) Add(_ context.Context, chunk domain.Chunk) error {
	if len(chunk.Embedding) == 0 {
		return fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, chunk.ID)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dims == 0 {
		x.dims = len(chunk.Embedding)
	}
	if len(chunk.Embedding) != x.dims {
		return fmt.Errorf("%w: chunk %s has %d dimensions, index has %d",
			domain.ErrInvalidInput, chunk.ID, len(chunk.Embedding), x.dims)
	}

	chunk.Embedding = slices.Clone(chunk.Embedding)
	x.entries = append(x.entries, entry{chunk: chunk, norm: norm(chunk.Embedding)})
	return nil
}

// Search returns up to k chunks by descending cosine similarity.
// Equal scores are ordered by ascending chunk ordinal so results are deterministic.
func (x *Index) Search(_ context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.entries) == 0 {
		return nil, domain.ErrIndexEmpty
	}
	if len(query) != x.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrInvalidInput, len(query), x.dims)
	}

	qnorm := norm(query)
	scored := make([]domain.ScoredChunk, len(x.entries))
	for i, e := range x.entries {
		scored[i] = domain.ScoredChunk{
			Chunk: e.chunk.WithoutEmbedding(),
			Score: cosine(query, e.chunk.Embedding, qnorm, e.norm),
		}
	}

	slices.SortStableFunc(scored, func(a, b domain.ScoredChunk) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return a.Chunk.Ordinal - b.Chunk.Ordinal
		}
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Dimensions returns the vector size, or 0 when empty.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dims
}

// Reset drops every chunk.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = nil
	x.dims = 0
}

// Close releases memory.
func (x *Index) Close() error {
	x.Reset()
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero length.
func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}
