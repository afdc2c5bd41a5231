package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
// The index survives only as long as the process.
type IndexStore struct {
	mu       sync.RWMutex
	manifest *domain.IndexManifest
	chunks   []domain.Chunk
}

// NewIndexStore creates a new empty in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// Exists returns true once Save has been called.
func (s *IndexStore) Exists(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest != nil, nil
}

// Remove discards the stored index.
func (s *IndexStore) Remove(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest = nil
	s.chunks = nil
	return nil
}

// Save replaces the stored index with a copy of manifest and chunks.
func (s *IndexStore) Save(_ context.Context, manifest domain.IndexManifest, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest = &manifest
	s.chunks = copyChunks(chunks)
	return nil
}

// Load returns copies of the stored manifest and chunks in ordinal order.
func (s *IndexStore) Load(_ context.Context) (*domain.IndexManifest, []domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.manifest == nil {
		return nil, nil, domain.ErrNotFound
	}

	manifest := *s.manifest
	chunks := copyChunks(s.chunks)
	slices.SortFunc(chunks, func(a, b domain.Chunk) int { return a.Ordinal - b.Ordinal })
	return &manifest, chunks, nil
}

// Location describes the store.
func (s *IndexStore) Location() string {
	return "memory"
}

// Close is a no-op.
func (s *IndexStore) Close() error {
	return nil
}

func copyChunks(chunks []domain.Chunk) []domain.Chunk {
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = c
		out[i].Embedding = slices.Clone(c.Embedding)
	}
	return out
}
