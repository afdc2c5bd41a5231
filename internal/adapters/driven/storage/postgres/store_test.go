package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

func TestNewStore_InvalidDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "postgres://%zz", "x")
	assert.Error(t, err)
}

// TestStore_Live runs against a real database when REGBOT_TEST_POSTGRES_DSN is set.
func TestStore_Live(t *testing.T) {
	dsn := os.Getenv("REGBOT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("REGBOT_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	store, err := NewStore(ctx, dsn, "test-"+time.Now().Format("150405.000000"))
	require.NoError(t, err)
	defer store.Close()
	defer func() { _ = store.Remove(ctx) }()

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
	_, _, err = store.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	manifest := domain.IndexManifest{
		EmbeddingModel: "hash-256", Dimensions: 2, ChunkSize: 800, Overlap: 80,
		DocumentID: "abc", SourceURI: "regulamento.pdf", ChunkCount: 2,
		BuiltAt: time.Date(2026, 2, 3, 10, 30, 0, 0, time.UTC),
	}
	chunks := []domain.Chunk{
		{ID: "abc-0001", DocumentID: "abc", Ordinal: 1, Text: "b", Embedding: []float32{0, 1},
			Locator: domain.Locator{Start: 720, End: 1520, FirstPage: 2, LastPage: 3}},
		{ID: "abc-0000", DocumentID: "abc", Ordinal: 0, Text: "a", Embedding: []float32{1, 0}},
	}
	require.NoError(t, store.Save(ctx, manifest, chunks))

	got, loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hash-256", got.EmbeddingModel)
	assert.True(t, manifest.BuiltAt.Equal(got.BuiltAt))
	require.Len(t, loaded, 2)
	assert.Equal(t, "abc-0000", loaded[0].ID)
	assert.Equal(t, []float32{0, 1}, loaded[1].Embedding)
	assert.Equal(t, chunks[0].Locator, loaded[1].Locator)

	require.NoError(t, store.Remove(ctx))
	exists, err = store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}
