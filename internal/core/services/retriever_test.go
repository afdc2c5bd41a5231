package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storemem "github.com/custodia-labs/regbot/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/regbot/internal/core/domain"
)

func TestNewRetriever_DefaultK(t *testing.T) {
	assert.Equal(t, DefaultRetrievalK, NewRetriever(&mockEmbedder{}, nil, 0).K())
	assert.Equal(t, 5, NewRetriever(&mockEmbedder{}, nil, 5).K())
}

func TestRetriever_Retrieve(t *testing.T) {
	ctx := context.Background()
	embedder := &mockEmbedder{}
	index := newTestIndexService(t, storemem.NewIndexStore(), embedder, &mockLoader{doc: testRegulation()})
	_, err := index.Ingest(ctx, "regulamento.pdf", domain.IngestOptions{})
	require.NoError(t, err)

	r := NewRetriever(embedder, index, 2)
	results, err := r.Retrieve(ctx, "Como posso justificar as faltas?")

	require.NoError(t, err)
	assert.Len(t, results, 2)
	for _, sc := range results {
		assert.Nil(t, sc.Chunk.Embedding)
	}
}

func TestRetriever_Retrieve_FewerChunksThanK(t *testing.T) {
	ctx := context.Background()
	embedder := &mockEmbedder{}
	index := newTestIndexService(t, storemem.NewIndexStore(), embedder,
		&mockLoader{doc: domain.NewDocument("curto.txt", []string{"Artigo único."})})
	_, err := index.Ingest(ctx, "curto.txt", domain.IngestOptions{})
	require.NoError(t, err)

	results, err := NewRetriever(embedder, index, 3).Retrieve(ctx, "artigo")

	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRetriever_Retrieve_EmptyIndex(t *testing.T) {
	embedder := &mockEmbedder{}
	index := newTestIndexService(t, storemem.NewIndexStore(), embedder, nil)

	_, err := NewRetriever(embedder, index, 2).Retrieve(context.Background(), "faltas")

	assert.ErrorIs(t, err, domain.ErrIndexEmpty)
}

func TestRetriever_Retrieve_EmbeddingFailure(t *testing.T) {
	embedder := &mockEmbedder{embedErr: errors.New("ollama down")}
	index := newTestIndexService(t, storemem.NewIndexStore(), embedder, nil)

	_, err := NewRetriever(embedder, index, 2).Retrieve(context.Background(), "faltas")

	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "ollama down")
}
