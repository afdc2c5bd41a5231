package mcp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

func newTestServer(t *testing.T, ask *mockAskService, index *mockIndexService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Ask: ask, Index: index})
	require.NoError(t, err)
	return server
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		ask := &mockAskService{answer: sampleAnswer()}
		server := newTestServer(t, ask, &mockIndexService{})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "Como posso justificar as faltas?"})

		require.NoError(t, err)
		assert.Equal(t, "As faltas justificam-se junto dos serviços académicos.", output.Answer)
		assert.Equal(t, "plain", output.Kind)
		assert.Equal(t, int64(1500), output.LatencyMS)
		assert.Equal(t, "session-new", output.SessionID)
		require.Len(t, output.Sources, 2)
		assert.Equal(t, SourceOutput{Label: 1, Locator: "p. 4", Excerpt: "Artigo 12.º Justificação de faltas"}, output.Sources[0])
		assert.Equal(t, "pp. 4-5", output.Sources[1].Locator)
	})

	t.Run("continues a stored session", func(t *testing.T) {
		ask := &mockAskService{answer: sampleAnswer()}
		server := newTestServer(t, ask, &mockIndexService{})

		_, first, err := server.handleAsk(ctx, nil, AskInput{Question: "Faltas?"})
		require.NoError(t, err)
		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "E a época especial?", SessionID: first.SessionID})
		require.NoError(t, err)

		require.Len(t, ask.sessions, 2)
		assert.Equal(t, 1, ask.sessions[1].Len(), "second call sees the first turn")

		stored, ok := server.ports.Sessions.Get(first.SessionID)
		require.True(t, ok)
		assert.Equal(t, 2, stored.Len())
	})

	t.Run("concurrent calls on one session keep every turn", func(t *testing.T) {
		ask := &mockAskService{answer: sampleAnswer(), delay: 20 * time.Millisecond}
		server := newTestServer(t, ask, &mockIndexService{})

		_, first, err := server.handleAsk(ctx, nil, AskInput{Question: "Faltas?"})
		require.NoError(t, err)

		const concurrent = 5
		var wg sync.WaitGroup
		errs := make([]error, concurrent)
		for i := range concurrent {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, errs[i] = server.handleAsk(ctx, nil, AskInput{Question: "E a época especial?", SessionID: first.SessionID})
			}()
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
		stored, ok := server.ports.Sessions.Get(first.SessionID)
		require.True(t, ok)
		assert.Equal(t, 1+concurrent, stored.Len())
	})

	t.Run("unknown session starts fresh", func(t *testing.T) {
		ask := &mockAskService{answer: sampleAnswer()}
		server := newTestServer(t, ask, &mockIndexService{})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "Faltas?", SessionID: "gone"})

		require.NoError(t, err)
		assert.Equal(t, "session-new", output.SessionID)
		assert.Zero(t, ask.sessions[0].Len())
	})

	t.Run("validation error is returned", func(t *testing.T) {
		ask := &mockAskService{err: domain.ErrValidation}
		server := newTestServer(t, ask, &mockIndexService{})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "a"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Zero(t, server.ports.Sessions.Len())
	})
}

func TestServer_handleIndexStatus(t *testing.T) {
	t.Run("loaded index", func(t *testing.T) {
		server := newTestServer(t, &mockAskService{}, &mockIndexService{status: loadedStatus()})

		_, output, err := server.handleIndexStatus(context.Background(), nil, IndexStatusInput{})

		require.NoError(t, err)
		assert.Equal(t, IndexStatusOutput{
			Loaded:         true,
			Location:       "/home/u/.regbot/index",
			Chunks:         42,
			EmbeddingModel: "nomic-embed-text",
			Dimensions:     768,
			SourceURI:      "regulamento.pdf",
			BuiltAt:        "2026-02-01T12:00:00Z",
		}, output)
	})

	t.Run("nothing loaded", func(t *testing.T) {
		server := newTestServer(t, &mockAskService{}, &mockIndexService{
			status: domain.IndexStatus{Location: "/tmp/index"},
		})

		_, output, err := server.handleIndexStatus(context.Background(), nil, IndexStatusInput{})

		require.NoError(t, err)
		assert.False(t, output.Loaded)
		assert.Empty(t, output.EmbeddingModel)
		assert.Empty(t, output.BuiltAt)
	})
}
