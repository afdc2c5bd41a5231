package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer  domain.Answer
	err     error
	delay   time.Duration
	cleared bool

	mu       sync.Mutex
	asked    []string
	sessions []domain.Session
}

func (m *mockAskService) NewSession() domain.Session {
	return domain.NewSession("session-new", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
}

func (m *mockAskService) Ask(
	_ context.Context, session domain.Session, question string,
) (domain.Answer, domain.Session, error) {
	m.mu.Lock()
	m.asked = append(m.asked, question)
	m.sessions = append(m.sessions, session)
	m.mu.Unlock()

	time.Sleep(m.delay)
	if m.err != nil {
		return domain.Answer{}, session, m.err
	}
	return m.answer, session.WithTurn(domain.Turn{Question: question, Answer: m.answer}), nil
}

func (m *mockAskService) ClearCache(_ context.Context) error {
	m.cleared = true
	return nil
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	status domain.IndexStatus
}

func (m *mockIndexService) Ingest(
	_ context.Context, _ string, _ domain.IngestOptions,
) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, nil
}

func (m *mockIndexService) Load(_ context.Context) (*domain.IndexManifest, error) {
	return &m.status.Manifest, nil
}

func (m *mockIndexService) Query(_ context.Context, _ []float32, _ int) ([]domain.ScoredChunk, error) {
	return nil, nil
}

func (m *mockIndexService) Status() domain.IndexStatus {
	return m.status
}

func sampleAnswer() domain.Answer {
	return domain.Answer{
		Text: "As faltas justificam-se junto dos serviços académicos.",
		Sources: []domain.Chunk{
			{ID: "doc-0003", Ordinal: 3, Text: "Artigo 12.º Justificação de faltas", Locator: domain.Locator{Start: 2160, End: 2960, FirstPage: 4, LastPage: 4}},
			{ID: "doc-0004", Ordinal: 4, Text: "As faltas podem ser justificadas", Locator: domain.Locator{Start: 2880, End: 3680, FirstPage: 4, LastPage: 5}},
		},
		Latency: 1500 * time.Millisecond,
		Kind:    domain.AnswerKindPlain,
	}
}

func loadedStatus() domain.IndexStatus {
	return domain.IndexStatus{
		Loaded:   true,
		Location: "/home/u/.regbot/index",
		Chunks:   42,
		Manifest: domain.IndexManifest{
			EmbeddingModel: "nomic-embed-text",
			Dimensions:     768,
			SourceURI:      "regulamento.pdf",
			ChunkCount:     42,
			BuiltAt:        time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}
