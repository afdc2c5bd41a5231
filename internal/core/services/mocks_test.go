package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
)

// mockEmbedder implements driven.EmbeddingService for testing.
// Vectors come from embed, or a constant unit vector when embed is nil.
type mockEmbedder struct {
	mu       sync.Mutex
	model    string
	dims     int
	embed    func(text string) []float32
	embedErr error
	batchErr error
	calls    int
	texts    int
}

func (m *mockEmbedder) vector(text string) []float32 {
	if m.embed != nil {
		return m.embed(text)
	}
	vec := make([]float32, m.Dimensions())
	vec[0] = 1
	return vec
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.texts++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.texts += len(texts)
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 4
}

func (m *mockEmbedder) ModelName() string {
	if m.model != "" {
		return m.model
	}
	return "mock-embed"
}

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) embeddedTexts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.texts
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	mu       sync.Mutex
	response string
	err      error

	// block makes Generate wait for ctx to end.
	block bool

	prompts []string
	opts    []driven.GenerateOptions
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// mockLoader implements driven.DocumentLoader for testing.
type mockLoader struct {
	doc   *domain.Document
	err   error
	loads int
}

func (m *mockLoader) Supports(_ string) bool { return true }

func (m *mockLoader) Load(_ context.Context, _ string) (*domain.Document, error) {
	m.loads++
	if m.err != nil {
		return nil, m.err
	}
	return m.doc, nil
}

// mockPrompts implements driven.PromptStore for testing.
type mockPrompts struct {
	templates map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	t, ok := m.templates[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return t, nil
}

func (m *mockPrompts) Reload() {}

// mockAskService implements driving.AskService for testing the batch runner.
type mockAskService struct {
	answers  map[string]domain.Answer
	err      error
	sessions []string
	asked    []string

	// cancel, when set, is called after the first question.
	cancel context.CancelFunc
}

func (m *mockAskService) NewSession() domain.Session {
	s := domain.Session{ID: "s" + string(rune('0'+len(m.sessions)))}
	m.sessions = append(m.sessions, s.ID)
	return s
}

func (m *mockAskService) Ask(
	_ context.Context, session domain.Session, question string,
) (domain.Answer, domain.Session, error) {
	m.asked = append(m.asked, question)
	if m.cancel != nil {
		m.cancel()
	}
	if m.err != nil {
		return domain.Answer{}, session, m.err
	}
	return m.answers[question], session, nil
}

func (m *mockAskService) ClearCache(_ context.Context) error { return nil }
