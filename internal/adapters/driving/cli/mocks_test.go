package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

type mockAskService struct {
	answer   domain.Answer
	err      error
	clearErr error
	asked    []string
	cleared  int
}

func (m *mockAskService) NewSession() domain.Session {
	return domain.NewSession("session-1", time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
}

func (m *mockAskService) Ask(_ context.Context, session domain.Session, q string) (domain.Answer, domain.Session, error) {
	m.asked = append(m.asked, q)
	if err := domain.ValidateQuestion(q); err != nil {
		return domain.Answer{}, session, err
	}
	if m.err != nil {
		return domain.Answer{}, session, m.err
	}
	return m.answer, session.WithTurn(domain.Turn{Question: q, Answer: m.answer}), nil
}

func (m *mockAskService) ClearCache(_ context.Context) error {
	m.cleared++
	return m.clearErr
}

type mockIndexService struct {
	report   *domain.IngestReport
	err      error
	paths    []string
	rebuilds []bool
}

func (m *mockIndexService) Ingest(_ context.Context, path string, opts domain.IngestOptions) (*domain.IngestReport, error) {
	m.paths = append(m.paths, path)
	m.rebuilds = append(m.rebuilds, opts.Rebuild)
	if m.err != nil {
		return nil, m.err
	}
	if m.report != nil {
		return m.report, nil
	}
	return &domain.IngestReport{Action: domain.IngestActionLoaded, Manifest: sampleManifest()}, nil
}

func (m *mockIndexService) Load(_ context.Context) (*domain.IndexManifest, error) {
	manifest := sampleManifest()
	return &manifest, nil
}

func (m *mockIndexService) Query(_ context.Context, _ []float32, _ int) ([]domain.ScoredChunk, error) {
	return nil, nil
}

func (m *mockIndexService) Status() domain.IndexStatus {
	return domain.IndexStatus{Loaded: true, Chunks: 42, Manifest: sampleManifest()}
}

type mockBatchService struct {
	ask *mockAskService
}

func (m *mockBatchService) Run(ctx context.Context, questions []string) []domain.BatchResult {
	results := make([]domain.BatchResult, 0, len(questions))
	for _, q := range questions {
		answer, _, err := m.ask.Ask(ctx, m.ask.NewSession(), q)
		results = append(results, domain.BatchResult{Question: q, Answer: answer, Err: err})
	}
	return results
}

type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	setErr      error
	set         map[string]string
	embedding   []string
	llm         []string
}

func newMockSettings() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	if key == "document.path" {
		m.settings.Document.Path = value
	}
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"document.path", "chunking.size", "llm.api_key"}
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.embedding = []string{string(provider), model, apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llm = []string{string(provider), model, apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return nil }
func (m *mockSettingsService) ValidateLLMConfig() error        { return nil }

func sampleManifest() domain.IndexManifest {
	return domain.IndexManifest{
		EmbeddingModel: "nomic-embed-text",
		Dimensions:     768,
		ChunkSize:      800,
		Overlap:        80,
		DocumentID:     "doc-1",
		SourceURI:      "regulamento.pdf",
		ChunkCount:     42,
		BuiltAt:        time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sampleAnswer() domain.Answer {
	return domain.Answer{
		Text:    "As faltas justificam-se no prazo de cinco dias úteis.",
		Kind:    domain.AnswerKindPlain,
		Latency: 1500 * time.Millisecond,
		Sources: []domain.Chunk{
			{ID: "c-1", Text: "Artigo 12.º Justificação de faltas", Locator: domain.Locator{FirstPage: 4, LastPage: 4}},
			{ID: "c-2", Text: "Artigo 13.º Efeitos das faltas", Locator: domain.Locator{FirstPage: 4, LastPage: 5}},
		},
	}
}

// testServices installs mocks and returns them.
func testServices(t *testing.T) (*mockAskService, *mockIndexService, *mockSettingsService) {
	t.Helper()
	ask := &mockAskService{answer: sampleAnswer()}
	index := &mockIndexService{}
	settings := newMockSettings()

	SetServices(&Services{
		Ask:      ask,
		Index:    index,
		Batch:    &mockBatchService{ask: ask},
		Settings: settings,
	})
	t.Cleanup(func() { SetServices(nil) })
	return ask, index, settings
}

// resetFlags restores every package-level flag to its default.
func resetFlags() {
	verbose = false
	ingestRebuild = false
	askJSON = false
	askNoCache = false
	chatPlain = false
	batchFile = ""
	batchOutput = DefaultBatchOutput
	serveAddr = ":8080"
	serveCORSOrigins = nil
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, in io.Reader, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), in, args...)
}

func executeContext(t *testing.T, ctx context.Context, in io.Reader, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags()
	}()

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

var errBoom = errors.New("boom")
