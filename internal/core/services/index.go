package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/core/ports/driving"
	"github.com/custodia-labs/regbot/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// DefaultIngestBatchSize is how many chunk texts are sent per embedding call.
const DefaultIngestBatchSize = 16

// IndexConfig holds the parameters recorded in the index manifest.
type IndexConfig struct {
	ChunkSize int
	Overlap   int

	// BatchSize bounds each EmbedBatch call (default 16).
	BatchSize int
}

// IndexService builds the vector index from the document, persists it,
// and serves similarity queries once it is loaded.
//
// The in-memory index is read-only between builds: queries take a read lock,
// builds and loads take the write lock.
type IndexService struct {
	store    driven.IndexStore
	vectors  driven.VectorIndex
	embedder driven.EmbeddingService
	loader   driven.DocumentLoader
	pipeline driven.PostProcessorPipeline
	cfg      IndexConfig
	now      func() time.Time

	mu       sync.RWMutex
	manifest *domain.IndexManifest
}

// NewIndexService creates a new index service.
func NewIndexService(
	store driven.IndexStore,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	loader driven.DocumentLoader,
	pipeline driven.PostProcessorPipeline,
	cfg IndexConfig,
) *IndexService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultIngestBatchSize
	}
	return &IndexService{
		store:    store,
		vectors:  vectors,
		embedder: embedder,
		loader:   loader,
		pipeline: pipeline,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Ingest reuses the persisted index when one exists and holds chunks,
// otherwise it builds a new one from the document at path.
// With opts.Rebuild the persisted index is always destroyed and rebuilt.
func (s *IndexService) Ingest(
	ctx context.Context, path string, opts domain.IngestOptions,
) (*domain.IngestReport, error) {
	logger.Section("Ingestion")
	start := s.now()

	reason, err := s.buildReason(ctx, opts)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		manifest, err := s.Load(ctx)
		switch {
		case err == nil && manifest.ChunkCount > 0:
			logger.Info("Reusing persisted index at %s (%d chunks)", s.store.Location(), manifest.ChunkCount)
			return &domain.IngestReport{
				Action:   domain.IngestActionLoaded,
				Manifest: *manifest,
				Reason:   "persisted index found",
				Duration: s.now().Sub(start),
			}, nil
		case err == nil:
			reason = "persisted index is empty"
		case errors.Is(err, domain.ErrNotFound):
			reason = "no persisted index"
		default:
			return nil, err
		}
	}
	logger.Info("Building index: %s", reason)

	// Destroy before writing so a failed build never leaves a stale index behind.
	if err := s.store.Remove(ctx); err != nil {
		return nil, fmt.Errorf("%w: remove old index: %w", domain.ErrIngestion, err)
	}
	s.reset()

	doc, err := s.loadDocument(ctx, path)
	if err != nil {
		return nil, err
	}

	report, err := s.build(ctx, doc)
	if err != nil {
		return nil, err
	}
	report.Reason = reason
	report.Duration = s.now().Sub(start)
	return report, nil
}

// buildReason returns why a build is needed, or "" when a load should be tried.
func (s *IndexService) buildReason(ctx context.Context, opts domain.IngestOptions) (string, error) {
	if opts.Rebuild {
		return "rebuild requested", nil
	}
	exists, err := s.store.Exists(ctx)
	if err != nil {
		return "", fmt.Errorf("check index store: %w", err)
	}
	if !exists {
		return "no persisted index", nil
	}
	return "", nil
}

// Build unconditionally replaces the persisted index with one built from doc.
func (s *IndexService) Build(ctx context.Context, doc *domain.Document) (*domain.IngestReport, error) {
	logger.Section("Index Build")
	start := s.now()

	if err := s.store.Remove(ctx); err != nil {
		return nil, fmt.Errorf("%w: remove old index: %w", domain.ErrIngestion, err)
	}
	s.reset()

	report, err := s.build(ctx, doc)
	if err != nil {
		return nil, err
	}
	report.Reason = "rebuild requested"
	report.Duration = s.now().Sub(start)
	return report, nil
}

func (s *IndexService) loadDocument(ctx context.Context, path string) (*domain.Document, error) {
	if s.loader == nil {
		return nil, fmt.Errorf("%w: no document loader configured", domain.ErrIngestion)
	}
	defer logger.Elapsed("load document", time.Now())

	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", domain.ErrIngestion, path, err)
	}
	if doc.IsEmpty() {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIngestion, path, domain.ErrEmptyInput)
	}
	logger.Debug("Loaded %q: %d characters, %d pages", doc.Title, doc.Len(), len(doc.Pages))
	return doc, nil
}

// build chunks, embeds, persists and loads doc. The store must already be empty.
func (s *IndexService) build(ctx context.Context, doc *domain.Document) (*domain.IngestReport, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIngestion, domain.ErrEmbeddingUnavailable)
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk document: %w", domain.ErrIngestion, err)
	}
	logger.Debug("Chunked into %d chunks (size=%d, overlap=%d)", len(chunks), s.cfg.ChunkSize, s.cfg.Overlap)

	dims, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	manifest := domain.IndexManifest{
		EmbeddingModel: s.embedder.ModelName(),
		Dimensions:     dims,
		ChunkSize:      s.cfg.ChunkSize,
		Overlap:        s.cfg.Overlap,
		DocumentID:     doc.ID,
		SourceURI:      doc.URI,
		ChunkCount:     len(chunks),
		BuiltAt:        s.now().UTC(),
	}

	if err := s.store.Save(ctx, manifest, chunks); err != nil {
		return nil, fmt.Errorf("%w: save index: %w", domain.ErrIngestion, err)
	}
	logger.Info("Saved %d chunks to %s", len(chunks), s.store.Location())

	if err := s.populate(ctx, &manifest, chunks); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIngestion, err)
	}

	return &domain.IngestReport{
		Action:   domain.IngestActionBuilt,
		Manifest: manifest,
		Embedded: len(chunks),
	}, nil
}

// embedChunks fills in chunk embeddings batch by batch and returns their dimensionality.
func (s *IndexService) embedChunks(ctx context.Context, chunks []domain.Chunk) (int, error) {
	defer logger.Elapsed("embed chunks", time.Now())

	dims := 0
	for start := 0; start < len(chunks); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("%w: embed chunks %d-%d: %w", domain.ErrIngestion, start, end-1, err)
		}
		if len(vectors) != len(texts) {
			return 0, fmt.Errorf("%w: embedding service returned %d vectors for %d texts",
				domain.ErrIngestion, len(vectors), len(texts))
		}

		for i, vec := range vectors {
			if dims == 0 {
				dims = len(vec)
			}
			if len(vec) == 0 || len(vec) != dims {
				return 0, fmt.Errorf("%w: inconsistent embedding size %d (expected %d)",
					domain.ErrIngestion, len(vec), dims)
			}
			chunks[start+i].Embedding = vec
		}
		logger.Debug("Embedded chunks %d-%d", start, end-1)
	}

	return dims, nil
}

// Load reads the persisted index and verifies it was built with the
// configured embedding model. A disagreement returns *domain.ModelMismatchError.
func (s *IndexService) Load(ctx context.Context) (*domain.IndexManifest, error) {
	manifest, chunks, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load index: %w", err)
	}

	if err := s.checkCompatible(manifest, chunks); err != nil {
		logger.Warn("Persisted index is stale: %v", err)
		return nil, err
	}

	if err := s.populate(ctx, manifest, chunks); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (s *IndexService) checkCompatible(manifest *domain.IndexManifest, chunks []domain.Chunk) error {
	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	mismatch := &domain.ModelMismatchError{
		StoredModel:     manifest.EmbeddingModel,
		ConfiguredModel: s.embedder.ModelName(),
		StoredDims:      manifest.Dimensions,
		ConfiguredDims:  s.embedder.Dimensions(),
	}
	if mismatch.StoredModel != mismatch.ConfiguredModel {
		return mismatch
	}
	if mismatch.ConfiguredDims > 0 && mismatch.ConfiguredDims != mismatch.StoredDims {
		return mismatch
	}

	for _, c := range chunks {
		if len(c.Embedding) != manifest.Dimensions {
			mismatch.StoredDims = len(c.Embedding)
			mismatch.ConfiguredDims = manifest.Dimensions
			return mismatch
		}
	}
	return nil
}

// populate replaces the in-memory index contents.
func (s *IndexService) populate(ctx context.Context, manifest *domain.IndexManifest, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vectors.Reset()
	for _, c := range chunks {
		if err := s.vectors.Add(ctx, c); err != nil {
			s.vectors.Reset()
			s.manifest = nil
			return fmt.Errorf("add chunk %s: %w", c.ID, err)
		}
	}
	s.manifest = manifest
	logger.Debug("Vector index holds %d chunks", s.vectors.Len())
	return nil
}

func (s *IndexService) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors.Reset()
	s.manifest = nil
}

// Query returns the k chunks closest to vector by cosine similarity,
// highest first, ties ordered by chunk ordinal.
func (s *IndexService) Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.vectors.Len() == 0 {
		return nil, domain.ErrIndexEmpty
	}
	return s.vectors.Search(ctx, vector, k)
}

// Status reports what is currently loaded.
func (s *IndexService) Status() domain.IndexStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := domain.IndexStatus{
		Loaded:   s.manifest != nil,
		Location: s.store.Location(),
		Chunks:   s.vectors.Len(),
	}
	if s.manifest != nil {
		status.Manifest = *s.manifest
	}
	return status
}
