package domain

import "time"

// IndexManifest describes how a persisted vector index was built.
// It is stored beside the vectors and checked when the index is loaded.
type IndexManifest struct {
	// EmbeddingModel is the model that produced the stored vectors.
	EmbeddingModel string

	// Dimensions is the length of every stored vector.
	Dimensions int

	// ChunkSize and Overlap are the chunking parameters used.
	ChunkSize int
	Overlap   int

	// DocumentID identifies the document content that was indexed.
	DocumentID string

	// SourceURI is the path the document was read from.
	SourceURI string

	// ChunkCount is the number of chunks persisted.
	ChunkCount int

	// BuiltAt is when the index was written.
	BuiltAt time.Time
}

// IngestAction says what an ingestion run did.
type IngestAction string

// Ingest actions.
const (
	// IngestActionLoaded reused an existing persisted index.
	IngestActionLoaded IngestAction = "loaded"

	// IngestActionBuilt (re)built the index from the document.
	IngestActionBuilt IngestAction = "built"
)

// IngestOptions controls the build-versus-reuse decision.
type IngestOptions struct {
	// Rebuild destroys any persisted index and builds a new one.
	Rebuild bool
}

// IngestReport summarises an ingestion run.
type IngestReport struct {
	Action   IngestAction
	Manifest IndexManifest

	// Embedded is the number of texts sent to the embedding service.
	Embedded int

	// Reason explains the build-versus-reuse decision.
	Reason string

	Duration time.Duration
}

// IndexStatus reports the state of the in-process index.
type IndexStatus struct {
	Loaded   bool
	Location string
	Chunks   int
	Manifest IndexManifest
}
