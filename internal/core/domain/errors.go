package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Pipeline Errors.

	// ErrEmptyInput indicates a document with no text was given to the chunker.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidChunking indicates chunk size and overlap violate size > overlap >= 0.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrIngestion indicates the build step failed: the source document could not
	// be read or the embedding service failed during bulk embedding.
	// Ingestion errors are fatal for the current process.
	ErrIngestion = errors.New("ingestion failed")

	// ErrIndexEmpty indicates a query against a vector index holding zero chunks.
	ErrIndexEmpty = errors.New("vector index is empty")

	// ErrServiceUnavailable indicates an embedding or generation call failed at query time.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrValidation indicates a question was rejected before any retrieval work.
	ErrValidation = errors.New("validation failed")

	// ErrModelMismatch indicates a persisted index was built with a different
	// embedding model or dimensionality than the one configured now.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// Service Configuration Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrUnsupportedType indicates an unknown provider, backend or document type.
	ErrUnsupportedType = errors.New("unsupported type")
)

// ModelMismatchError reports a stale index: the stored embedding model or
// dimensionality disagrees with the configured embedding service.
type ModelMismatchError struct {
	StoredModel     string
	ConfiguredModel string
	StoredDims      int
	ConfiguredDims  int
}

// Error implements the error interface.
func (e *ModelMismatchError) Error() string {
	return fmt.Sprintf(
		"%s: index was built with %q (%d dims) but %q (%d dims) is configured; rebuild the index",
		ErrModelMismatch, e.StoredModel, e.StoredDims, e.ConfiguredModel, e.ConfiguredDims,
	)
}

// Unwrap lets errors.Is match ErrModelMismatch.
func (e *ModelMismatchError) Unwrap() error {
	return ErrModelMismatch
}

// IsFatal reports whether err should stop the current process.
// Only ingestion failures and model mismatches are unrecoverable;
// every other failure is rendered to the caller as a message.
func IsFatal(err error) bool {
	return errors.Is(err, ErrIngestion) || errors.Is(err, ErrModelMismatch)
}
