package postprocessors

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/logger"
	"github.com/custodia-labs/regbot/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 800)
//   - overlap (int): Overlapping characters between chunks (default: 80)
//
// Out-of-range values are rejected rather than corrected.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	size, overlap := chunker.DefaultChunkSize, chunker.DefaultChunkOverlap
	if v, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		size = v
	}
	if v, ok := getIntFromConfig(cfg, "overlap"); ok {
		overlap = v
	}

	if err := chunker.Validate(size, overlap); err != nil {
		return nil, err
	}

	return chunker.New(chunker.WithChunkSize(size), chunker.WithOverlap(overlap)), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
// The boolean is false when the key is missing or not numeric.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// NewChunkingPipeline builds the default ingestion pipeline: a single chunker
// configured with size and overlap.
func NewChunkingPipeline(size, overlap int) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	proc, err := r.Build("chunker", map[string]any{"chunk_size": size, "overlap": overlap})
	if err != nil {
		return nil, fmt.Errorf("build chunker: %w", err)
	}
	p := NewPipeline(proc)
	logger.Debug("Post-processing pipeline: %s (size=%d, overlap=%d)", strings.Join(p.Names(), " -> "), size, overlap)
	return p, nil
}
