// Package chunker provides a fixed-size, overlapping text chunking processor.
package chunker

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 80

// Processor splits document content into fixed-size chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
// Parameters are validated when content is processed.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window length.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	return Split(doc, p.chunkSize, p.overlap)
}

// Validate checks size > 0 and 0 <= overlap < size.
func Validate(size, overlap int) error {
	return domain.ChunkingSettings{Size: size, Overlap: overlap}.Validate()
}

// Split cuts the document into windows of size characters, each starting
// size-overlap characters after the previous one. Splitting stops once a
// window reaches the end of the text, so the last chunk may be shorter and
// every pair of neighbours shares exactly overlap characters.
//
// The result is deterministic: the same document and parameters always
// yield the same chunks with the same IDs.
func Split(doc *domain.Document, size, overlap int) ([]domain.Chunk, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}
	if doc == nil || doc.Content == "" {
		return nil, fmt.Errorf("%w: document has no text", domain.ErrEmptyInput)
	}

	// Offsets are in characters, not bytes.
	runes := []rune(doc.Content)
	total := len(runes)
	step := size - overlap

	chunks := make([]domain.Chunk, 0, total/step+1)
	for start, ordinal := 0, 0; ; start, ordinal = start+step, ordinal+1 {
		end := start + size
		if end > total {
			end = total
		}

		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(doc.ID, ordinal),
			DocumentID: doc.ID,
			Ordinal:    ordinal,
			Text:       string(runes[start:end]),
			Locator:    doc.LocatorFor(start, end),
		})

		if end == total {
			break
		}
	}

	return chunks, nil
}

// Count returns how many chunks Split would produce for a text of n characters.
func Count(n, size, overlap int) int {
	if n <= 0 || Validate(size, overlap) != nil {
		return 0
	}
	if n <= size {
		return 1
	}
	step := size - overlap
	return (n-size+step-1)/step + 1
}

// RuneLen is a convenience for callers reporting sizes in characters.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
