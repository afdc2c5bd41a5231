package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Locator identifies where in the Document a chunk originated.
// It travels with the chunk into answers so citations stay traceable.
type Locator struct {
	// Start is the rune offset where the chunk begins.
	Start int `json:"start"`

	// End is the rune offset one past the chunk's last character.
	End int `json:"end"`

	// FirstPage is the page holding Start (0 if unknown).
	FirstPage int `json:"first_page,omitempty"`

	// LastPage is the page holding the chunk's last character (0 if unknown).
	LastPage int `json:"last_page,omitempty"`
}

// String renders the locator for citations, e.g. "p. 3" or "pp. 3-4".
func (l Locator) String() string {
	switch {
	case l.FirstPage == 0:
		return fmt.Sprintf("chars %d-%d", l.Start, l.End)
	case l.FirstPage == l.LastPage || l.LastPage == 0:
		return fmt.Sprintf("p. %d", l.FirstPage)
	default:
		return fmt.Sprintf("pp. %d-%d", l.FirstPage, l.LastPage)
	}
}

// Chunk is a bounded, overlapping segment of the source document used as
// a retrieval unit.
type Chunk struct {
	// ID is deterministic: the document ID plus the chunk ordinal.
	ID string `json:"id"`

	// DocumentID links to the parent Document.
	DocumentID string `json:"document_id"`

	// Ordinal is the position of the chunk in document order.
	Ordinal int `json:"ordinal"`

	// Text is the chunk content.
	Text string `json:"text"`

	// Locator records the chunk's origin in the document.
	Locator Locator `json:"locator"`

	// Embedding is the vector representation. Not serialised into answers.
	Embedding []float32 `json:"-"`
}

// ChunkID returns the deterministic identifier for a chunk.
func ChunkID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s-%04d", documentID, ordinal)
}

// Excerpt returns at most n runes of the chunk text, marking truncation with "...".
func (c Chunk) Excerpt(n int) string {
	text := strings.TrimSpace(c.Text)
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}

// WithoutEmbedding returns a copy of the chunk with the vector dropped.
func (c Chunk) WithoutEmbedding() Chunk {
	c.Embedding = nil
	return c
}

// ScoredChunk pairs a chunk with its similarity to a query.
type ScoredChunk struct {
	Chunk Chunk

	// Score is the cosine similarity (higher is closer).
	Score float64
}

// ChunksOf strips scores, preserving order.
func ChunksOf(scored []ScoredChunk) []Chunk {
	chunks := make([]Chunk, len(scored))
	for i := range scored {
		chunks[i] = scored[i].Chunk
	}
	return chunks
}
