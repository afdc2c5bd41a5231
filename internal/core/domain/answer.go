package domain

import (
	"fmt"
	"time"
)

// Fixed user-facing texts. The assistant answers in Portuguese.
const (
	// DegradedAnswerPrefix starts the text of an answer produced from a failure.
	DegradedAnswerPrefix = "Erro ao processar pergunta"

	// NoDataAnswer is returned when the index holds no chunks.
	NoDataAnswer = "Não existem documentos indexados para responder a esta pergunta."
)

// AnswerKind records how an answer came to be.
type AnswerKind string

// Answer kinds.
const (
	// AnswerKindStructured came from a structured model result that named its sources.
	AnswerKindStructured AnswerKind = "structured"

	// AnswerKindPlain came from a bare-text model result; sources are the retrieved chunks.
	AnswerKindPlain AnswerKind = "plain"

	// AnswerKindDegraded carries an error message instead of an answer.
	AnswerKindDegraded AnswerKind = "degraded"

	// AnswerKindNoData reports an empty index.
	AnswerKindNoData AnswerKind = "no_data"
)

// Answer is the result of one question. Never mutated after creation.
type Answer struct {
	// Text is the answer shown to the user.
	Text string `json:"text"`

	// Sources are the supporting chunks, in order.
	Sources []Chunk `json:"sources"`

	// Latency is the time taken to produce the answer when it was fresh.
	Latency time.Duration `json:"latency"`

	// Kind records how the answer was produced.
	Kind AnswerKind `json:"kind"`

	// FromCache is true when the answer was served from the response cache.
	FromCache bool `json:"from_cache"`
}

// DegradedAnswer converts a failure into a well-formed answer with no sources.
func DegradedAnswer(err error) Answer {
	return Answer{
		Text:    fmt.Sprintf("%s: %v", DegradedAnswerPrefix, err),
		Sources: []Chunk{},
		Kind:    AnswerKindDegraded,
	}
}

// NoDataAnswerValue is the explicit answer for queries against an empty index.
func NoDataAnswerValue() Answer {
	return Answer{
		Text:    NoDataAnswer,
		Sources: []Chunk{},
		Kind:    AnswerKindNoData,
	}
}

// IsDegraded returns true if the answer does not come from the model.
func (a Answer) IsDegraded() bool {
	return a.Kind == AnswerKindDegraded || a.Kind == AnswerKindNoData
}

// Clone returns a copy that shares no slices with the receiver.
func (a Answer) Clone() Answer {
	out := a
	if a.Sources != nil {
		out.Sources = make([]Chunk, len(a.Sources))
		for i := range a.Sources {
			out.Sources[i] = a.Sources[i].WithoutEmbedding()
		}
	}
	return out
}
