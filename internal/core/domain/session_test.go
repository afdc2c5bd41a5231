package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_WithTurnDoesNotMutateReceiver(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s0 := NewSession("s-1", now)

	s1 := s0.WithTurn(Turn{Question: "q1"})
	s2 := s1.WithTurn(Turn{Question: "q2"})
	s2b := s1.WithTurn(Turn{Question: "q2b"})

	assert.Equal(t, 0, s0.Len())
	assert.Equal(t, 1, s1.Len())
	assert.Equal(t, 2, s2.Len())
	assert.Equal(t, "q2", s2.History[1].Question)
	assert.Equal(t, "q2b", s2b.History[1].Question)
	assert.Equal(t, "s-1", s2.ID)

	last, ok := s2.LastTurn()
	require.True(t, ok)
	assert.Equal(t, "q2", last.Question)

	_, ok = s0.LastTurn()
	assert.False(t, ok)
}

func TestDegradedAnswer(t *testing.T) {
	a := DegradedAnswer(errors.New("timeout"))

	assert.Equal(t, "Erro ao processar pergunta: timeout", a.Text)
	assert.NotNil(t, a.Sources)
	assert.Empty(t, a.Sources)
	assert.True(t, a.IsDegraded())
	assert.Equal(t, AnswerKindDegraded, a.Kind)
}

func TestNoDataAnswerValue(t *testing.T) {
	a := NoDataAnswerValue()
	assert.True(t, a.IsDegraded())
	assert.Empty(t, a.Sources)
	assert.Equal(t, NoDataAnswer, a.Text)
}

func TestAnswer_Clone(t *testing.T) {
	a := Answer{
		Text:    "x",
		Sources: []Chunk{{ID: "c1", Embedding: []float32{1, 2}}},
		Kind:    AnswerKindPlain,
	}
	b := a.Clone()
	b.Sources[0].ID = "changed"

	assert.Equal(t, "c1", a.Sources[0].ID)
	assert.Nil(t, b.Sources[0].Embedding)
	assert.False(t, b.IsDegraded())
}

func TestFormatBatchReport(t *testing.T) {
	long := strings.Repeat("a", 250)
	results := []BatchResult{
		{
			Question: "Como posso justificar as faltas?",
			Answer: Answer{
				Text:    "Com atestado.",
				Latency: 1500 * time.Millisecond,
				Sources: []Chunk{{Text: long, Locator: Locator{FirstPage: 3, LastPage: 3}}},
				Kind:    AnswerKindPlain,
			},
		},
		{Question: "ab", Err: errors.New("validation failed: too short")},
	}

	report := FormatBatchReport(results)

	assert.True(t, strings.HasPrefix(report, "=== RESULTADOS DOS TESTES ==="))
	assert.Contains(t, report, "Pergunta 1: Como posso justificar as faltas?")
	assert.Contains(t, report, "Tempo de resposta: 1.50 segundos")
	assert.Contains(t, report, "Resposta:\nCom atestado.")
	assert.Contains(t, report, "Documento 1 (p. 3): "+strings.Repeat("a", 200)+"...")
	assert.NotContains(t, report, strings.Repeat("a", 201))
	assert.Contains(t, report, "Pergunta 2: ab\nErro: validation failed: too short")
}
