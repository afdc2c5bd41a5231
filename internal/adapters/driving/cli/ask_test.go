package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

func TestAskCmd_Structure(t *testing.T) {
	assert.Equal(t, "ask [question...]", askCmd.Use)
	assert.NotNil(t, askCmd.Flags().Lookup("json"))
	assert.NotNil(t, askCmd.Flags().Lookup("no-cache"))
	assert.Contains(t, askCmd.Long, domain.ExampleQuestions()[0])
}

func TestAskCmd_RequiresQuestion(t *testing.T) {
	testServices(t)

	_, _, err := execute(t, nil, "ask")

	assert.Error(t, err)
}

func TestAskCmd_PrintsAnswer(t *testing.T) {
	ask, index, _ := testServices(t)

	out, _, err := execute(t, nil, "ask", "Como", "posso", "justificar", "as", "faltas?")

	require.NoError(t, err)
	assert.Equal(t, []string{"Como posso justificar as faltas?"}, ask.asked)
	assert.Len(t, index.paths, 1)
	assert.Contains(t, out, "As faltas justificam-se no prazo de cinco dias úteis.")
	assert.Contains(t, out, "[1] p. 4")
	assert.Contains(t, out, "[2] pp. 4-5")
	assert.Contains(t, out, "Artigo 12.º Justificação de faltas")
	assert.Contains(t, out, "Tempo de resposta: 1.50s")
	assert.Zero(t, ask.cleared)
}

func TestAskCmd_JSON(t *testing.T) {
	testServices(t)

	out, _, err := execute(t, nil, "ask", "--json", "O que é a avaliação contínua?")
	require.NoError(t, err)

	var got askOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "O que é a avaliação contínua?", got.Question)
	assert.Equal(t, domain.AnswerKindPlain, got.Kind)
	assert.Equal(t, int64(1500), got.LatencyMS)
	require.Len(t, got.Sources, 2)
	assert.Equal(t, "c-1", got.Sources[0].ChunkID)
	assert.Equal(t, "pp. 4-5", got.Sources[1].Locator)
}

func TestAskCmd_NoCacheClearsFirst(t *testing.T) {
	ask, _, _ := testServices(t)

	_, _, err := execute(t, nil, "ask", "--no-cache", "Qual o prazo para revisão de provas?")

	require.NoError(t, err)
	assert.Equal(t, 1, ask.cleared)
}

func TestAskCmd_NoCacheClearFailureIsWarning(t *testing.T) {
	ask, _, _ := testServices(t)
	ask.clearErr = errBoom

	_, stderr, err := execute(t, nil, "ask", "--no-cache", "Qual o prazo para revisão de provas?")

	require.NoError(t, err)
	assert.Contains(t, stderr, "could not clear cache")
	assert.Len(t, ask.asked, 1)
}

func TestAskCmd_ShortQuestionWarnsAndSucceeds(t *testing.T) {
	testServices(t)

	out, stderr, err := execute(t, nil, "ask", "ab")

	require.NoError(t, err)
	assert.Contains(t, stderr, "Warning:")
	assert.NotContains(t, out, "Resposta:")
}

func TestAskCmd_DegradedAnswerIsNotAnError(t *testing.T) {
	ask, _, _ := testServices(t)
	ask.answer = domain.DegradedAnswer(errBoom)

	out, _, err := execute(t, nil, "ask", "Como funciona a época especial?")

	require.NoError(t, err)
	assert.Contains(t, out, domain.DegradedAnswerPrefix)
}

func TestAskCmd_IngestionFailureIsFatal(t *testing.T) {
	ask, index, _ := testServices(t)
	index.err = domain.ErrIngestion

	_, _, err := execute(t, nil, "ask", "Como funciona a época especial?")

	assert.ErrorIs(t, err, domain.ErrIngestion)
	assert.Empty(t, ask.asked)
}

func TestPrintAnswer_FromCache(t *testing.T) {
	answer := sampleAnswer()
	answer.FromCache = true
	answer.Sources = nil

	buf := new(bytes.Buffer)
	printAnswer(buf, answer)

	assert.Contains(t, buf.String(), "1.50s (cache)")
	assert.NotContains(t, buf.String(), "Fontes:")
}
