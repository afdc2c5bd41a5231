package history

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/regbot/internal/core/domain"
)

func sampleSession() domain.Session {
	s := domain.NewSession("s-1", time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
	s = s.WithTurn(domain.Turn{
		Question: "Como funciona a avaliação?",
		Answer: domain.Answer{
			Text:    "Por avaliação contínua ou exame final.",
			Kind:    domain.AnswerKindPlain,
			Latency: 1500 * time.Millisecond,
			Sources: []domain.Chunk{{ID: "c-1", Locator: domain.Locator{FirstPage: 4, LastPage: 5}}},
		},
	})
	return s.WithTurn(domain.Turn{
		Question: "Quantas faltas posso dar?",
		Answer: domain.Answer{
			Text:      "Até um quarto das aulas.",
			Kind:      domain.AnswerKindPlain,
			FromCache: true,
		},
	})
}

func newTestView() *View {
	v := NewView(nil, nil)
	v.SetDimensions(100, 30)
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil)

	assert.Empty(t, v.Turns())
	assert.Equal(t, "Initialising...", v.View())
	assert.Nil(t, v.Init())
}

func TestView_Empty(t *testing.T) {
	v := newTestView()

	out := v.View()

	assert.Contains(t, out, "Histórico (0)")
	assert.Contains(t, out, "Ainda não foram feitas perguntas")
}

func TestView_SetSessionSelectsLastTurn(t *testing.T) {
	v := newTestView()

	v.SetSession(sampleSession())

	assert.Len(t, v.Turns(), 2)
	assert.Equal(t, 1, v.Selected())

	out := v.View()
	assert.Contains(t, out, "Histórico (2)")
	assert.Contains(t, out, "Como funciona a avaliação?")
	assert.Contains(t, out, "[plain, 1.50s]")
	assert.Contains(t, out, "[plain, cache]")
	assert.Contains(t, out, "Até um quarto das aulas.")
}

func TestView_Navigation(t *testing.T) {
	v := newTestView()
	v.SetSession(sampleSession())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.Selected())
	assert.Contains(t, v.View(), "Fontes: pp. 4-5")

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.Selected())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.Selected())
}

func TestView_BackToChat(t *testing.T) {
	for _, msg := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyTab}} {
		t.Run(msg.String(), func(t *testing.T) {
			v := newTestView()

			_, cmd := v.Update(msg)
			require.NotNil(t, cmd)

			changed, ok := cmd().(messages.ViewChanged)
			require.True(t, ok)
			assert.Equal(t, messages.ViewChat, changed.View)
		})
	}
}

func TestView_Help(t *testing.T) {
	v := newTestView()

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyF1})
	require.NotNil(t, cmd)

	changed, ok := cmd().(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewHelp, changed.View)
}
