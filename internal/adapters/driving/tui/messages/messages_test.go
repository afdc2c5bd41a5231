package messages

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view     ViewType
		expected string
	}{
		{ViewChat, "chat"},
		{ViewHistory, "history"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.view.String())
		})
	}
}

func TestViewType_Values(t *testing.T) {
	assert.Equal(t, ViewType(0), ViewChat)
	assert.Equal(t, ViewType(1), ViewHistory)
	assert.Equal(t, ViewType(2), ViewHelp)
}

func TestAnswerReceived(t *testing.T) {
	session := domain.NewSession("s", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	msg := AnswerReceived{
		Question: "Faltas?",
		Answer:   domain.Answer{Text: "Sim", Kind: domain.AnswerKindPlain},
		Session:  session,
	}

	assert.Equal(t, "Faltas?", msg.Question)
	assert.Equal(t, "Sim", msg.Answer.Text)
	assert.Equal(t, "s", msg.Session.ID)
	assert.NoError(t, msg.Err)
}

func TestErrorMessages(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, err, ErrorOccurred{Err: err}.Err)
	assert.Equal(t, err, CacheCleared{Err: err}.Err)
}
