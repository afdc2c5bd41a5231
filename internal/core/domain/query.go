package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinQuestionLength is the shortest question, in characters, worth answering.
const MinQuestionLength = 3

// NormalizeQuery case-folds and trims a question so that trivially different
// surface forms share a cache key. Internal whitespace runs collapse to one space.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// ValidateQuestion rejects empty or too-short questions.
func ValidateQuestion(q string) error {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return fmt.Errorf("%w: question is empty", ErrValidation)
	}
	if utf8.RuneCountInString(trimmed) < MinQuestionLength {
		return fmt.Errorf("%w: question must have at least %d characters", ErrValidation, MinQuestionLength)
	}
	return nil
}

// ExampleQuestions are suggestions shown to new users.
func ExampleQuestions() []string {
	return []string{
		"Quais são os tipos de avaliação previstos no regulamento?",
		"Como funciona a época especial de exames?",
		"Quais são as condições para obter o estatuto de estudante-atleta?",
		"Qual o prazo para revisão de provas?",
	}
}

// DefaultBatchQuestions are asked by the batch runner when none are given.
func DefaultBatchQuestions() []string {
	return []string{
		"Como posso justificar as faltas?",
		"O que é a avaliação contínua?",
	}
}

// exitWords end an interactive conversation.
var exitWords = []string{"sair", "exit", "quit"}

// IsExitWord reports whether input asks to leave an interactive conversation.
func IsExitWord(input string) bool {
	word := strings.ToLower(strings.TrimSpace(input))
	for _, w := range exitWords {
		if word == w {
			return true
		}
	}
	return false
}
