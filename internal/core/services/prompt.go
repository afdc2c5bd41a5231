package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/logger"
)

// PromptAssembler fills the answer template with retrieved context and the question.
type PromptAssembler struct {
	prompts    driven.PromptStore
	structured bool
}

// NewPromptAssembler creates an assembler. prompts may be nil, in which case
// the built-in templates are used. structured appends the JSON-answer instruction.
func NewPromptAssembler(prompts driven.PromptStore, structured bool) *PromptAssembler {
	return &PromptAssembler{prompts: prompts, structured: structured}
}

// Assemble builds the final prompt. Chunks are labelled [1], [2], ... in the
// order received so a structured answer can cite them.
//
// Substitution is a single pass: placeholder text inside a chunk or the
// question is never expanded.
func (a *PromptAssembler) Assemble(question string, chunks []domain.Chunk) string {
	tmpl := a.template()
	if a.structured {
		tmpl += "\n\n" + a.load(driven.PromptAnswerJSON, domain.DefaultAnswerJSONTemplate)
	}

	r := strings.NewReplacer(
		domain.PlaceholderContext, FormatContext(chunks),
		domain.PlaceholderQuestion, strings.TrimSpace(question),
	)
	return r.Replace(tmpl)
}

// template returns the configured answer template, or the default when it
// would drop the context or the question.
func (a *PromptAssembler) template() string {
	tmpl := a.load(driven.PromptAnswer, domain.DefaultAnswerTemplate)
	if !strings.Contains(tmpl, domain.PlaceholderContext) || !strings.Contains(tmpl, domain.PlaceholderQuestion) {
		logger.Warn("Prompt %q lacks %s or %s, using default", driven.PromptAnswer,
			domain.PlaceholderContext, domain.PlaceholderQuestion)
		return domain.DefaultAnswerTemplate
	}
	return tmpl
}

func (a *PromptAssembler) load(name, fallback string) string {
	if a.prompts == nil {
		return fallback
	}
	tmpl, err := a.prompts.Load(name)
	if err != nil || strings.TrimSpace(tmpl) == "" {
		return fallback
	}
	return tmpl
}

// FormatContext renders chunks as labelled excerpts separated by blank lines.
func FormatContext(chunks []domain.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[%d] (%s)\n%s", i+1, c.Locator, strings.TrimSpace(c.Text))
	}
	return strings.Join(parts, "\n\n")
}
