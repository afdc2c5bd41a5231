package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/logger"
)

// DefaultGenerationTimeout bounds a single generation call.
const DefaultGenerationTimeout = 120 * time.Second

// GeneratorConfig holds the fixed decoding parameters and the call deadline.
type GeneratorConfig struct {
	Options driven.GenerateOptions
	Timeout time.Duration
}

// GeneratorConfigFrom maps LLM settings to generator configuration.
func GeneratorConfigFrom(s domain.LLMSettings) GeneratorConfig {
	return GeneratorConfig{
		Options: driven.GenerateOptions{
			MaxTokens:   s.MaxTokens,
			Temperature: s.Temperature,
			TopP:        s.TopP,
			NumCtx:      s.NumCtx,
			NumThread:   s.NumThread,
			NumGPU:      s.NumGPU,
			StopWords:   s.Stop,
		},
		Timeout: s.Timeout,
	}
}

// AnswerGenerator calls the language model and turns its output into an Answer.
type AnswerGenerator struct {
	llm driven.LLMService
	cfg GeneratorConfig
}

// NewAnswerGenerator creates a generator.
func NewAnswerGenerator(llm driven.LLMService, cfg GeneratorConfig) *AnswerGenerator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGenerationTimeout
	}
	return &AnswerGenerator{llm: llm, cfg: cfg}
}

// Generate runs the model under the configured deadline and parses the
// response once into a structured or plain completion.
func (g *AnswerGenerator) Generate(ctx context.Context, prompt string) (domain.Completion, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, domain.ErrLLMUnavailable)
	}
	defer logger.Elapsed("generate", time.Now())

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	raw, err := g.llm.Generate(ctx, prompt, g.cfg.Options)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: generation timed out after %s", domain.ErrServiceUnavailable, g.cfg.Timeout)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: model returned an empty response", domain.ErrServiceUnavailable)
	}

	completion := domain.ParseCompletion(raw)
	logger.Debug("Completion: %T (%d characters)", completion, len(raw))
	return completion, nil
}

// Answer generates an answer for prompt. It never fails: any error, including
// the deadline, becomes a degraded answer with no sources.
func (g *AnswerGenerator) Answer(ctx context.Context, prompt string, retrieved []domain.Chunk) domain.Answer {
	completion, err := g.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		return domain.DegradedAnswer(err)
	}

	switch c := completion.(type) {
	case domain.StructuredCompletion:
		return domain.Answer{
			Text:    c.Text,
			Sources: citedSources(c.SourceRefs, retrieved),
			Kind:    domain.AnswerKindStructured,
		}
	case domain.PlainCompletion:
		return domain.Answer{
			Text:    c.Text,
			Sources: stripEmbeddings(retrieved),
			Kind:    domain.AnswerKindPlain,
		}
	default:
		return domain.DegradedAnswer(fmt.Errorf("unexpected completion %T", completion))
	}
}

// citedSources maps 1-based labels to retrieved chunks, dropping duplicates and
// out-of-range labels. With no valid label every retrieved chunk is a source.
func citedSources(refs []int, retrieved []domain.Chunk) []domain.Chunk {
	seen := make(map[int]bool, len(refs))
	sources := make([]domain.Chunk, 0, len(refs))
	for _, ref := range refs {
		if ref < 1 || ref > len(retrieved) || seen[ref] {
			continue
		}
		seen[ref] = true
		sources = append(sources, retrieved[ref-1].WithoutEmbedding())
	}
	if len(sources) == 0 {
		return stripEmbeddings(retrieved)
	}
	return sources
}

func stripEmbeddings(chunks []domain.Chunk) []domain.Chunk {
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = c.WithoutEmbedding()
	}
	return out
}
