// Package resilient decorates an LLM backend with a circuit breaker,
// a client-side rate limiter and tracing spans.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/logger"
)

// Verify interface compliance.
var _ driven.LLMService = (*LLMService)(nil)

const tracerName = "github.com/custodia-labs/regbot/internal/adapters/driven/llm/resilient"

// Default breaker settings.
const (
	DefaultMaxHalfOpen  = 1
	DefaultInterval     = 60 * time.Second
	DefaultOpenTimeout  = 30 * time.Second
	DefaultMinRequests  = 3
	DefaultFailureRatio = 0.6
)

// Config holds the decorator settings.
type Config struct {
	// RequestsPerMinute limits Generate calls (0 = unlimited).
	RequestsPerMinute int

	// MinRequests and FailureRatio decide when the breaker opens:
	// at least MinRequests calls in the current interval with at least
	// FailureRatio of them failed.
	MinRequests  uint32
	FailureRatio float64

	// Interval is the cyclic period after which closed-state counts reset.
	Interval time.Duration

	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration

	// Tracer overrides the global tracer.
	Tracer trace.Tracer
}

// LLMService wraps another LLMService.
type LLMService struct {
	inner   driven.LLMService
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	tracer  trace.Tracer
}

// New wraps inner.
func New(inner driven.LLMService, cfg Config) *LLMService {
	if cfg.MinRequests == 0 {
		cfg.MinRequests = DefaultMinRequests
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = DefaultFailureRatio
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}

	name := "llm:" + inner.ModelName()
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: DefaultMaxHalfOpen,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker %s: %s -> %s", name, from, to)
		},
		// A caller that gives up says nothing about the backend.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		burst := max(1, cfg.RequestsPerMinute/10)
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60), burst)
	}

	return &LLMService{
		inner:   inner,
		breaker: breaker,
		limiter: limiter,
		tracer:  cfg.Tracer,
	}
}

// Generate waits for the rate limiter, then calls the backend through the breaker.
// While the breaker is open calls fail fast with domain.ErrServiceUnavailable.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	ctx, span := s.tracer.Start(ctx, "regbot.llm.generate", trace.WithAttributes(
		attribute.String("llm.model", s.inner.ModelName()),
		attribute.Int("llm.prompt_chars", len(prompt)),
		attribute.Int("llm.max_tokens", opts.MaxTokens),
	))
	defer span.End()

	text, err := s.generate(ctx, prompt, opts)
	span.SetAttributes(attribute.String("llm.breaker_state", s.breaker.State().String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.response_chars", len(text)))
	return text, nil
}

func (s *LLMService) generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.Generate(ctx, prompt, opts)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrServiceUnavailable, s.breaker.Name(), err)
	}
	if err != nil {
		return "", err
	}
	text, _ := out.(string)
	return text, nil
}

// State reports the breaker state ("closed", "half-open" or "open").
func (s *LLMService) State() string {
	return s.breaker.State().String()
}

// ModelName returns the wrapped model name.
func (s *LLMService) ModelName() string {
	return s.inner.ModelName()
}

// Ping bypasses the breaker so a health check can observe recovery.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (s *LLMService) Close() error {
	return s.inner.Close()
}
