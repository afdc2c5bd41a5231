package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/core/ports/driving"
	"github.com/custodia-labs/regbot/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

const tracerName = "github.com/custodia-labs/regbot/internal/core/services"

// AskService answers questions by running each one through an explicit
// state machine:
//
//	RECEIVED -> CACHE_CHECK -> CACHE_HIT -> DONE
//	                        -> CACHE_MISS -> RETRIEVE -> ASSEMBLE -> GENERATE -> CACHE_WRITE -> DONE
//
// Conversation state lives in the domain.Session passed in and returned;
// the service itself holds none.
type AskService struct {
	retriever *Retriever
	assembler *PromptAssembler
	generator *AnswerGenerator
	cache     driven.ResponseCache
	tracer    trace.Tracer
	now       func() time.Time
	newID     func() string
}

// AskOption configures an AskService.
type AskOption func(*AskService)

// WithClock sets the time source used for latency and timestamps.
func WithClock(now func() time.Time) AskOption {
	return func(s *AskService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTracer sets the tracer used for pipeline spans.
func WithTracer(tracer trace.Tracer) AskOption {
	return func(s *AskService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// NewAskService creates the orchestrator. cache may be nil to disable caching.
func NewAskService(
	retriever *Retriever,
	assembler *PromptAssembler,
	generator *AnswerGenerator,
	cache driven.ResponseCache,
	opts ...AskOption,
) *AskService {
	s := &AskService{
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		cache:     cache,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSession starts an empty conversation.
func (s *AskService) NewSession() domain.Session {
	return domain.NewSession(s.newID(), s.now())
}

// ClearCache drops every cached answer.
func (s *AskService) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	logger.Info("Clearing response cache (%d entries)", s.cache.Len())
	return s.cache.Clear(ctx)
}

// queryRun is the mutable state of one pass through the state machine.
type queryRun struct {
	question  string
	started   time.Time
	retrieved []domain.Chunk
	prompt    string
	answer    domain.Answer
	stages    []domain.QueryStage
}

// Ask answers question. Validation failures return domain.ErrValidation and
// the session unchanged; every other failure is reported as a degraded answer.
// Only fresh answers that are not degraded are cached.
func (s *AskService) Ask(
	ctx context.Context, session domain.Session, question string,
) (domain.Answer, domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "regbot.ask")
	defer span.End()

	logger.Section("Ask")
	logger.Debug("Question: %q", question)

	if err := domain.ValidateQuestion(question); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.Answer{}, session, err
	}

	run := &queryRun{question: strings.TrimSpace(question), started: s.now()}

	for state := domain.StageReceived; ; {
		run.stages = append(run.stages, state)
		if state == domain.StageDone {
			break
		}
		state = s.step(ctx, state, run)
	}

	if !run.answer.FromCache && run.answer.Latency == 0 {
		run.answer.Latency = s.now().Sub(run.started)
	}

	span.SetAttributes(
		attribute.String("regbot.answer.kind", string(run.answer.Kind)),
		attribute.Bool("regbot.answer.from_cache", run.answer.FromCache),
		attribute.Int("regbot.answer.sources", len(run.answer.Sources)),
	)
	logger.Info("Answered (%s, cache=%t) in %s", run.answer.Kind, run.answer.FromCache, run.answer.Latency)

	turn := domain.Turn{
		Question: run.question,
		Answer:   run.answer.Clone(),
		AskedAt:  run.started,
		Stages:   run.stages,
	}
	return run.answer, session.WithTurn(turn), nil
}

// step performs the work of state and returns the next state.
func (s *AskService) step(ctx context.Context, state domain.QueryStage, run *queryRun) domain.QueryStage {
	switch state {
	case domain.StageReceived:
		return domain.StageCacheCheck

	case domain.StageCacheCheck:
		if s.cache == nil {
			return domain.StageCacheMiss
		}
		cached, ok := s.cache.Get(ctx, run.question)
		if !ok {
			return domain.StageCacheMiss
		}
		run.answer = cached.Clone()
		run.answer.FromCache = true
		return domain.StageCacheHit

	case domain.StageCacheHit:
		logger.Debug("Cache hit")
		return domain.StageDone

	case domain.StageCacheMiss:
		return domain.StageRetrieve

	case domain.StageRetrieve:
		retrieved, err := s.retrieve(ctx, run.question)
		switch {
		case errors.Is(err, domain.ErrIndexEmpty):
			run.answer = domain.NoDataAnswerValue()
			return domain.StageDone
		case err != nil:
			run.answer = domain.DegradedAnswer(err)
			return domain.StageDone
		}
		run.retrieved = retrieved
		return domain.StageAssemble

	case domain.StageAssemble:
		run.prompt = s.assembler.Assemble(run.question, run.retrieved)
		logger.Debug("Prompt: %d characters", len(run.prompt))
		return domain.StageGenerate

	case domain.StageGenerate:
		run.answer = s.generate(ctx, run.prompt, run.retrieved)
		// Cached answers keep the latency of the call that produced them.
		run.answer.Latency = s.now().Sub(run.started)
		if run.answer.IsDegraded() || s.cache == nil {
			return domain.StageDone
		}
		return domain.StageCacheWrite

	case domain.StageCacheWrite:
		s.cache.Set(ctx, run.question, run.answer)
		return domain.StageDone

	default:
		return domain.StageDone
	}
}

func (s *AskService) retrieve(ctx context.Context, question string) ([]domain.Chunk, error) {
	ctx, span := s.tracer.Start(ctx, "regbot.retrieve")
	defer span.End()

	scored, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("Retrieval failed: %v", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("regbot.retrieve.chunks", len(scored)))
	return domain.ChunksOf(scored), nil
}

func (s *AskService) generate(ctx context.Context, prompt string, retrieved []domain.Chunk) domain.Answer {
	ctx, span := s.tracer.Start(ctx, "regbot.generate")
	defer span.End()

	answer := s.generator.Answer(ctx, prompt, retrieved)
	if answer.IsDegraded() {
		span.SetStatus(codes.Error, answer.Text)
	}
	span.SetAttributes(attribute.String("regbot.generate.kind", string(answer.Kind)))
	return answer
}
