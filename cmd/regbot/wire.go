package main

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/regbot/internal/adapters/driven/ai"
	memorycache "github.com/custodia-labs/regbot/internal/adapters/driven/cache/memory"
	rediscache "github.com/custodia-labs/regbot/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/regbot/internal/adapters/driven/config/file"
	memorystore "github.com/custodia-labs/regbot/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/regbot/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/regbot/internal/adapters/driven/storage/sqlite"
	vectormemory "github.com/custodia-labs/regbot/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/regbot/internal/adapters/driving/cli"
	"github.com/custodia-labs/regbot/internal/adapters/driving/sessions"
	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/core/services"
	"github.com/custodia-labs/regbot/internal/logger"
	"github.com/custodia-labs/regbot/internal/normalisers"
	"github.com/custodia-labs/regbot/internal/postprocessors"
	"github.com/custodia-labs/regbot/internal/telemetry"
)

// telemetryShutdownTimeout bounds the final span flush.
const telemetryShutdownTimeout = 5 * time.Second

// application owns every resource opened while wiring.
type application struct {
	services *cli.Services
	closers  []func()
}

func (a *application) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// wire builds the services. Only configuration errors are returned: when
// the pipeline cannot be assembled, the reason is recorded in
// Services.Unavailable so settings, doctor and version still work.
func wire(ctx context.Context) (*application, error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	app := &application{
		services: &cli.Services{
			Settings: settingsService,
			Sessions: sessions.NewRegistry(0),
		},
	}

	if err := app.wirePipeline(ctx, settings); err != nil {
		logger.Debug("Pipeline unavailable: %v", err)
		app.services.Unavailable = err
	}
	return app, nil
}

//nolint:funlen // composition root
func (a *application) wirePipeline(ctx context.Context, settings *domain.AppSettings) error {
	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    settings.Telemetry.OTLPEndpoint,
		ServiceName: telemetry.DefaultServiceName,
		Version:     version,
	})
	if err != nil {
		logger.Warn("Tracing disabled: %v", err)
	} else {
		a.onClose(func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
			defer cancel()
			_ = shutdown(flushCtx)
		})
	}

	aiServices, err := ai.Init(ctx, settings)
	if err != nil {
		return err
	}
	a.onClose(aiServices.Close)
	a.services.Checks = append(a.services.Checks, cli.HealthCheck{
		Name:  fmt.Sprintf("embedding (%s %s)", settings.Embedding.Provider, settings.Embedding.Model),
		Check: aiServices.EmbeddingService.Ping,
	})
	if aiServices.LLMService != nil {
		a.services.Checks = append(a.services.Checks, cli.HealthCheck{
			Name:  fmt.Sprintf("llm (%s %s)", settings.LLM.Provider, settings.LLM.Model),
			Check: aiServices.LLMService.Ping,
		})
	} else {
		a.services.Checks = append(a.services.Checks, cli.HealthCheck{
			Name:  fmt.Sprintf("llm (%s)", settings.LLM.Provider),
			Check: func(context.Context) error { return domain.ErrLLMUnavailable },
		})
	}

	store, err := openIndexStore(ctx, settings.Index)
	if err != nil {
		return err
	}
	a.onClose(func() { _ = store.Close() })
	a.services.Checks = append(a.services.Checks, cli.HealthCheck{
		Name: fmt.Sprintf("index store (%s %s)", settings.Index.Backend, store.Location()),
		Check: func(ctx context.Context) error {
			_, err := store.Exists(ctx)
			return err
		},
	})

	cache, err := a.openCache(ctx, settings.Cache)
	if err != nil {
		return err
	}

	pipeline, err := postprocessors.NewChunkingPipeline(settings.Chunking.Size, settings.Chunking.Overlap)
	if err != nil {
		return err
	}

	vectors := vectormemory.New()
	a.onClose(func() { _ = vectors.Close() })

	indexService := services.NewIndexService(
		store,
		vectors,
		aiServices.EmbeddingService,
		normalisers.DefaultRegistry(),
		pipeline,
		services.IndexConfig{
			ChunkSize: settings.Chunking.Size,
			Overlap:   settings.Chunking.Overlap,
		},
	)

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return err
	}

	askService := services.NewAskService(
		services.NewRetriever(aiServices.EmbeddingService, indexService, settings.Retrieval.K),
		services.NewPromptAssembler(prompts, settings.LLM.StructuredOutput),
		services.NewAnswerGenerator(aiServices.LLMService, services.GeneratorConfigFrom(settings.LLM)),
		cache,
	)

	a.services.Ask = askService
	a.services.Index = indexService
	a.services.Batch = services.NewBatchService(askService)
	a.services.WatchPrompts = prompts.Watch
	return nil
}

func openIndexStore(ctx context.Context, cfg domain.IndexSettings) (driven.IndexStore, error) {
	switch cfg.Backend {
	case domain.IndexBackendPostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN, cfg.StoreID)
	case domain.IndexBackendMemory:
		return memorystore.NewIndexStore(), nil
	case domain.IndexBackendSQLite:
		return sqlite.NewStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}

func (a *application) openCache(ctx context.Context, cfg domain.CacheSettings) (driven.ResponseCache, error) {
	if cfg.Backend != domain.CacheBackendRedis {
		return memorycache.New(memorycache.WithTTL(cfg.TTL), memorycache.WithCapacity(cfg.Capacity)), nil
	}

	client, err := rediscache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	a.onClose(func() { _ = client.Close() })
	a.services.Checks = append(a.services.Checks, cli.HealthCheck{
		Name:  "cache (redis)",
		Check: func(ctx context.Context) error { return pingRedis(ctx, client) },
	})
	return rediscache.New(client, cfg.TTL), nil
}

func pingRedis(ctx context.Context, client *goredis.Client) error {
	return client.Ping(ctx).Err()
}
