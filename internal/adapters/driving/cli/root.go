// Package cli provides the regbot command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regbot/internal/adapters/driving/sessions"
	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driving"
	"github.com/custodia-labs/regbot/internal/logger"
)

var (
	// version is set at build time with -ldflags "-X .../cli.version=...".
	version = "dev"

	verbose bool
)

// HealthCheck probes one dependency for "regbot doctor".
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Services holds the driving ports the commands run against.
type Services struct {
	Ask      driving.AskService
	Index    driving.IndexService
	Batch    driving.BatchService
	Settings driving.SettingsService

	// Sessions backs conversations for serve and mcp serve.
	Sessions *sessions.Registry

	Checks []HealthCheck

	// WatchPrompts reloads prompt templates on change until ctx is done.
	WatchPrompts func(ctx context.Context) error

	// Unavailable explains why the pipeline ports are nil.
	Unavailable error
}

var services = &Services{}

// SetServices injects the services used by every command.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	services = s
}

// SetVersion overrides the version printed by "regbot version".
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "regbot",
	Short: "Ask questions about the ESTG Regulamento Pedagógico",
	Long: `regbot answers questions about the ESTG "Regulamento Pedagógico".

The document is split into overlapping chunks, embedded and kept in a
persisted vector index. Each question retrieves the closest chunks and an
LLM answers from them, citing the pages it used.

Start with "regbot ingest" to build the index, then "regbot ask" or
"regbot chat".`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline stages to stderr")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// errPipelineNotConfigured is returned when commands run without injected services.
var errPipelineNotConfigured = errors.New("pipeline not configured")

// requirePipeline checks the ports needed to answer questions.
func requirePipeline() error {
	if services.Ask != nil && services.Index != nil {
		return nil
	}
	if services.Unavailable != nil {
		return fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, services.Unavailable)
	}
	return errPipelineNotConfigured
}

// ensureIndex loads the persisted index, building it when there is none.
func ensureIndex(ctx context.Context, path string) (*domain.IngestReport, error) {
	report, err := services.Index.Ingest(ctx, path, domain.IngestOptions{})
	if err != nil {
		return nil, ingestError(err)
	}
	logger.Info("Index %s: %d chunks", report.Action, report.Manifest.ChunkCount)
	return report, nil
}

// ingestError adds the way out of a stale index to err.
func ingestError(err error) error {
	var mismatch *domain.ModelMismatchError
	if errors.As(err, &mismatch) {
		return fmt.Errorf("%w\nrun 'regbot ingest --rebuild' to rebuild the index with %s", err, mismatch.ConfiguredModel)
	}
	return err
}

// documentPath returns the path argument, or the configured document.
func documentPath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	if services.Settings != nil {
		if settings, err := services.Settings.Get(); err == nil && settings.Document.Path != "" {
			return settings.Document.Path
		}
	}
	return domain.DefaultAppSettings().Document.Path
}

// startPromptWatcher reloads prompts in the background for long-running commands.
func startPromptWatcher(ctx context.Context) {
	if services.WatchPrompts == nil {
		return
	}
	go func() {
		if err := services.WatchPrompts(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Prompt watcher stopped: %v", err)
		}
	}()
}
