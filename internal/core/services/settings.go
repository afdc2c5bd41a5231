package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDocumentPath     = "document.path"
	keyChunkSize        = "chunking.size"
	keyChunkOverlap     = "chunking.overlap"
	keyRetrievalK       = "retrieval.k"
	keyIndexBackend     = "index.backend"
	keyIndexDir         = "index.dir"
	keyIndexPostgresDSN = "index.postgres_dsn"
	keyIndexStoreID     = "index.store_id"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMTemperature   = "llm.temperature"
	keyLLMTopP          = "llm.top_p"
	keyLLMNumCtx        = "llm.num_ctx"
	keyLLMNumThread     = "llm.num_thread"
	keyLLMNumGPU        = "llm.num_gpu"
	keyLLMMaxTokens     = "llm.max_tokens"
	keyLLMStop          = "llm.stop"
	keyLLMTimeout       = "llm.timeout_seconds"
	keyLLMRPM           = "llm.requests_per_minute"
	keyLLMStructured    = "llm.structured_output"
	keyCacheBackend     = "cache.backend"
	keyCacheTTL         = "cache.ttl_seconds"
	keyCacheCapacity    = "cache.capacity"
	keyCacheRedisURL    = "cache.redis_url"
	keyOTLPEndpoint     = "telemetry.otlp_endpoint"
)

// Environment variables that override file values.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvDocument     = "REGBOT_DOCUMENT"
	EnvRedisURL     = "REGBOT_REDIS_URL"
	EnvPostgresDSN  = "REGBOT_POSTGRES_DSN"
)

// settingsKeys lists settable keys in display order.
var settingsKeys = []string{
	keyDocumentPath,
	keyChunkSize, keyChunkOverlap,
	keyRetrievalK,
	keyIndexBackend, keyIndexDir, keyIndexPostgresDSN, keyIndexStoreID,
	keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
	keyLLMProvider, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey,
	keyLLMTemperature, keyLLMTopP, keyLLMNumCtx, keyLLMNumThread, keyLLMNumGPU,
	keyLLMMaxTokens, keyLLMStop, keyLLMTimeout, keyLLMRPM, keyLLMStructured,
	keyCacheBackend, keyCacheTTL, keyCacheCapacity, keyCacheRedisURL,
	keyOTLPEndpoint,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment lookup. Passing nil disables overrides.
func (s *SettingsService) SetEnvLookup(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	s.lookupEnv = lookup
}

// Get retrieves current application settings: stored values over defaults,
// with environment overrides applied last.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.read()
	s.applyEnv(settings)
	return settings, nil
}

// read returns stored values over defaults, without environment overrides,
// so that saving never copies secrets from the environment into the file.
func (s *SettingsService) read() *domain.AppSettings {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Document: domain.DocumentSettings{
			Path: s.getString(keyDocumentPath, d.Document.Path),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, d.Chunking.Size),
			Overlap: s.getIntAllowZero(keyChunkOverlap, d.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			K: s.getInt(keyRetrievalK, d.Retrieval.K),
		},
		Index: domain.IndexSettings{
			Backend:     s.getIndexBackend(d.Index.Backend),
			Dir:         s.getString(keyIndexDir, s.defaultIndexDir()),
			PostgresDSN: s.configStore.GetString(keyIndexPostgresDSN),
			StoreID:     s.getString(keyIndexStoreID, d.Index.StoreID),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:  s.getString(keyEmbedBaseURL, d.Embedding.BaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:             s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:           s.getString(keyLLMBaseURL, d.LLM.BaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			Temperature:       s.getFloat(keyLLMTemperature, d.LLM.Temperature),
			TopP:              s.getFloat(keyLLMTopP, d.LLM.TopP),
			NumCtx:            s.getInt(keyLLMNumCtx, d.LLM.NumCtx),
			NumThread:         s.getInt(keyLLMNumThread, d.LLM.NumThread),
			NumGPU:            s.getIntAllowZero(keyLLMNumGPU, d.LLM.NumGPU),
			MaxTokens:         s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
			Stop:              s.getStringSlice(keyLLMStop, d.LLM.Stop),
			Timeout:           s.getSeconds(keyLLMTimeout, d.LLM.Timeout),
			RequestsPerMinute: s.getIntAllowZero(keyLLMRPM, d.LLM.RequestsPerMinute),
			StructuredOutput:  s.getBool(keyLLMStructured, d.LLM.StructuredOutput),
		},
		Cache: domain.CacheSettings{
			Backend:  s.getCacheBackend(d.Cache.Backend),
			TTL:      s.getSeconds(keyCacheTTL, d.Cache.TTL),
			Capacity: s.getIntAllowZero(keyCacheCapacity, d.Cache.Capacity),
			RedisURL: s.configStore.GetString(keyCacheRedisURL),
		},
		Telemetry: domain.TelemetrySettings{
			OTLPEndpoint: s.configStore.GetString(keyOTLPEndpoint),
		},
	}

	return settings
}

// applyEnv overlays environment variables on file values.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if v, ok := s.env(EnvDocument); ok {
		settings.Document.Path = v
	}
	if v, ok := s.env(EnvRedisURL); ok {
		settings.Cache.RedisURL = v
	}
	if v, ok := s.env(EnvPostgresDSN); ok {
		settings.Index.PostgresDSN = v
	}

	keys := map[domain.AIProvider]string{
		domain.AIProviderOpenAI:    EnvOpenAIKey,
		domain.AIProviderAnthropic: EnvAnthropicKey,
		domain.AIProviderGemini:    EnvGeminiKey,
	}
	if name, ok := keys[settings.Embedding.Provider]; ok {
		if v, ok := s.env(name); ok {
			settings.Embedding.APIKey = v
		}
	}
	if name, ok := keys[settings.LLM.Provider]; ok {
		if v, ok := s.env(name); ok {
			settings.LLM.APIKey = v
		}
	}
}

func (s *SettingsService) env(name string) (string, bool) {
	if s.lookupEnv == nil {
		return "", false
	}
	v, ok := s.lookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// defaultIndexDir places the index beside the config file.
func (s *SettingsService) defaultIndexDir() string {
	if p := s.configStore.Path(); p != "" {
		return filepath.Join(filepath.Dir(p), "index")
	}
	return ""
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyDocumentPath, settings.Document.Path},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyRetrievalK, settings.Retrieval.K},
		{keyIndexBackend, string(settings.Index.Backend)},
		{keyIndexDir, settings.Index.Dir},
		{keyIndexStoreID, settings.Index.StoreID},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMTopP, settings.LLM.TopP},
		{keyLLMNumCtx, settings.LLM.NumCtx},
		{keyLLMNumThread, settings.LLM.NumThread},
		{keyLLMNumGPU, settings.LLM.NumGPU},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMStop, settings.LLM.Stop},
		{keyLLMTimeout, int(settings.LLM.Timeout / time.Second)},
		{keyLLMRPM, settings.LLM.RequestsPerMinute},
		{keyLLMStructured, settings.LLM.StructuredOutput},
		{keyCacheBackend, string(settings.Cache.Backend)},
		{keyCacheTTL, int(settings.Cache.TTL / time.Second)},
		{keyCacheCapacity, settings.Cache.Capacity},
	}

	// Secrets and endpoints are only written when set.
	optional := []struct {
		key   string
		value string
	}{
		{keyIndexPostgresDSN, settings.Index.PostgresDSN},
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyLLMAPIKey, settings.LLM.APIKey},
		{keyCacheRedisURL, settings.Cache.RedisURL},
		{keyOTLPEndpoint, settings.Telemetry.OTLPEndpoint},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	for _, v := range optional {
		if v.value == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// Keys lists the settable config keys in display order.
func (s *SettingsService) Keys() []string {
	return slices.Clone(settingsKeys)
}

// Set parses value for key, validates the resulting settings and persists them.
func (s *SettingsService) Set(key, value string) error {
	settings := s.read()
	if err := applySetting(settings, key, strings.TrimSpace(value)); err != nil {
		return err
	}

	// Validate what will actually run, environment included.
	effective := *settings
	s.applyEnv(&effective)
	if err := validateSettings(&effective); err != nil {
		return err
	}

	return s.Save(settings)
}

// applySetting parses raw into the field named by key.
//
//nolint:gocyclo // One case per key.
func applySetting(settings *domain.AppSettings, key, raw string) error {
	var err error
	switch key {
	case keyDocumentPath:
		settings.Document.Path = raw
	case keyChunkSize:
		settings.Chunking.Size, err = parseInt(key, raw)
	case keyChunkOverlap:
		settings.Chunking.Overlap, err = parseInt(key, raw)
	case keyRetrievalK:
		settings.Retrieval.K, err = parseInt(key, raw)
	case keyIndexBackend:
		settings.Index.Backend = domain.IndexBackend(raw)
	case keyIndexDir:
		settings.Index.Dir = raw
	case keyIndexPostgresDSN:
		settings.Index.PostgresDSN = raw
	case keyIndexStoreID:
		settings.Index.StoreID = raw
	case keyEmbedProvider:
		settings.Embedding.Provider = domain.AIProvider(raw)
	case keyEmbedModel:
		settings.Embedding.Model = raw
	case keyEmbedBaseURL:
		settings.Embedding.BaseURL = raw
	case keyEmbedAPIKey:
		settings.Embedding.APIKey = raw
	case keyLLMProvider:
		settings.LLM.Provider = domain.AIProvider(raw)
	case keyLLMModel:
		settings.LLM.Model = raw
	case keyLLMBaseURL:
		settings.LLM.BaseURL = raw
	case keyLLMAPIKey:
		settings.LLM.APIKey = raw
	case keyLLMTemperature:
		settings.LLM.Temperature, err = parseFloat(key, raw)
	case keyLLMTopP:
		settings.LLM.TopP, err = parseFloat(key, raw)
	case keyLLMNumCtx:
		settings.LLM.NumCtx, err = parseInt(key, raw)
	case keyLLMNumThread:
		settings.LLM.NumThread, err = parseInt(key, raw)
	case keyLLMNumGPU:
		settings.LLM.NumGPU, err = parseInt(key, raw)
	case keyLLMMaxTokens:
		settings.LLM.MaxTokens, err = parseInt(key, raw)
	case keyLLMStop:
		settings.LLM.Stop = parseStopWords(raw)
	case keyLLMTimeout:
		var secs int
		secs, err = parseInt(key, raw)
		settings.LLM.Timeout = time.Duration(secs) * time.Second
	case keyLLMRPM:
		settings.LLM.RequestsPerMinute, err = parseInt(key, raw)
	case keyLLMStructured:
		settings.LLM.StructuredOutput, err = strconv.ParseBool(raw)
		if err != nil {
			err = fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
	case keyCacheBackend:
		settings.Cache.Backend = domain.CacheBackend(raw)
	case keyCacheTTL:
		var secs int
		secs, err = parseInt(key, raw)
		settings.Cache.TTL = time.Duration(secs) * time.Second
	case keyCacheCapacity:
		settings.Cache.Capacity, err = parseInt(key, raw)
	case keyCacheRedisURL:
		settings.Cache.RedisURL = raw
	case keyOTLPEndpoint:
		settings.Telemetry.OTLPEndpoint = raw
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return err
}

func parseInt(key, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrInvalidInput, key, raw)
	}
	return n, nil
}

func parseFloat(key, raw string) (float64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", domain.ErrInvalidInput, key, raw)
	}
	return f, nil
}

// parseStopWords splits a comma-separated list, unescaping \n and \t.
func parseStopWords(raw string) []string {
	if raw == "" {
		return nil
	}
	unescape := strings.NewReplacer(`\n`, "\n", `\t`, "\t")
	var words []string
	for _, w := range strings.Split(raw, ",") {
		if w = unescape.Replace(strings.TrimSpace(w)); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.read()
	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if !slices.Contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("provider %s does not support text generation", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.read()
	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a custom Ollama URL and clears it for cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		return ""
	}
	if current == "" {
		return "http://localhost:11434"
	}
	return current
}

// Validate checks that the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return validateSettings(settings)
}

func validateSettings(settings *domain.AppSettings) error {
	var errs []error

	if err := settings.Chunking.Validate(); err != nil {
		errs = append(errs, err)
	}
	if settings.Retrieval.K <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.k must be positive, got %d", settings.Retrieval.K))
	}
	if !settings.Index.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("invalid index backend: %s", settings.Index.Backend))
	}
	if settings.Index.Backend == domain.IndexBackendPostgres && settings.Index.PostgresDSN == "" {
		errs = append(errs, fmt.Errorf("index backend postgres requires %s or %s", keyIndexPostgresDSN, EnvPostgresDSN))
	}
	if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider))
	}
	if !settings.LLM.IsConfigured() {
		errs = append(errs, fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider))
	}
	if settings.LLM.Temperature < 0 || settings.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be in [0, 2], got %g", settings.LLM.Temperature))
	}
	if settings.LLM.TopP <= 0 || settings.LLM.TopP > 1 {
		errs = append(errs, fmt.Errorf("llm.top_p must be in (0, 1], got %g", settings.LLM.TopP))
	}
	if settings.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm.timeout_seconds must be positive"))
	}
	if settings.LLM.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("llm.requests_per_minute must not be negative"))
	}
	if !settings.Cache.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("invalid cache backend: %s", settings.Cache.Backend))
	}
	if settings.Cache.Backend == domain.CacheBackendRedis && settings.Cache.RedisURL == "" {
		errs = append(errs, fmt.Errorf("cache backend redis requires %s or %s", keyCacheRedisURL, EnvRedisURL))
	}
	if settings.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl_seconds must be positive"))
	}
	if settings.Cache.Capacity < 0 {
		errs = append(errs, errors.New("cache.capacity must not be negative"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero distinguishes a stored zero from a missing key.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	if _, exists := s.configStore.Get(key); !exists {
		return slices.Clone(defaultVal)
	}
	return s.configStore.GetStringSlice(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	secs := s.configStore.GetInt(key)
	if secs <= 0 {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getIndexBackend(defaultVal domain.IndexBackend) domain.IndexBackend {
	backend := domain.IndexBackend(s.configStore.GetString(keyIndexBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getCacheBackend(defaultVal domain.CacheBackend) domain.CacheBackend {
	backend := domain.CacheBackend(s.configStore.GetString(keyCacheBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
