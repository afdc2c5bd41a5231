package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderHash is an offline, deterministic feature-hashing embedder.
	AIProviderHash AIProvider = "hash"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini, AIProviderHash:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHash
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderHash:
		return "Feature hashing (offline)"
	default:
		return unknownDescription
	}
}

// IndexBackend selects where the vector index is persisted.
type IndexBackend string

// Available index backends.
const (
	IndexBackendSQLite   IndexBackend = "sqlite"
	IndexBackendPostgres IndexBackend = "postgres"
	IndexBackendMemory   IndexBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendSQLite, IndexBackendPostgres, IndexBackendMemory:
		return true
	default:
		return false
	}
}

// CacheBackend selects the response cache implementation.
type CacheBackend string

// Available cache backends.
const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendRedis  CacheBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b CacheBackend) IsValid() bool {
	return b == CacheBackendMemory || b == CacheBackendRedis
}

// DocumentSettings locates the source document.
type DocumentSettings struct {
	// Path is the document file to ingest.
	Path string
}

// ChunkingSettings holds chunker parameters.
type ChunkingSettings struct {
	// Size is the window length in characters.
	Size int

	// Overlap is the number of characters shared by adjacent chunks.
	Overlap int
}

// Validate checks size > 0 and 0 <= overlap < size.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunking, c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidChunking, c.Size, c.Overlap)
	}
	return nil
}

// RetrievalSettings holds retriever parameters.
type RetrievalSettings struct {
	// K is the fixed number of chunks retrieved per question.
	K int
}

// IndexSettings holds vector index persistence configuration.
type IndexSettings struct {
	Backend IndexBackend

	// Dir is the sqlite store directory.
	Dir string

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string

	// StoreID names the index inside a shared postgres database.
	StoreID string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration and decoding parameters.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// Temperature controls randomness.
	Temperature float64

	// TopP is the nucleus-sampling threshold.
	TopP float64

	// NumCtx is the context window size in tokens.
	NumCtx int

	// NumThread and NumGPU are local runtime hints (Ollama only).
	NumThread int
	NumGPU    int

	// MaxTokens bounds the completion length.
	MaxTokens int

	// Stop sequences end generation.
	Stop []string

	// Timeout bounds a single generation call.
	Timeout time.Duration

	// RequestsPerMinute rate-limits calls (0 = unlimited).
	RequestsPerMinute int

	// StructuredOutput asks the model to answer in JSON naming its sources.
	StructuredOutput bool
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHash {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// CacheSettings holds response cache configuration.
type CacheSettings struct {
	Backend CacheBackend

	// TTL is the maximum age of a cached answer.
	TTL time.Duration

	// Capacity bounds the number of cached answers (0 = unbounded).
	Capacity int

	// RedisURL is the redis connection URL or host:port.
	RedisURL string
}

// TelemetrySettings holds tracing configuration.
type TelemetrySettings struct {
	// OTLPEndpoint enables span export when set (host:port).
	OTLPEndpoint string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Document  DocumentSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Index     IndexSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Cache     CacheSettings
	Telemetry TelemetrySettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Both AI services default to a local Ollama instance.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Document: DocumentSettings{
			Path: "regulamento.pdf",
		},
		Chunking: ChunkingSettings{
			Size:    800,
			Overlap: 80,
		},
		Retrieval: RetrievalSettings{
			K: 2,
		},
		Index: IndexSettings{
			Backend: IndexBackendSQLite,
			StoreID: "default",
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		LLM: LLMSettings{
			Provider:    AIProviderOllama,
			Model:       "llama3",
			BaseURL:     "http://localhost:11434",
			Temperature: 0.1,
			TopP:        0.9,
			NumCtx:      2048,
			NumThread:   4,
			NumGPU:      1,
			MaxTokens:   512,
			Stop:        []string{"\n\n"},
			Timeout:     120 * time.Second,
		},
		Cache: CacheSettings{
			Backend:  CacheBackendMemory,
			TTL:      30 * time.Minute,
			Capacity: 256,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
		AIProviderHash,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
		AIProviderHash:   "hash-256",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
		// Offline
		"hash-256": 256,
	}
}
