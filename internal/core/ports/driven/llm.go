package driven

import "context"

// LLMService turns an assembled prompt into answer text.
//
// Implementations may include:
//   - Ollama (local models, the default)
//   - OpenAI
//   - Anthropic
//   - Gemini
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
// Zero values mean "provider default".
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// TopP is the nucleus-sampling threshold.
	TopP float64

	// NumCtx is the context window in tokens (Ollama only).
	NumCtx int

	// NumThread and NumGPU are runtime hints (Ollama only).
	NumThread int
	NumGPU    int

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
