// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentLoader: Reads the source document into page texts
//   - EmbeddingService: Generates vector embeddings for chunks and questions
//   - LLMService: Produces answer text from an assembled prompt
//   - IndexStore: Persists the built vector index between runs
//   - VectorIndex: In-process similarity search over the loaded index
//   - ResponseCache: Time-bounded answer cache keyed on the normalised question
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates
//
// # Optional Interfaces
//
//   - AIConfigValidator: Connectivity checks used by settings and doctor.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
