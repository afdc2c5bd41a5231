// Package domain defines the core business entities for regbot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: The single source text with its page boundaries
//   - Chunk: An overlapping retrieval unit that remembers where it came from
//   - Completion: The tagged result of a language-model call
//   - Answer: A generated or cached answer with its supporting chunks
//   - Session: Conversation state passed into and out of the orchestrator
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
