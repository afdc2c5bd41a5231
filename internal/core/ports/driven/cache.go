package driven

import (
	"context"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

// ResponseCache remembers answers for a bounded time.
// Implementations key entries on domain.NormalizeQuery(question).
type ResponseCache interface {
	// Get returns the cached answer if present and not expired.
	// An expired entry is evicted and reported as a miss.
	Get(ctx context.Context, question string) (domain.Answer, bool)

	// Set stores the answer, replacing any previous entry and resetting its age.
	Set(ctx context.Context, question string, answer domain.Answer)

	// Clear drops every entry.
	Clear(ctx context.Context) error

	// Len returns the number of stored entries, expired ones included.
	Len() int
}
