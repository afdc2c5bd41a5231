package mcp

import (
	"github.com/custodia-labs/regbot/internal/adapters/driving/sessions"
	"github.com/custodia-labs/regbot/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ask answers questions.
	Ask driving.AskService

	// Index reports what is loaded.
	Index driving.IndexService

	// Sessions keeps conversations between tool calls. Optional.
	Sessions *sessions.Registry
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	if p.Index == nil {
		return ErrMissingIndexService
	}
	return nil
}
