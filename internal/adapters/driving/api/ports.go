// Package api provides the HTTP JSON API served by "regbot serve".
package api

import (
	"errors"

	"github.com/custodia-labs/regbot/internal/adapters/driving/sessions"
	"github.com/custodia-labs/regbot/internal/core/ports/driving"
)

// Errors returned when the server is misconfigured.
var (
	ErrMissingAskService   = errors.New("ask service is required")
	ErrMissingIndexService = errors.New("index service is required")
)

// Ports holds the driving ports the HTTP API needs.
type Ports struct {
	Ask   driving.AskService
	Index driving.IndexService

	// Sessions maps session IDs to conversations. Created when nil.
	Sessions *sessions.Registry
}

// Validate checks that all required ports are present.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	if p.Index == nil {
		return ErrMissingIndexService
	}
	return nil
}
