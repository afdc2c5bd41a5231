// Package tui provides the interactive terminal chat for regbot.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/regbot/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Ask answers questions within a session.
	Ask driving.AskService

	// Index reports what is loaded. Optional.
	Index driving.IndexService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(ask driving.AskService, index driving.IndexService) *Ports {
	return &Ports{
		Ask:   ask,
		Index: index,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Ask == nil {
		return ErrMissingAskService
	}
	return nil
}
