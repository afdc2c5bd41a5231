// Package mcp provides an MCP (Model Context Protocol) server adapter for regbot.
// It lets AI assistants ask questions about the indexed regulation.
package mcp

import "errors"

// ErrMissingAskService is returned when the ask service is not provided.
var ErrMissingAskService = errors.New("mcp: ask service is required")

// ErrMissingIndexService is returned when the index service is not provided.
var ErrMissingIndexService = errors.New("mcp: index service is required")
