package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for regbot resources.
	uriScheme = "regbot://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index",
		Name:        "index",
		Description: "Manifest of the loaded vector index",
		MIMEType:    "application/json",
	}, s.handleIndexResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "examples",
		Name:        "examples",
		Description: "Example questions about the regulation",
		MIMEType:    "application/json",
	}, s.handleExamplesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}",
		Name:        "session-history",
		Description: "Questions and answers of an ask conversation",
		MIMEType:    "application/json",
	}, s.handleSessionResource)
}

// handleIndexResource returns the index status as JSON.
func (s *Server) handleIndexResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, toStatusOutput(s.ports.Index.Status()))
}

// handleExamplesResource returns the example questions.
func (s *Server) handleExamplesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, domain.ExampleQuestions())
}

// handleSessionResource returns the turns of a session.
func (s *Server) handleSessionResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractSessionID(req.Params.URI)
	session, ok := s.ports.Sessions.Get(id)
	if id == "" || !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	type turnInfo struct {
		Question string    `json:"question"`
		Answer   AskOutput `json:"answer"`
		AskedAt  string    `json:"asked_at"`
	}

	turns := make([]turnInfo, len(session.History))
	for i, turn := range session.History {
		turns[i] = turnInfo{
			Question: turn.Question,
			Answer:   toAskOutput(turn.Answer, session.ID),
			AskedAt:  turn.AskedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	return jsonResource(req.Params.URI, turns)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSessionID extracts the session ID from a URI like regbot://sessions/{sessionId}.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"

	id, ok := strings.CutPrefix(uri, prefix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
