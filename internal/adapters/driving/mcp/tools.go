package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

// excerptLength bounds the source text returned per chunk.
const excerptLength = 400

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question about the regulation, in Portuguese"`
	SessionID string `json:"session_id,omitempty" jsonschema:"continue an earlier conversation (returned by a previous call)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string         `json:"answer"`
	Kind      string         `json:"kind"`
	FromCache bool           `json:"from_cache"`
	LatencyMS int64          `json:"latency_ms"`
	Sources   []SourceOutput `json:"sources"`
	SessionID string         `json:"session_id"`
}

// SourceOutput is one supporting excerpt.
type SourceOutput struct {
	Label   int    `json:"label"`
	Locator string `json:"locator"`
	Excerpt string `json:"excerpt"`
}

// IndexStatusInput is the (empty) input schema for the index_status tool.
type IndexStatusInput struct{}

// IndexStatusOutput is the output schema for the index_status tool.
type IndexStatusOutput struct {
	Loaded         bool   `json:"loaded"`
	Location       string `json:"location"`
	Chunks         int    `json:"chunks"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	Dimensions     int    `json:"dimensions,omitempty"`
	SourceURI      string `json:"source_uri,omitempty"`
	BuiltAt        string `json:"built_at,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about the ESTG Regulamento Pedagógico, citing the pages used",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report whether the regulation is indexed and with which embedding model",
	}, s.handleIndexStatus)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	var answer domain.Answer
	session, err := s.ports.Sessions.Update(input.SessionID, s.ports.Ask.NewSession,
		func(session domain.Session) (domain.Session, error) {
			var err error
			answer, session, err = s.ports.Ask.Ask(ctx, session, input.Question)
			return session, err
		})
	if err != nil {
		return nil, AskOutput{}, fmt.Errorf("ask: %w", err)
	}

	return nil, toAskOutput(answer, session.ID), nil
}

func toAskOutput(answer domain.Answer, sessionID string) AskOutput {
	out := AskOutput{
		Answer:    answer.Text,
		Kind:      string(answer.Kind),
		FromCache: answer.FromCache,
		LatencyMS: answer.Latency.Milliseconds(),
		Sources:   make([]SourceOutput, len(answer.Sources)),
		SessionID: sessionID,
	}
	for i, src := range answer.Sources {
		out.Sources[i] = SourceOutput{
			Label:   i + 1,
			Locator: src.Locator.String(),
			Excerpt: src.Excerpt(excerptLength),
		}
	}
	return out
}

// handleIndexStatus handles the index_status tool invocation.
func (s *Server) handleIndexStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatusInput,
) (*mcp.CallToolResult, IndexStatusOutput, error) {
	return nil, toStatusOutput(s.ports.Index.Status()), nil
}

func toStatusOutput(status domain.IndexStatus) IndexStatusOutput {
	out := IndexStatusOutput{
		Loaded:   status.Loaded,
		Location: status.Location,
		Chunks:   status.Chunks,
	}
	if status.Loaded {
		out.EmbeddingModel = status.Manifest.EmbeddingModel
		out.Dimensions = status.Manifest.Dimensions
		out.SourceURI = status.Manifest.SourceURI
		out.BuiltAt = status.Manifest.BuiltAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}
