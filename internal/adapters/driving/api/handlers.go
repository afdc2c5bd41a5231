package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

// excerptLength bounds the source text returned per chunk.
const excerptLength = 400

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
}

// AskResponse is the body returned by POST /api/ask.
type AskResponse struct {
	Answer    string            `json:"answer"`
	Kind      domain.AnswerKind `json:"kind"`
	FromCache bool              `json:"from_cache"`
	LatencyMS int64             `json:"latency_ms"`
	Sources   []Source          `json:"sources"`
	SessionID string            `json:"session_id"`
}

// Source is one supporting excerpt of an answer.
type Source struct {
	Label   int    `json:"label"`
	ChunkID string `json:"chunk_id"`
	Locator string `json:"locator"`
	Excerpt string `json:"excerpt"`
}

// IndexResponse is the body returned by GET /api/index.
type IndexResponse struct {
	Loaded         bool       `json:"loaded"`
	Location       string     `json:"location"`
	Chunks         int        `json:"chunks"`
	EmbeddingModel string     `json:"embedding_model,omitempty"`
	Dimensions     int        `json:"dimensions,omitempty"`
	ChunkSize      int        `json:"chunk_size,omitempty"`
	Overlap        int        `json:"overlap,omitempty"`
	SourceURI      string     `json:"source_uri,omitempty"`
	BuiltAt        *time.Time `json:"built_at,omitempty"`
}

// TurnResponse is one entry of GET /api/sessions/:id.
type TurnResponse struct {
	Question string      `json:"question"`
	AskedAt  time.Time   `json:"asked_at"`
	Answer   AskResponse `json:"answer"`
}

// errorResponse writes the error body shared by every endpoint.
func errorResponse(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error_code": code,
		"message":    message,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"index_loaded": s.ports.Index.Status().Loaded,
		"timestamp":    time.Now().UTC(),
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, toIndexResponse(s.ports.Index.Status()))
}

func (s *Server) handleExamples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"questions": domain.ExampleQuestions()})
}

func (s *Server) handleAsk(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid_input", "Invalid request data: "+err.Error())
		return
	}

	var answer domain.Answer
	session, err := s.ports.Sessions.Update(req.SessionID, s.ports.Ask.NewSession,
		func(session domain.Session) (domain.Session, error) {
			var err error
			answer, session, err = s.ports.Ask.Ask(c.Request.Context(), session, req.Question)
			return session, err
		})
	switch {
	case errors.Is(err, domain.ErrValidation):
		errorResponse(c, http.StatusBadRequest, "invalid_question", err.Error())
		return
	case err != nil:
		errorResponse(c, http.StatusInternalServerError, "ask_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, toAskResponse(answer, session.ID))
}

func (s *Server) handleSession(c *gin.Context) {
	session, ok := s.ports.Sessions.Get(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "session_not_found", "Session not found")
		return
	}

	turns := make([]TurnResponse, len(session.History))
	for i, turn := range session.History {
		turns[i] = TurnResponse{
			Question: turn.Question,
			AskedAt:  turn.AskedAt,
			Answer:   toAskResponse(turn.Answer, session.ID),
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"started_at": session.StartedAt,
		"turns":      turns,
	})
}

func (s *Server) handleClearCache(c *gin.Context) {
	if err := s.ports.Ask.ClearCache(c.Request.Context()); err != nil {
		errorResponse(c, http.StatusInternalServerError, "cache_clear_failed", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func toAskResponse(answer domain.Answer, sessionID string) AskResponse {
	resp := AskResponse{
		Answer:    answer.Text,
		Kind:      answer.Kind,
		FromCache: answer.FromCache,
		LatencyMS: answer.Latency.Milliseconds(),
		Sources:   make([]Source, len(answer.Sources)),
		SessionID: sessionID,
	}
	for i, src := range answer.Sources {
		resp.Sources[i] = Source{
			Label:   i + 1,
			ChunkID: src.ID,
			Locator: src.Locator.String(),
			Excerpt: src.Excerpt(excerptLength),
		}
	}
	return resp
}

func toIndexResponse(status domain.IndexStatus) IndexResponse {
	resp := IndexResponse{
		Loaded:   status.Loaded,
		Location: status.Location,
		Chunks:   status.Chunks,
	}
	if status.Loaded {
		m := status.Manifest
		resp.EmbeddingModel = m.EmbeddingModel
		resp.Dimensions = m.Dimensions
		resp.ChunkSize = m.ChunkSize
		resp.Overlap = m.Overlap
		resp.SourceURI = m.SourceURI
		builtAt := m.BuiltAt
		resp.BuiltAt = &builtAt
	}
	return resp
}
