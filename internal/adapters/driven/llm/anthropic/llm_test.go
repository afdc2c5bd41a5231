package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
)

const testKey = "sk-ant-test" //nolint:gosec // G101: test credential

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewLLMService(Config{APIKey: testKey, BaseURL: srv.URL})
	require.NoError(t, err)
	return s
}

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}

func TestNewLLMService_Defaults(t *testing.T) {
	s, err := NewLLMService(Config{APIKey: testKey})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultBaseURL, s.baseURL)
}

func TestGenerate(t *testing.T) {
	var got messagesRequest
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, testKey, r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "Mediante "}, {"type": "text", "text": "atestado."}],
			"stop_reason": "end_turn"
		}`))
	})

	out, err := s.Generate(context.Background(), "Pergunta?", driven.GenerateOptions{
		MaxTokens:   256,
		Temperature: 0.1,
		TopP:        0.9,
		StopWords:   []string{"\n\n", "FIM"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mediante atestado.", out)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, []message{{Role: "user", Content: "Pergunta?"}}, got.Messages)
	assert.Equal(t, 256, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.1, *got.Temperature, 1e-9)
	require.NotNil(t, got.TopP)
	assert.InDelta(t, 0.9, *got.TopP, 1e-9)
	assert.Equal(t, []string{"FIM"}, got.StopSequences, "whitespace-only stops are dropped")
}

func TestNewRequest_Defaults(t *testing.T) {
	s, err := NewLLMService(Config{APIKey: testKey})
	require.NoError(t, err)

	req := s.newRequest("p", driven.GenerateOptions{})
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.Nil(t, req.Temperature)
	assert.Nil(t, req.TopP)
	assert.Empty(t, req.StopSequences)
}

func TestGenerate_APIError(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	})

	_, err := s.Generate(context.Background(), "p", driven.GenerateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "status 429: rate_limit_error: slow down")
}

func TestPing(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models/"+DefaultModel, r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"claude-3-5-sonnet-latest","type":"model"}`))
	})
	assert.NoError(t, s.Ping(context.Background()))
}

func TestPing_Unauthorised(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	})
	err := s.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication_error")
}
