package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnassist/internal/domain"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-test")

	g, err := New(Config{
		Model:     "claude-3-5-haiku-latest",
		APIKeyEnv: "TEST_ANTHROPIC_KEY",
		BaseURL:   srv.URL + "/",
		MaxTokens: 128,
	})
	require.NoError(t, err)
	return g
}

func TestGenerate(t *testing.T) {
	var got map[string]any
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "Score: 8\nFeedback: good"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`)
	})

	out, err := g.Generate(context.Background(), "evaluate this", 0.3)
	require.NoError(t, err)
	assert.Equal(t, "Score: 8\nFeedback: good", out)
	assert.Equal(t, "claude-3-5-haiku-latest", got["model"])
	assert.InDelta(t, 0.3, got["temperature"], 1e-9)
	assert.EqualValues(t, 128, got["max_tokens"])
}

func TestGenerateRateLimited(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	})

	_, err := g.Generate(context.Background(), "p", 0.3)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestGenerateServerError(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`)
	})

	_, err := g.Generate(context.Background(), "p", 0.3)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.NotErrorIs(t, err, domain.ErrRateLimited)
}

func TestNewRequiresKey(t *testing.T) {
	t.Setenv("TEST_ANTHROPIC_KEY", "")
	_, err := New(Config{APIKeyEnv: "TEST_ANTHROPIC_KEY"})
	assert.Error(t, err)
}
