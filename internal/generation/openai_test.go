package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatServer(t *testing.T, content string, gotRequest *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if gotRequest != nil {
			_ = json.NewDecoder(r.Body).Decode(gotRequest)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func TestOpenAICompleterReturnsContent(t *testing.T) {
	var req map[string]any
	srv := newChatServer(t, `[{"title":"T1","content":"C1"}]`, &req)
	defer srv.Close()

	c := NewOpenAICompleter(OpenAIConfig{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/v1",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
	})
	out, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"T1","content":"C1"}]`, out)

	assert.Equal(t, "gpt-4o-mini", req["model"])
	messages, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].(map[string]any)["content"])
}

func TestOpenAICompleterEmptyContent(t *testing.T) {
	srv := newChatServer(t, "   ", nil)
	defer srv.Close()

	c := NewOpenAICompleter(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "m"})
	_, err := c.Complete(context.Background(), "hello")
	assert.True(t, errors.Is(err, ErrEmptyCompletion))
}

func TestOpenAICompleterServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "m"})
	_, err := c.Complete(context.Background(), "hello")
	require.Error(t, err)

	// End to end through the orchestrator the failure becomes an empty result.
	o := newTestOrchestrator(c, nil)
	assert.Empty(t, o.GenerateSections(context.Background(), "notes"))
}
