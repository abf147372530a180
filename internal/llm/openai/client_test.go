package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/llm"
	"github.com/joseph-ayodele/thesis-checker/internal/llm/openai"
)

func TestComplete_SendsSinglePrompt(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" [{\"severity\":\"MAJOR\",\"message\":\"x\"}] "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := openai.NewClient(openai.Config{APIKey: "secret", BaseURL: srv.URL + "/v1/"}, nil)
	out, err := c.Complete(context.Background(), llm.CompletionRequest{Model: "deepseek", Prompt: "validate", MaxTokens: 4000})
	require.NoError(t, err)
	assert.Equal(t, `[{"severity":"MAJOR","message":"x"}]`, out)

	assert.Equal(t, "deepseek", got["model"])
	assert.Equal(t, float64(4000), got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "validate", msgs[0].(map[string]any)["content"])
}

func TestComplete_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, "401"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"provider error in 200", http.StatusOK, `{"error":{"message":"model overloaded"}}`, "model overloaded"},
		{"garbage", http.StatusOK, `<html>`, "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := openai.NewClient(openai.Config{APIKey: "k", BaseURL: srv.URL}, nil)
			_, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "p"})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrUpstreamJudgment)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestComplete_MissingKey(t *testing.T) {
	c := openai.NewClient(openai.Config{BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstreamJudgment)
	assert.Contains(t, err.Error(), "API key not configured")
}
