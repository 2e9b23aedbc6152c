package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	for _, key := range []string{"", "  ", PlaceholderKey} {
		_, err := NewOpenAIClient("", key, "", 0)
		assert.ErrorIs(t, err, ErrNoAPIKey, "key %q", key)
	}

	c, err := NewOpenAIClient("", "sk-test", "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultModel, c.model)
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-4o-mini-2024-07-18",
			"choices": [{"message": {"role": "assistant", "content": "Invoice faster."}}],
			"usage": {"total_tokens": 87}
		}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(srv.URL+"/v1/", "sk-test", "gpt-4o-mini", time.Second)
	require.NoError(t, err)

	msgs := BuildMessages(Request{Message: "how do I improve cash flow?", Context: sampleContext})
	out, err := c.Complete(context.Background(), msgs)
	require.NoError(t, err)

	assert.Equal(t, Completion{Text: "Invoice faster.", Model: "gpt-4o-mini-2024-07-18", TokensUsed: 87}, out)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, msgs, got.Messages)
}

func TestOpenAIClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "bad json", status: http.StatusOK, body: `not json`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewOpenAIClient(srv.URL, "sk-test", "", time.Second)
			require.NoError(t, err)
			_, err = c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
			assert.Error(t, err)
		})
	}
}

func TestChat_OpenAIFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(srv.URL, "sk-test", "", time.Second)
	require.NoError(t, err)

	reply := New(c, nil).Chat(context.Background(), Request{Message: "forecast please"})
	assert.Equal(t, RuleBasedModel, reply.Model)
	assert.Contains(t, reply.Reply, "Forecast page")
}
