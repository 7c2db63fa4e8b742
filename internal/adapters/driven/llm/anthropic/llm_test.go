package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}

func TestLLMService_ChatMovesSystemPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Be brief.", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, driven.RoleUser, req.Messages[0].Role)
		assert.Equal(t, DefaultMaxTokens, req.MaxTokens)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Short."},{"type":"text","text":" Done."}]}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "Be brief."},
		{Role: driven.RoleUser, Content: "Text"},
	}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Short. Done.", out)
}

func TestLLMService_ChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"invalid key"}}`},
		{"no text", http.StatusOK, `{"content":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc, err := NewLLMService(Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)
			_, err = svc.Chat(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "x"}}, driven.ChatOptions{})
			assert.Error(t, err)
		})
	}
}

func TestSplitSystem(t *testing.T) {
	system, rest := splitSystem([]driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "a"},
		{Role: driven.RoleUser, Content: "q"},
		{Role: driven.RoleSystem, Content: "b"},
	})
	assert.Equal(t, "a\n\nb", system)
	assert.Equal(t, []messagesMessage{{Role: driven.RoleUser, Content: "q"}}, rest)
}
