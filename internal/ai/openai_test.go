package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_Converse(t *testing.T) {
	var body struct {
		Model    string           `json:"model"`
		Messages []map[string]any `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{{FOCUS: Sets}}Name one."}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL, "")
	out, err := p.Converse(context.Background(), Request{
		Mode:    ModeStandard,
		History: []Message{{Role: RoleModel, Content: "welcome"}},
		Input:   "what is a set",
	})
	require.NoError(t, err)
	assert.Equal(t, "{{FOCUS: Sets}}Name one.", out)

	assert.Equal(t, "gpt-4o-mini", body.Model)
	require.Len(t, body.Messages, 3)
	assert.Equal(t, "system", body.Messages[0]["role"])
	assert.Equal(t, "assistant", body.Messages[1]["role"])
	assert.Equal(t, "user", body.Messages[2]["role"])
}

func TestOpenAIProvider_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider("bad", srv.URL, "m").Converse(context.Background(), Request{Input: "hi"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindAuth), "got %v", err)
}
