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

func TestOllamaProvider_Converse(t *testing.T) {
	var got ollamaChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaChatResp{Message: ollamaMsg{Role: "assistant", Content: "{{FOCUS: Logic}}Why?"}})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3:latest")
	out, err := p.Converse(context.Background(), Request{
		Mode:    ModeWhiteRoom,
		History: []Message{{Role: RoleModel, Content: "welcome"}, {Role: RoleUser, Content: "hi"}},
		Input:   "prove it",
		Image:   "data:image/png;base64,iVBORw0KGgo=",
	})
	require.NoError(t, err)
	assert.Equal(t, "{{FOCUS: Logic}}Why?", out)

	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "RUTHLESS")
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, "user", got.Messages[2].Role)
	assert.Equal(t, "prove it", got.Messages[3].Content)
	assert.Equal(t, []string{"iVBORw0KGgo="}, got.Messages[3].Images)
	assert.False(t, got.Stream)
}

func TestOllamaProvider_StatusErrors(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusBadGateway, KindNetwork},
		{http.StatusInternalServerError, KindUnknown},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
		}))

		_, err := NewOllamaProvider(srv.URL, "m").Converse(context.Background(), Request{Input: "hi"})
		srv.Close()

		require.Error(t, err)
		assert.True(t, IsKind(err, tc.kind), "status %d: got %v", tc.status, err)
		assert.Contains(t, err.Error(), "model not loaded")
	}
}

func TestOllamaProvider_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewOllamaProvider(url, "m").Converse(context.Background(), Request{Input: "hi"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNetwork), "got %v", err)
}

func TestOllamaProvider_BadImage(t *testing.T) {
	_, err := NewOllamaProvider("http://127.0.0.1:1", "m").Converse(context.Background(), Request{Input: "hi", Image: "not-a-data-uri"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data URI")
}
