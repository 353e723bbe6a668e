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

func TestOpenRouterProvider_Converse(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "https://example.test", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "whiteroom", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Define your terms."}}]}`))
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL, "sk-test", "openrouter/auto", "https://example.test", "whiteroom")
	out, err := p.Converse(context.Background(), Request{
		Mode:  ModeBeginner,
		Input: "what is this",
		Image: "data:image/jpeg;base64,/9j/4AAQ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Define your terms.", out)

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	last := msgs[1].(map[string]any)
	parts, ok := last["content"].([]any)
	require.True(t, ok, "image turns use content parts")
	require.Len(t, parts, 2)
	img := parts[1].(map[string]any)
	assert.Equal(t, "image_url", img["type"])
	assert.Equal(t, "data:image/jpeg;base64,/9j/4AAQ", img["image_url"].(map[string]any)["url"])
}

func TestOpenRouterProvider_NoChoicesIsEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenRouterProvider(srv.URL, "k", "m", "", "").Converse(context.Background(), Request{Input: "hi"})
	assert.True(t, IsKind(err, KindEmptyResponse), "got %v", err)
}

func TestOpenRouterProvider_MissingKey(t *testing.T) {
	_, err := NewOpenRouterProvider("", "", "m", "", "").Converse(context.Background(), Request{Input: "hi"})
	assert.True(t, IsKind(err, KindAuth), "got %v", err)
}

func TestOpenRouterProvider_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewOpenRouterProvider(srv.URL, "k", "m", "", "").Converse(context.Background(), Request{Input: "hi"})
	assert.True(t, IsKind(err, KindAuth), "got %v", err)
	assert.Equal(t, "openrouter: bad key", err.Error())
}
