package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.HandlerFunc) *TavilyClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewTavilyClient(Config{BaseURL: srv.URL, APIKey: "tvly-test"}, nil)
	require.NoError(t, err)
	return c
}

func TestSearchReturnsAnswer(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is the capital of France?", req.Query)
		assert.Equal(t, DepthBasic, req.SearchDepth)
		assert.True(t, req.IncludeAnswer)
		_, _ = w.Write([]byte(`{"answer":"Paris is the capital of France.","results":[]}`))
	})

	answer, err := c.Search(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", answer)
}

func TestSearchFallsBackToSnippets(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer":"","results":[{"title":"Go","url":"https://go.dev","content":"Go is a language."},{"title":"x","url":"u","content":"  "}]}`))
	})

	answer, err := c.Search(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "Go (https://go.dev): Go is a language.", answer)
}

func TestSearchNoAnswer(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	_, err := c.Search(context.Background(), "nothing")
	assert.ErrorIs(t, err, ErrNoAnswer)
}

func TestSearchHTTPError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid key"}`))
	})
	_, err := c.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid key")
}

func TestNewTavilyClientRequiresKey(t *testing.T) {
	_, err := NewTavilyClient(Config{}, nil)
	assert.Error(t, err)
}
