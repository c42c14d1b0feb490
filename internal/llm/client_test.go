package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestMessagesMapping(t *testing.T) {
	msgs := Messages("be nice", []domain.Turn{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	})
	require.Len(t, msgs, 3)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, "be nice", msgs[0].Content)
	assert.Equal(t, goopenai.ChatMessageRoleUser, msgs[1].Role)
	assert.Equal(t, goopenai.ChatMessageRoleAssistant, msgs[2].Role)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{Model: "m"}, nil)
	assert.ErrorIs(t, err, ErrAPIKeyNotSet)
	_, err = NewClient(Config{APIKey: "k"}, nil)
	assert.ErrorIs(t, err, ErrModelNotSet)
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-test", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "What is 2+2?", req.Messages[1].Content)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"llama-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"4"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":5,"completion_tokens":1,"total_tokens":6}}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "gsk-test", Model: "llama-test"}, nil)
	require.NoError(t, err)
	reply, err := c.Complete(context.Background(), "persona", []domain.Turn{{Role: domain.RoleUser, Content: "What is 2+2?"}})
	require.NoError(t, err)
	assert.Equal(t, "4", reply)
}

func TestCompleteDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"tokens"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"}, nil)
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "persona", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"m","choices":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"}, nil)
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "persona", nil)
	assert.ErrorIs(t, err, ErrNoChoices)
}
