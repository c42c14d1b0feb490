// Package llm talks to an OpenAI-compatible chat-completion API (Groq by default).
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"docchat/internal/domain"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultTimeout = 60 * time.Second
)

var (
	// ErrAPIKeyNotSet is returned when the client is built without a key.
	ErrAPIKeyNotSet = errors.New("chat api key not set")
	// ErrModelNotSet is returned when the client is built without a model.
	ErrModelNotSet = errors.New("chat model not set")
	// ErrNoChoices is returned when the API answers without a completion.
	ErrNoChoices = errors.New("no completion choices returned")
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Client generates replies from an instruction plus a role-tagged history.
// It performs a single attempt per call.
type Client struct {
	api         *goopenai.Client
	model       string
	temperature float32
	log         *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if cfg.Model == "" {
		return nil, ErrModelNotSet
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{
		api:         goopenai.NewClientWithConfig(apiCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		log:         log.With(zap.String("component", "llm")),
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Complete sends the instruction as a system message followed by history.
func (c *Client) Complete(ctx context.Context, instruction string, history []domain.Turn) (string, error) {
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    Messages(instruction, history),
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	c.log.Info("chat completion done",
		zap.String("model", resp.Model),
		zap.Int("messages", len(history)+1),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("took", time.Since(start)),
	)
	return resp.Choices[0].Message.Content, nil
}

// Messages maps the instruction and history onto API messages.
// Any role other than user is sent as assistant.
func Messages(instruction string, history []domain.Turn) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(history)+1)
	out = append(out, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: instruction})
	for _, t := range history {
		role := goopenai.ChatMessageRoleAssistant
		if t.Role == domain.RoleUser {
			role = goopenai.ChatMessageRoleUser
		}
		out = append(out, goopenai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	return out
}
