package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.tavily.com"
	DepthBasic     = "basic"
)

// ErrNoAnswer is returned when the search produced neither an answer nor results.
var ErrNoAnswer = errors.New("web search returned no answer")

// Config configures the Tavily client.
type Config struct {
	BaseURL    string
	APIKey     string
	Depth      string
	MaxResults int
	Timeout    time.Duration
}

// TavilyClient asks Tavily for a synthesized answer to a question.
type TavilyClient struct {
	baseURL    string
	apiKey     string
	depth      string
	maxResults int
	client     *http.Client
	log        *zap.Logger
}

func NewTavilyClient(cfg Config, log *zap.Logger) (*TavilyClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("tavily api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Depth == "" {
		cfg.Depth = DepthBasic
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TavilyClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		depth:      cfg.Depth,
		maxResults: cfg.MaxResults,
		client:     &http.Client{Timeout: cfg.Timeout},
		log:        log.With(zap.String("component", "websearch")),
	}, nil
}

type searchRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search returns Tavily's synthesized answer for query. Without an answer,
// the result snippets are joined instead.
func (c *TavilyClient) Search(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(searchRequest{
		Query:         query,
		SearchDepth:   c.depth,
		IncludeAnswer: true,
		MaxResults:    c.maxResults,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tavily search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("tavily search returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("tavily search: decode response: %w", err)
	}
	c.log.Info("web search done",
		zap.Int("results", len(out.Results)),
		zap.Bool("answered", out.Answer != ""),
		zap.Duration("took", time.Since(start)),
	)
	if answer := strings.TrimSpace(out.Answer); answer != "" {
		return answer, nil
	}
	var snippets []string
	for _, r := range out.Results {
		if s := strings.TrimSpace(r.Content); s != "" {
			snippets = append(snippets, fmt.Sprintf("%s (%s): %s", r.Title, r.URL, s))
		}
	}
	if len(snippets) == 0 {
		return "", ErrNoAnswer
	}
	return strings.Join(snippets, "\n"), nil
}
