package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"docchat/internal/domain"
)

// ChatConfig configures the OpenAI-compatible chat-completion backend.
type ChatConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	ModelEnv    string  `yaml:"model_env"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	Temperature float32 `yaml:"temperature"`
}

// SearchConfig configures the Tavily web search client.
type SearchConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Depth       string `yaml:"depth"`
	MaxResults  int    `yaml:"max_results"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
// ChunkSize and ChunkOverlap count characters or tokens depending on Type.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	Encoding          string `yaml:"encoding,omitempty"`
	ChunkSize         int    `yaml:"chunk_size"`
	ChunkOverlap      int    `yaml:"chunk_overlap"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
// Collection is a prefix; each document gets its own collection.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	Distance    string `yaml:"distance"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// SessionConfig holds the toggles a new session starts with.
type SessionConfig struct {
	DefaultMode      string `yaml:"default_mode"`
	DefaultVerbosity string `yaml:"default_verbosity"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chat        ChatConfig        `yaml:"chat"`
	Search      SearchConfig      `yaml:"search"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Session     SessionConfig     `yaml:"session"`
	Log         LogConfig         `yaml:"log"`
}

// Credentials are the secrets resolved from the environment.
type Credentials struct {
	ChatAPIKey   string
	ChatModel    string
	SearchAPIKey string
}

// Credentials reads the chat key, chat model and search key. The model
// from the environment wins over the one in the file.
func (c *AppConfig) Credentials() (Credentials, error) {
	creds := Credentials{
		ChatAPIKey:   os.Getenv(c.Chat.APIKeyEnv),
		ChatModel:    os.Getenv(c.Chat.ModelEnv),
		SearchAPIKey: os.Getenv(c.Search.APIKeyEnv),
	}
	if creds.ChatModel == "" {
		creds.ChatModel = c.Chat.Model
	}
	var missing []error
	if creds.ChatAPIKey == "" {
		missing = append(missing, fmt.Errorf("%w: %s", domain.ErrMissingCredential, c.Chat.APIKeyEnv))
	}
	if creds.ChatModel == "" {
		missing = append(missing, fmt.Errorf("%w: %s", domain.ErrMissingCredential, c.Chat.ModelEnv))
	}
	if creds.SearchAPIKey == "" {
		missing = append(missing, fmt.Errorf("%w: %s", domain.ErrMissingCredential, c.Search.APIKeyEnv))
	}
	return creds, errors.Join(missing...)
}

// Settings returns the chat mode and verbosity a new session starts with.
func (c *AppConfig) Settings() domain.Settings {
	mode, ok := domain.ParseChatMode(c.Session.DefaultMode)
	if !ok {
		mode = domain.ModeDocument
	}
	verbosity, ok := domain.ParseVerbosity(c.Session.DefaultVerbosity)
	if !ok {
		verbosity = domain.VerbosityDetailed
	}
	return domain.Settings{Mode: mode, Verbosity: verbosity}
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	// Keys absent from the file keep their defaults; explicit zeros stay zero.
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/docchat/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docchat", "config.yaml"), nil
}

// DefaultLogFile is where logs go when the config names no file.
func DefaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "docchat", "docchat.log")
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{Chunker: ChunkerConfig{ChunkOverlap: 200}}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chat.BaseURL == "" {
		cfg.Chat.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Chat.APIKeyEnv == "" {
		cfg.Chat.APIKeyEnv = "GROQ_API_KEY"
	}
	if cfg.Chat.ModelEnv == "" {
		cfg.Chat.ModelEnv = "GROQ_MODEL_NAME"
	}
	if cfg.Chat.TimeoutSecs == 0 {
		cfg.Chat.TimeoutSecs = 60
	}

	if cfg.Search.BaseURL == "" {
		cfg.Search.BaseURL = "https://api.tavily.com"
	}
	if cfg.Search.APIKeyEnv == "" {
		cfg.Search.APIKeyEnv = "TAVILY_API_KEY"
	}
	if cfg.Search.Depth == "" {
		cfg.Search.Depth = "basic"
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 5
	}
	if cfg.Search.TimeoutSecs == 0 {
		cfg.Search.TimeoutSecs = 30
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
	}

	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "character"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant == nil {
		cfg.VectorStore.Qdrant = &QdrantConfig{URL: "http://localhost:6333"}
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Session.DefaultMode == "" {
		cfg.Session.DefaultMode = string(domain.ModeDocument)
	}
	if cfg.Session.DefaultVerbosity == "" {
		cfg.Session.DefaultVerbosity = string(domain.VerbosityDetailed)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
