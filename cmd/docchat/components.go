package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/embedding"
	"docchat/internal/embedding/openai"
	"docchat/internal/embedding/tfidf"
	"docchat/internal/extractor"
	"docchat/internal/index"
	"docchat/internal/llm"
	"docchat/internal/service"
	"docchat/internal/summarizer"
	"docchat/internal/vectorstore"
	"docchat/internal/vectorstore/memory"
	"docchat/internal/vectorstore/qdrant"
	"docchat/internal/websearch"
)

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

func buildEmbedder(cfg config.EmbedderConfig) (embedding.Factory, error) {
	switch cfg.Type {
	case "tfidf", "":
		// the vocabulary is fitted per document
		return func() embedding.Embedder { return tfidf.NewEmbedder() }, nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   secs(cfg.OpenAI.TimeoutSecs),
			BatchSize: cfg.OpenAI.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return func() embedding.Embedder { return client }, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func buildChunker(cfg config.ChunkerConfig) (domain.Chunker, error) {
	switch cfg.Type {
	case "character", "":
		return chunker.NewCharacterChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	case "token":
		return chunker.NewTokenChunker(cfg.Encoding, cfg.ChunkSize, cfg.ChunkOverlap)
	case "sentence":
		return chunker.NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Type)
	}
}

func buildStorage(cfg config.VectorStoreConfig) (vectorstore.Factory, error) {
	switch cfg.Type {
	case "memory", "":
		return func(string) vectorstore.Storage { return memory.NewStorage() }, nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		q := *cfg.Qdrant
		// one run never shares a collection with another process indexing the same PDF
		run := uuid.NewString()[:8]
		return func(documentID string) vectorstore.Storage {
			return qdrant.NewStorage(qdrant.Config{
				URL:        q.URL,
				APIKey:     q.APIKey,
				Collection: qdrant.CollectionFor(q.Collection, documentID+"_"+run),
				Distance:   q.Distance,
				Timeout:    secs(q.TimeoutSecs),
			})
		}, nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}

func buildSummarizer(cfg config.SummarizerConfig) (domain.Summarizer, error) {
	switch cfg.Type {
	case "frequency", "":
		return summarizer.NewFrequencySummarizer(), nil
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Type)
	}
}

// buildService assembles the chat service from config and resolved secrets.
func buildService(cfg *config.AppConfig, creds config.Credentials, log *zap.Logger) (*service.ChatService, error) {
	newEmbedder, err := buildEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	newStorage, err := buildStorage(cfg.VectorStore)
	if err != nil {
		return nil, err
	}
	ch, err := buildChunker(cfg.Chunker)
	if err != nil {
		return nil, err
	}
	sum, err := buildSummarizer(cfg.Summarizer)
	if err != nil {
		return nil, err
	}
	search, err := websearch.NewTavilyClient(websearch.Config{
		BaseURL:    cfg.Search.BaseURL,
		APIKey:     creds.SearchAPIKey,
		Depth:      cfg.Search.Depth,
		MaxResults: cfg.Search.MaxResults,
		Timeout:    secs(cfg.Search.TimeoutSecs),
	}, log)
	if err != nil {
		return nil, err
	}
	chat, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.Chat.BaseURL,
		APIKey:      creds.ChatAPIKey,
		Model:       creds.ChatModel,
		Temperature: cfg.Chat.Temperature,
		Timeout:     secs(cfg.Chat.TimeoutSecs),
	}, log)
	if err != nil {
		return nil, err
	}
	return service.NewChatService(
		extractor.NewPDFExtractor(log),
		ch,
		index.NewBuilder(newEmbedder, newStorage, log),
		sum,
		search,
		chat,
		service.Options{TopK: cfg.Retrieval.TopK, SummarySentences: cfg.Summarizer.MaxSentences},
		log,
	), nil
}
