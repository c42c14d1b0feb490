package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/embedding/tfidf"
	"docchat/internal/vectorstore/memory"
	"docchat/internal/vectorstore/qdrant"
)

func TestBuildChunker(t *testing.T) {
	ch, err := buildChunker(config.ChunkerConfig{Type: "character", ChunkSize: 1000, ChunkOverlap: 200})
	require.NoError(t, err)
	assert.IsType(t, &chunker.CharacterChunker{}, ch)

	ch, err = buildChunker(config.ChunkerConfig{Type: "sentence", SentencesPerChunk: 4})
	require.NoError(t, err)
	assert.IsType(t, &chunker.SentenceChunker{}, ch)

	_, err = buildChunker(config.ChunkerConfig{Type: "character", ChunkSize: 100, ChunkOverlap: 100})
	assert.Error(t, err)
	_, err = buildChunker(config.ChunkerConfig{Type: "paragraph"})
	assert.Error(t, err)
}

func TestBuildEmbedderGivesFreshTFIDF(t *testing.T) {
	newEmbedder, err := buildEmbedder(config.EmbedderConfig{Type: "tfidf"})
	require.NoError(t, err)
	a, b := newEmbedder(), newEmbedder()
	assert.IsType(t, &tfidf.Embedder{}, a)
	assert.NotSame(t, a, b)

	t.Setenv("DOCCHAT_TEST_MISSING_KEY", "")
	_, err = buildEmbedder(config.EmbedderConfig{Type: "openai", OpenAI: &config.OpenAIEmbedderConfig{APIKeyEnv: "DOCCHAT_TEST_MISSING_KEY"}})
	assert.Error(t, err)
}

func TestBuildStorage(t *testing.T) {
	newStorage, err := buildStorage(config.VectorStoreConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, newStorage("doc"))

	newStorage, err = buildStorage(config.VectorStoreConfig{Type: "qdrant", Qdrant: &config.QdrantConfig{URL: "http://localhost:6333", Collection: "study"}})
	require.NoError(t, err)
	st, ok := newStorage("abc123").(*qdrant.Storage)
	require.True(t, ok)
	assert.Regexp(t, `^study_abc123_[0-9a-f]{8}$`, st.Collection())
	again, ok := newStorage("abc123").(*qdrant.Storage)
	require.True(t, ok)
	assert.Equal(t, st.Collection(), again.Collection())

	other, err := buildStorage(config.VectorStoreConfig{Type: "qdrant", Qdrant: &config.QdrantConfig{URL: "http://localhost:6333", Collection: "study"}})
	require.NoError(t, err)
	assert.NotEqual(t, st.Collection(), other("abc123").(*qdrant.Storage).Collection())

	_, err = buildStorage(config.VectorStoreConfig{Type: "qdrant"})
	assert.Error(t, err)
}

func TestBuildService(t *testing.T) {
	cfg, err := config.Load(t.TempDir() + "/missing.yaml")
	require.NoError(t, err)

	svc, err := buildService(cfg, config.Credentials{ChatAPIKey: "gsk", ChatModel: "llama3", SearchAPIKey: "tvly"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)

	_, err = buildService(cfg, config.Credentials{ChatAPIKey: "gsk", ChatModel: "llama3"}, nil)
	assert.Error(t, err)
}
