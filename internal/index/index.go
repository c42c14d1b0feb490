// Package index builds the per-document similarity index a session queries.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"docchat/internal/domain"
	"docchat/internal/embedding"
	"docchat/internal/textproc"
	"docchat/internal/vectorstore"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 3

// Builder embeds chunks into a fresh storage. It holds no per-document state.
type Builder struct {
	newEmbedder embedding.Factory
	newStorage  vectorstore.Factory
	log         *zap.Logger
}

func NewBuilder(newEmbedder embedding.Factory, newStorage vectorstore.Factory, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{newEmbedder: newEmbedder, newStorage: newStorage, log: log.With(zap.String("component", "index"))}
}

// Build returns a queryable index over chunks, or an error wrapping
// domain.ErrIndexBuild. No partial index is ever returned.
func (b *Builder) Build(ctx context.Context, documentID string, chunks []domain.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexBuild, domain.ErrEmptyCorpus)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	emb := b.newEmbedder()
	if err := emb.Prepare(texts); err != nil {
		return nil, fmt.Errorf("%w: prepare %s embedder: %w", domain.ErrIndexBuild, emb.Name(), err)
	}
	vectors, err := embedding.EmbedAll(ctx, emb, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embed chunks: %w", domain.ErrIndexBuild, err)
	}
	if len(vectors) != len(chunks) || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d chunks", domain.ErrIndexBuild, len(vectors), len(chunks))
	}
	store := b.newStorage(documentID)
	if err := store.Init(len(vectors[0])); err != nil {
		return nil, fmt.Errorf("%w: init storage: %w", domain.ErrIndexBuild, err)
	}
	if err := store.Upsert(chunks, vectors); err != nil {
		_ = store.Clear()
		return nil, fmt.Errorf("%w: upsert: %w", domain.ErrIndexBuild, err)
	}
	b.log.Info("index built",
		zap.String("document_id", documentID),
		zap.String("embedder", emb.Name()),
		zap.Int("chunks", len(chunks)),
		zap.Int("dimension", len(vectors[0])),
	)
	return &Index{embedder: emb, store: store, chunks: chunks, log: b.log}, nil
}

// Index answers top-k queries over one document.
type Index struct {
	embedder embedding.Embedder
	store    vectorstore.Storage
	chunks   []domain.Chunk
	log      *zap.Logger
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

// Retrieve returns up to k chunks ranked by similarity to query.
// When the query has no overlap with the embedding vocabulary the
// ranking falls back to lexical word overlap.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if ix.store == nil {
		return nil, errors.New("index closed")
	}
	if k <= 0 {
		k = DefaultTopK
	}
	vec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if isZero(vec) {
		ix.log.Debug("zero query vector, using lexical ranking")
		return ix.lexical(query, k), nil
	}
	res, err := ix.store.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	for _, r := range res {
		if r.Score > 1e-9 {
			return res, nil
		}
	}
	ix.log.Debug("all scores zero, using lexical ranking")
	return ix.lexical(query, k), nil
}

// Close discards the underlying storage.
func (ix *Index) Close() error {
	if ix.store == nil {
		return errors.New("index already closed")
	}
	err := ix.store.Clear()
	ix.store = nil
	return err
}

func (ix *Index) lexical(query string, k int) []domain.SearchResult {
	qset := textproc.WordSet(query)
	out := make([]domain.SearchResult, len(ix.chunks))
	for i, c := range ix.chunks {
		out[i] = domain.SearchResult{Chunk: c, Score: textproc.Ochiai(qset, c.Text)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if k < len(out) {
		out = out[:k]
	}
	return out
}

func isZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Index builds an index over chunks and returns it as a retriever.
func (b *Builder) Index(ctx context.Context, documentID string, chunks []domain.Chunk) (domain.Retriever, error) {
	ix, err := b.Build(ctx, documentID, chunks)
	if err != nil {
		return nil, err
	}
	return ix, nil
}
