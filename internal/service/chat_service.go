// Package service runs a chat turn or a document upload end to end.
package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"docchat/internal/domain"
	"docchat/internal/index"
	"docchat/internal/session"
)

// Route records which path answered a turn.
type Route string

const (
	RouteDocument Route = "document"
	RouteWeb      Route = "web"
	RoutePlain    Route = "plain"
)

// Indexer builds a retriever over the chunks of one document.
type Indexer interface {
	Index(ctx context.Context, documentID string, chunks []domain.Chunk) (domain.Retriever, error)
}

// TurnResult describes a finished turn. Err is set when Reply is an error
// message rather than a model answer.
type TurnResult struct {
	Reply   string
	Route   Route
	Context string
	// Excerpts holds the retrieved chunk texts of a document turn, in rank order.
	Excerpts []string
	Err      error
}

// IngestResult describes a successfully indexed document.
type IngestResult struct {
	Document   domain.Document
	Pages      int
	BlankPages int
	Chunks     int
	Summary    string
}

type Options struct {
	TopK             int
	SummarySentences int
}

type ChatService struct {
	extractor  domain.Extractor
	chunker    domain.Chunker
	indexer    Indexer
	summarizer domain.Summarizer
	search     domain.WebSearcher
	chat       domain.ChatCompleter
	opts       Options
	log        *zap.Logger
}

func NewChatService(
	extractor domain.Extractor,
	chunker domain.Chunker,
	indexer Indexer,
	summarizer domain.Summarizer,
	search domain.WebSearcher,
	chat domain.ChatCompleter,
	opts Options,
	log *zap.Logger,
) *ChatService {
	if opts.TopK <= 0 {
		opts.TopK = index.DefaultTopK
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatService{
		extractor:  extractor,
		chunker:    chunker,
		indexer:    indexer,
		summarizer: summarizer,
		search:     search,
		chat:       chat,
		opts:       opts,
		log:        log.With(zap.String("component", "service")),
	}
}

// Ask appends question to the session, produces a reply and appends it too.
// Client failures become the reply text; Ask itself never fails.
func (s *ChatService) Ask(ctx context.Context, sess *session.State, question string, settings domain.Settings) TurnResult {
	start := time.Now()
	log := s.log.With(zap.String("session", sess.ID()), zap.String("mode", string(settings.Mode)))
	sess.Append(domain.RoleUser, question)

	res := s.answer(ctx, sess, question, settings, log)
	sess.Append(domain.RoleAssistant, res.Reply)

	if res.Err != nil {
		log.Error("turn failed", zap.String("route", string(res.Route)), zap.Error(res.Err))
	} else {
		log.Info("turn answered", zap.String("route", string(res.Route)), zap.Duration("took", time.Since(start)))
	}
	return res
}

func (s *ChatService) answer(ctx context.Context, sess *session.State, question string, settings domain.Settings, log *zap.Logger) TurnResult {
	instruction := Instruction(settings.Verbosity)

	if settings.Mode == domain.ModeWeb {
		results, err := s.search.Search(ctx, question)
		if err != nil {
			return TurnResult{Route: RouteWeb, Reply: "Error performing web search: " + err.Error(), Err: err}
		}
		// Web turns carry only the composite message, not the history.
		msg := []domain.Turn{{Role: domain.RoleUser, Content: WebPrompt(results, question)}}
		return s.complete(ctx, instruction, msg, TurnResult{Route: RouteWeb, Context: results})
	}

	history := sess.History()
	if r, ok := sess.Index(); ok {
		found, err := r.Retrieve(ctx, question, s.opts.TopK)
		if err == nil {
			joined := JoinChunks(found)
			history[len(history)-1].Content = DocumentPrompt(joined, question)
			return s.complete(ctx, instruction, history, TurnResult{Route: RouteDocument, Context: joined, Excerpts: chunkTexts(found)})
		}
		log.Warn("retrieval failed, answering without document", zap.Error(err))
	}
	return s.complete(ctx, instruction, history, TurnResult{Route: RoutePlain})
}

func (s *ChatService) complete(ctx context.Context, instruction string, history []domain.Turn, res TurnResult) TurnResult {
	reply, err := s.chat.Complete(ctx, instruction, history)
	if err != nil {
		res.Reply = "Error getting response: " + err.Error()
		res.Err = err
		return res
	}
	res.Reply = reply
	return res
}

// IngestPDF extracts, chunks and indexes a PDF and attaches the index to
// the session. A session that already holds a document is left untouched.
func (s *ChatService) IngestPDF(ctx context.Context, sess *session.State, name string, data []byte) (IngestResult, error) {
	if sess.HasIndex() {
		return IngestResult{}, domain.ErrDocumentLoaded
	}
	log := s.log.With(zap.String("session", sess.ID()), zap.String("document", name))

	ext, err := s.extractor.Extract(data)
	if err != nil {
		return IngestResult{}, err
	}
	if ext.Text == "" {
		log.Warn("document has no text layer", zap.Int("pages", ext.Pages))
		return IngestResult{}, domain.ErrNoExtractableText
	}

	doc := domain.Document{ID: documentID(name, data), Name: name, Content: ext.Text}
	chunks, err := s.chunker.Chunk(doc)
	if err != nil {
		return IngestResult{}, fmt.Errorf("%w: chunk: %w", domain.ErrIndexBuild, err)
	}
	r, err := s.indexer.Index(ctx, doc.ID, chunks)
	if err != nil {
		if !errors.Is(err, domain.ErrIndexBuild) {
			err = fmt.Errorf("%w: %w", domain.ErrIndexBuild, err)
		}
		return IngestResult{}, err
	}

	summary := ""
	if s.summarizer != nil {
		summary, err = s.summarizer.Summarize(doc.Content, s.opts.SummarySentences)
		if err != nil {
			log.Warn("summary failed", zap.Error(err))
			summary = ""
		}
	}

	if err := sess.AttachIndex(name, r); err != nil {
		closeRetriever(r)
		return IngestResult{}, err
	}
	log.Info("document indexed", zap.String("document_id", doc.ID), zap.Int("chunks", len(chunks)))
	return IngestResult{
		Document:   doc,
		Pages:      ext.Pages,
		BlankPages: ext.BlankPages,
		Chunks:     len(chunks),
		Summary:    summary,
	}, nil
}

// Reset clears the session's history and index.
func (s *ChatService) Reset(sess *session.State) error {
	if err := sess.Reset(); err != nil {
		s.log.Warn("closing index on reset", zap.String("session", sess.ID()), zap.Error(err))
		return err
	}
	s.log.Info("session reset", zap.String("session", sess.ID()))
	return nil
}

func closeRetriever(r domain.Retriever) {
	if c, ok := r.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

func documentID(name string, data []byte) string {
	h := sha1.New()
	h.Write([]byte(name))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)[:8])
}
