// Package session holds the per-user conversation and the document index
// built for it.
package session

import (
	"io"
	"sync"

	"github.com/google/uuid"

	"docchat/internal/domain"
)

// State is one chat session. The zero value is not usable; call New.
type State struct {
	id string

	mu       sync.RWMutex
	history  []domain.Turn
	index    domain.Retriever
	document string
}

func New() *State {
	return &State{id: uuid.NewString()}
}

func (s *State) ID() string { return s.id }

// Append adds a turn to the end of the history.
func (s *State) Append(role domain.Role, content string) {
	s.mu.Lock()
	s.history = append(s.history, domain.Turn{Role: role, Content: content})
	s.mu.Unlock()
}

// History returns a copy of the conversation so far.
func (s *State) History() []domain.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Index returns the session's retriever, if a document has been indexed.
func (s *State) Index() (domain.Retriever, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index, s.index != nil
}

func (s *State) HasIndex() bool {
	_, ok := s.Index()
	return ok
}

// Document returns the name of the indexed document, or "".
func (s *State) Document() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document
}

// AttachIndex stores r as the session index. A session indexes at most one
// document until it is reset.
func (s *State) AttachIndex(name string, r domain.Retriever) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		return domain.ErrDocumentLoaded
	}
	s.index = r
	s.document = name
	return nil
}

// Reset clears the history and discards the index in one step.
// The discarded index is closed if it supports it.
func (s *State) Reset() error {
	s.mu.Lock()
	old := s.index
	s.history = nil
	s.index = nil
	s.document = ""
	s.mu.Unlock()

	if c, ok := old.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
