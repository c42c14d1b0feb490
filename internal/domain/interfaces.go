package domain

import "context"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in the conversation history.
type Turn struct {
	Role    Role
	Content string
}

// Document represents a single uploaded file after text extraction.
type Document struct {
	ID      string
	Name    string
	Content string
}

// Chunk is a bounded, overlapping slice of a document used for indexing.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Extraction is the plain text recovered from a PDF.
type Extraction struct {
	Text       string
	Pages      int
	BlankPages int
}

// ChatMode selects where a turn gets its grounding from.
type ChatMode string

const (
	ModeDocument ChatMode = "document"
	ModeWeb      ChatMode = "web"
)

// Verbosity selects the length directive appended to the persona.
type Verbosity string

const (
	VerbosityConcise  Verbosity = "concise"
	VerbosityDetailed Verbosity = "detailed"
)

// Settings is the mode pair active for one turn.
type Settings struct {
	Mode      ChatMode
	Verbosity Verbosity
}

// ParseChatMode accepts the config and command spellings of a chat mode.
func ParseChatMode(s string) (ChatMode, bool) {
	switch s {
	case "document", "doc", "documents":
		return ModeDocument, true
	case "web", "search":
		return ModeWeb, true
	}
	return "", false
}

// ParseVerbosity accepts the config and command spellings of a verbosity.
func ParseVerbosity(s string) (Verbosity, bool) {
	switch s {
	case "concise", "short":
		return VerbosityConcise, true
	case "detailed", "long":
		return VerbosityDetailed, true
	}
	return "", false
}

// Extractor recovers plain text from raw PDF bytes.
type Extractor interface {
	Extract(data []byte) (Extraction, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Retriever answers nearest-neighbour queries over an indexed document.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error)
}

// WebSearcher returns a short answer synthesized from live web results.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// ChatCompleter generates the next assistant reply.
type ChatCompleter interface {
	Complete(ctx context.Context, instruction string, history []Turn) (string, error)
}
