package chunker

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"docchat/internal/domain"
)

// DefaultEncoding matches the OpenAI embedding models.
const DefaultEncoding = "cl100k_base"

// TokenChunker applies the same windowing as CharacterChunker, measured in BPE tokens.
type TokenChunker struct {
	w       window
	encoder encoder
}

// encoder is the part of *tiktoken.Tiktoken the chunker uses.
type encoder interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

func NewTokenChunker(encoding string, size, overlap int) (*TokenChunker, error) {
	w, err := newWindow(size, overlap)
	if err != nil {
		return nil, err
	}
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoder: %w", err)
	}
	return &TokenChunker{w: w, encoder: enc}, nil
}

// Split returns token windows decoded back to text.
func (c *TokenChunker) Split(text string) []string {
	tokens := c.encoder.Encode(text, nil, nil)
	bounds := c.w.bounds(len(tokens))
	out := make([]string, 0, len(bounds))
	for _, b := range bounds {
		out = append(out, c.encoder.Decode(tokens[b[0]:b[1]]))
	}
	return out
}

// Count reports the number of tokens in text.
func (c *TokenChunker) Count(text string) int {
	return len(c.encoder.Encode(text, nil, nil))
}

func (c *TokenChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	return toChunks(document, c.Split(document.Content)), nil
}
