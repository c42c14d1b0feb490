package chunker

import (
	"strings"

	"docchat/internal/domain"
	"docchat/internal/textproc"
)

// SentenceChunker splits text into sentence windows with sentence overlap.
type SentenceChunker struct {
	w window
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{w: window{size: sentencesPerChunk, overlap: overlapSentences}}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	sentences := textproc.Sentences(document.Content)
	if len(sentences) == 0 {
		return nil, nil
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	var texts []string
	for _, b := range c.w.bounds(len(sentences)) {
		texts = append(texts, strings.Join(sentences[b[0]:b[1]], " "))
	}
	return toChunks(document, texts), nil
}
