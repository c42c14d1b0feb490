package chunker

import "docchat/internal/domain"

// CharacterChunker splits text into fixed-size rune windows with a fixed overlap.
type CharacterChunker struct {
	w window
}

// NewCharacterChunker validates size and overlap (both in runes).
func NewCharacterChunker(size, overlap int) (*CharacterChunker, error) {
	w, err := newWindow(size, overlap)
	if err != nil {
		return nil, err
	}
	return &CharacterChunker{w: w}, nil
}

// Split returns the overlapping windows covering text. The last one may be short.
func (c *CharacterChunker) Split(text string) []string {
	runes := []rune(text)
	bounds := c.w.bounds(len(runes))
	out := make([]string, 0, len(bounds))
	for _, b := range bounds {
		out = append(out, string(runes[b[0]:b[1]]))
	}
	return out
}

func (c *CharacterChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	return toChunks(document, c.Split(document.Content)), nil
}
