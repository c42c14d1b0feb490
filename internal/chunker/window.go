package chunker

import (
	"errors"
	"fmt"
	"strconv"

	"docchat/internal/domain"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var errBadWindow = errors.New("invalid chunk window")

// window holds a size/overlap pair measured in one unit (runes or tokens).
type window struct {
	size    int
	overlap int
}

func newWindow(size, overlap int) (window, error) {
	if size <= 0 {
		return window{}, fmt.Errorf("%w: size %d must be positive", errBadWindow, size)
	}
	if overlap < 0 || overlap >= size {
		return window{}, fmt.Errorf("%w: overlap %d must be in [0, %d)", errBadWindow, overlap, size)
	}
	return window{size: size, overlap: overlap}, nil
}

// bounds returns the [start, end) offsets of every window over n units.
// Every window but the last spans exactly size units and consecutive
// windows share exactly overlap units.
func (w window) bounds(n int) [][2]int {
	if n == 0 {
		return nil
	}
	step := w.size - w.overlap
	var out [][2]int
	for start := 0; ; start += step {
		end := start + w.size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
		if end == n {
			break
		}
	}
	return out
}

func toChunks(document domain.Document, texts []string) []domain.Chunk {
	if len(texts) == 0 {
		return nil
	}
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    document.ID + ":" + strconv.Itoa(i),
			Text:       text,
			Index:      i,
		}
	}
	return chunks
}
