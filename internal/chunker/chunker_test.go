package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

func rebuild(chunks []string, overlap int) string {
	var sb strings.Builder
	for i, c := range chunks {
		r := []rune(c)
		if i > 0 {
			r = r[overlap:]
		}
		sb.WriteString(string(r))
	}
	return sb.String()
}

func sampleText(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz .,é"
	runes := []rune(alphabet)
	out := make([]rune, n)
	for i := range out {
		out[i] = runes[(i*7+i/3)%len(runes)]
	}
	return string(out)
}

func TestCharacterChunkerDefaults(t *testing.T) {
	c, err := NewCharacterChunker(DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)

	text := sampleText(2400)
	chunks := c.Split(text)
	require.Len(t, chunks, 3)
	assert.Len(t, []rune(chunks[0]), 1000)
	assert.Len(t, []rune(chunks[1]), 1000)
	assert.Len(t, []rune(chunks[2]), 800)
	assert.Equal(t, text, rebuild(chunks, 200))
}

func TestCharacterChunkerProperties(t *testing.T) {
	cases := []struct {
		size, overlap, n int
	}{
		{10, 3, 0},
		{10, 3, 1},
		{10, 3, 10},
		{10, 3, 11},
		{10, 0, 35},
		{7, 6, 50},
		{1000, 200, 999},
		{1000, 200, 5321},
	}
	for _, tc := range cases {
		c, err := NewCharacterChunker(tc.size, tc.overlap)
		require.NoError(t, err)
		text := sampleText(tc.n)
		chunks := c.Split(text)
		if tc.n == 0 {
			assert.Empty(t, chunks)
			continue
		}
		for i, ch := range chunks {
			r := []rune(ch)
			if i < len(chunks)-1 {
				assert.Len(t, r, tc.size, "chunk %d", i)
				next := []rune(chunks[i+1])
				assert.Equal(t, string(r[len(r)-tc.overlap:]), string(next[:tc.overlap]), "overlap after chunk %d", i)
			} else {
				assert.LessOrEqual(t, len(r), tc.size)
				assert.Greater(t, len(r), 0)
			}
		}
		assert.Equal(t, text, rebuild(chunks, tc.overlap))
	}
}

func TestCharacterChunkerCountsRunes(t *testing.T) {
	c, err := NewCharacterChunker(4, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"ééé"}, c.Split("ééé"))
	assert.Equal(t, []string{"αβγδ", "δεζ"}, c.Split("αβγδεζ"))
}

func TestNewCharacterChunkerRejectsBadWindows(t *testing.T) {
	for _, tc := range [][2]int{{0, 0}, {-5, 0}, {10, 10}, {10, 11}, {10, -1}} {
		_, err := NewCharacterChunker(tc[0], tc[1])
		assert.ErrorIs(t, err, errBadWindow, "size=%d overlap=%d", tc[0], tc[1])
	}
}

func TestCharacterChunkerChunkIDs(t *testing.T) {
	c, err := NewCharacterChunker(5, 1)
	require.NoError(t, err)
	chunks, err := c.Chunk(domain.Document{ID: "doc", Content: "0123456789"})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.Equal(t, "doc", ch.DocumentID)
		assert.Equal(t, i, ch.Index)
	}
	assert.Equal(t, "doc:2", chunks[2].ChunkID)
	assert.Equal(t, "89", chunks[2].Text)
}

func TestSentenceChunker(t *testing.T) {
	c := NewSentenceChunker(2, 1)
	chunks, err := c.Chunk(domain.Document{ID: "d", Content: "One. Two! Three? Four."})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "One. Two!", chunks[0].Text)
	assert.Equal(t, "Two! Three?", chunks[1].Text)
	assert.Equal(t, "Three? Four.", chunks[2].Text)

	chunks, err = c.Chunk(domain.Document{ID: "d", Content: "   "})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSentenceChunkerKeepsUnpunctuatedTail(t *testing.T) {
	c := NewSentenceChunker(5, 1)
	chunks, err := c.Chunk(domain.Document{ID: "d", Content: "First sentence. Second one.\nChapter 2 Photosynthesis overview"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "First sentence. Second one. Chapter 2 Photosynthesis overview", chunks[0].Text)

	c = NewSentenceChunker(2, 0)
	chunks, err = c.Chunk(domain.Document{ID: "d", Content: "Intro. Body text. Figure 3 caption"})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Figure 3 caption", chunks[1].Text)
}

// wordEncoder maps each space-separated word to one token.
type wordEncoder struct {
	ids   map[string]int
	words []string
}

func (e *wordEncoder) Encode(text string, _, _ []string) []int {
	if e.ids == nil {
		e.ids = map[string]int{}
	}
	var out []int
	for _, w := range strings.SplitAfter(text, " ") {
		if w == "" {
			continue
		}
		id, ok := e.ids[w]
		if !ok {
			id = len(e.words)
			e.ids[w] = id
			e.words = append(e.words, w)
		}
		out = append(out, id)
	}
	return out
}

func (e *wordEncoder) Decode(tokens []int) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(e.words[t])
	}
	return sb.String()
}

func TestTokenChunkerWindows(t *testing.T) {
	c := &TokenChunker{w: window{size: 4, overlap: 1}, encoder: &wordEncoder{}}
	text := "a b c d e f g h i j"
	assert.Equal(t, 10, c.Count(text))

	chunks, err := c.Chunk(domain.Document{ID: "d", Content: text})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "a b c d ", chunks[0].Text)
	assert.Equal(t, "d e f g ", chunks[1].Text)
	assert.Equal(t, "g h i j", chunks[2].Text)
	assert.Equal(t, "d:2", chunks[2].ChunkID)

	chunks, err = c.Chunk(domain.Document{ID: "d", Content: ""})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestNewTokenChunkerRejectsBadWindows(t *testing.T) {
	_, err := NewTokenChunker(DefaultEncoding, 10, 10)
	assert.ErrorIs(t, err, errBadWindow)
}

func TestTokenChunker(t *testing.T) {
	c, err := NewTokenChunker(DefaultEncoding, 8, 2)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 10)
	chunks := c.Split(text)
	require.NotEmpty(t, chunks)
	assert.Len(t, chunks, len(c.w.bounds(c.Count(text))))
}
