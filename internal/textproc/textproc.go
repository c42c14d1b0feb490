// Package textproc holds the tokenisation shared by the TF-IDF embedder,
// the summarizer and the lexical retrieval fallback.
package textproc

import (
	"math"
	"regexp"
	"strings"
)

var (
	wordRe     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// Words returns the lower-cased letter runs of text, stopwords included.
func Words(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

// Terms returns the lower-cased words of text with stopwords removed.
func Terms(text string) []string {
	words := Words(text)
	out := words[:0]
	for _, w := range words {
		if IsStopword(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

// WordSet returns the distinct words of text.
func WordSet(text string) map[string]struct{} {
	words := Words(text)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Sentences splits text on terminal punctuation. Text after the last
// terminator (a heading, a caption) is kept as a final sentence.
func Sentences(text string) []string {
	locs := sentenceRe.FindAllStringIndex(text, -1)
	out := make([]string, 0, len(locs)+1)
	end := 0
	for _, loc := range locs {
		out = append(out, text[loc[0]:loc[1]])
		end = loc[1]
	}
	if tail := text[end:]; strings.TrimSpace(tail) != "" {
		out = append(out, tail)
	}
	return out
}

// Ochiai returns |A∩B| / sqrt(|A||B|) for the word sets of query and text.
func Ochiai(query map[string]struct{}, text string) float64 {
	seen := WordSet(text)
	if len(query) == 0 || len(seen) == 0 {
		return 0
	}
	inter := 0
	for w := range seen {
		if _, ok := query[w]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(query))*float64(len(seen)))
}
