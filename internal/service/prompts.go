package service

import (
	"fmt"
	"strings"

	"docchat/internal/domain"
)

const (
	persona = "You are a friendly and encouraging AI Study Buddy. " +
		"Your goal is to help users understand topics. Always be positive, patient, and helpful."
	conciseDirective  = " Your responses must be short, summarized, and to the point, in 1-2 sentences."
	detailedDirective = " Your responses must be expanded, in-depth, and provide comprehensive explanations."
)

// Instruction returns the system instruction for the given verbosity.
// Anything other than concise gets the detailed directive.
func Instruction(v domain.Verbosity) string {
	if v == domain.VerbosityConcise {
		return persona + conciseDirective
	}
	return persona + detailedDirective
}

// WebPrompt wraps search results and the question into one user message.
func WebPrompt(results, question string) string {
	return fmt.Sprintf("Based on the following web search results, please provide an answer to the user's question.\n\n"+
		"Search Results:\n---\n%s\n---\n\nQuestion: %s", results, question)
}

// DocumentPrompt wraps retrieved excerpts and the question into one user message.
func DocumentPrompt(context, question string) string {
	return fmt.Sprintf("Use the following document excerpts to answer the user's question. "+
		"If the question is conversational or seems unrelated to the excerpts, answer it from your own knowledge. \n\n"+
		"Context Excerpts:\n---\n%s\n---\n\nUser's Question: %s", context, question)
}

// JoinChunks concatenates retrieved chunk texts in rank order.
func JoinChunks(results []domain.SearchResult) string {
	return strings.Join(chunkTexts(results), "\n")
}

func chunkTexts(results []domain.SearchResult) []string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	return texts
}
