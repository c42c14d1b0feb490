package tui

import "github.com/charmbracelet/lipgloss"

const instructionsText = `Welcome! This chatbot is enhanced with a RAG pipeline to answer questions about your documents.

Document Chat
  Load a PDF with /upload <file.pdf>. Its text is split into overlapping
  excerpts and indexed; each question is answered from the three closest
  excerpts. Without a document the assistant answers from its own knowledge.
  One document per session: clear it (ctrl+x) before loading another.

Web Search
  Questions are answered from live web search results. Earlier turns are
  not sent to the model in this mode.

Response mode
  Concise answers in one or two sentences; Detailed explains in depth.

Commands
  /upload <file.pdf>          index a PDF (Document Chat only)
  /mode document|web          switch chat mode (or tab)
  /verbosity concise|detailed switch response mode (or ctrl+t)
  /reset                      Clear Document & Chat (or ctrl+x)
  /help                       this page (or ctrl+g)
  /quit                       exit (or ctrl+c)

Press esc to return to the chat.`

func instructions(width int) string {
	return titleStyle.Render("The Chatbot Blueprint") + "\n\n" +
		lipgloss.NewStyle().Width(width).Render(instructionsText)
}
