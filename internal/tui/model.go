package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/internal/domain"
	"docchat/internal/service"
	"docchat/internal/session"
)

// ChatPort is the TUI-facing subset of the chat service.
type ChatPort interface {
	Ask(ctx context.Context, sess *session.State, question string, settings domain.Settings) service.TurnResult
	IngestPDF(ctx context.Context, sess *session.State, name string, data []byte) (service.IngestResult, error)
	Reset(sess *session.State) error
}

type page int

const (
	pageChat page = iota
	pageInstructions
	pageExcerpts
)

type answerMsg struct {
	question string
	result   service.TurnResult
}

type ingestMsg struct {
	name   string
	result service.IngestResult
	err    error
}

type notice struct {
	text string
	err  bool
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	ctx      context.Context
	chat     ChatPort
	sess     *session.State
	settings domain.Settings

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	page      page
	busy      string
	notice    notice
	summary   string
	excerpts  []string
	lastQuery string
	width     int
	ready     bool
}

// New creates the model for an empty session.
func New(ctx context.Context, chat ChatPort, sess *session.State, settings domain.Settings) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question..."
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := Model{
		ctx:      ctx,
		chat:     chat,
		sess:     sess,
		settings: settings,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
	}
	return m
}

// WithIngest shows the outcome of an upload, such as one made from the
// command line before the program started. A failed upload leaves the
// conversation usable without a document.
func (m Model) WithIngest(name string, res service.IngestResult, err error) Model {
	m.notice = ingestNotice(ingestMsg{name: name, result: res, err: err})
	if err == nil {
		m.summary = res.Summary
	}
	return m
}

// Notice returns the sidebar notice and whether it reports a failure.
func (m Model) Notice() (string, bool) { return m.notice.text, m.notice.err }

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // title, input line, status
		m.viewport.Width = max(20, msg.Width-sidebarWidth-4-chatBoxStyle.GetHorizontalFrameSize())
		m.viewport.Height = max(3, msg.Height-reserved-ch)
		m.input.Width = max(10, m.viewport.Width-4)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case answerMsg:
		m.busy = ""
		m.lastQuery = msg.question
		if msg.result.Route == service.RouteDocument {
			m.excerpts = msg.result.Excerpts
		}
		m.refresh()
		return m, nil

	case ingestMsg:
		m.busy = ""
		m = m.WithIngest(msg.name, msg.result, msg.err)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			m.toggleMode()
			return m, nil
		case "ctrl+t":
			m.toggleVerbosity()
			return m, nil
		case "ctrl+x":
			return m.reset(), nil
		case "ctrl+g":
			m.page = togglePage(m.page, pageInstructions)
			return m, nil
		case "ctrl+e":
			m.page = togglePage(m.page, pageExcerpts)
			m.refresh()
			return m, nil
		case "esc":
			m.page = pageChat
			m.refresh()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" || m.busy != "" {
				return m, nil
			}
			m.input.Reset()
			return m.submit(line)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(line string) (tea.Model, tea.Cmd) {
	cmd, ok := parseCommand(line)
	if !ok {
		return m.ask(line)
	}
	switch cmd.name {
	case "quit", "exit":
		return m, tea.Quit
	case "help":
		m.page = pageInstructions
	case "reset", "clear":
		return m.reset(), nil
	case "mode":
		mode, err := cmd.mode()
		if err != nil {
			m.notice = notice{text: err.Error(), err: true}
			break
		}
		m.settings.Mode = mode
	case "verbosity":
		v, err := cmd.verbosity()
		if err != nil {
			m.notice = notice{text: err.Error(), err: true}
			break
		}
		m.settings.Verbosity = v
	case "upload":
		return m.upload(cmd.uploadPath())
	default:
		m.notice = notice{text: fmt.Sprintf("Unknown command /%s. Press ctrl+g for help.", cmd.name), err: true}
	}
	return m, nil
}

func (m Model) ask(question string) (tea.Model, tea.Cmd) {
	m.busy = "Thinking..."
	m.page = pageChat
	m.refresh()
	ctx, chat, sess, settings := m.ctx, m.chat, m.sess, m.settings
	work := func() tea.Msg {
		return answerMsg{question: question, result: chat.Ask(ctx, sess, question, settings)}
	}
	return m, tea.Batch(m.spinner.Tick, work)
}

func (m Model) upload(path string) (tea.Model, tea.Cmd) {
	if m.settings.Mode != domain.ModeDocument {
		m.notice = notice{text: "Switch to Document Chat (tab) to upload a PDF.", err: true}
		return m, nil
	}
	if path == "" {
		m.notice = notice{text: "Usage: /upload <file.pdf>", err: true}
		return m, nil
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		m.notice = notice{text: "Only .pdf files can be uploaded.", err: true}
		return m, nil
	}
	m.busy = "Processing PDF..."
	ctx, chat, sess := m.ctx, m.chat, m.sess
	work := func() tea.Msg {
		name := filepath.Base(path)
		data, err := os.ReadFile(path)
		if err != nil {
			return ingestMsg{name: name, err: err}
		}
		res, err := chat.IngestPDF(ctx, sess, name, data)
		return ingestMsg{name: name, result: res, err: err}
	}
	return m, tea.Batch(m.spinner.Tick, work)
}

func (m Model) reset() Model {
	if m.busy != "" {
		return m
	}
	if err := m.chat.Reset(m.sess); err != nil {
		m.notice = notice{text: "Reset: " + err.Error(), err: true}
	} else {
		m.notice = notice{}
	}
	m.summary = ""
	m.excerpts = nil
	m.lastQuery = ""
	m.page = pageChat
	m.refresh()
	return m
}

func (m *Model) toggleMode() {
	if m.settings.Mode == domain.ModeWeb {
		m.settings.Mode = domain.ModeDocument
	} else {
		m.settings.Mode = domain.ModeWeb
	}
}

func (m *Model) toggleVerbosity() {
	if m.settings.Verbosity == domain.VerbosityConcise {
		m.settings.Verbosity = domain.VerbosityDetailed
	} else {
		m.settings.Verbosity = domain.VerbosityConcise
	}
}

func togglePage(current, target page) page {
	if current == target {
		return pageChat
	}
	return target
}

func ingestNotice(msg ingestMsg) notice {
	switch {
	case msg.err == nil:
		return notice{text: "Document processed successfully!"}
	case errors.Is(msg.err, domain.ErrNoExtractableText):
		return notice{text: "Could not extract text from the PDF.", err: true}
	case errors.Is(msg.err, domain.ErrDocumentLoaded):
		return notice{text: "A document is already loaded. Clear Document & Chat (ctrl+x) to load another.", err: true}
	default:
		return notice{text: fmt.Sprintf("Could not process %s: %v", msg.name, msg.err), err: true}
	}
}

// refresh re-renders the scrollable pane for the current page.
func (m *Model) refresh() {
	if m.page == pageExcerpts {
		m.viewport.SetContent(m.renderExcerpts())
		m.viewport.GotoTop()
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the sidebar and the current page.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var main string
	switch m.page {
	case pageInstructions:
		main = chatBoxStyle.Width(m.viewport.Width).Height(m.viewport.Height).Render(instructions(m.viewport.Width))
	default:
		main = chatBoxStyle.Render(m.viewport.View())
	}
	title := titleStyle.Render("AI Study Buddy")
	input := inputBoxStyle.Render(m.input.View())
	body := lipgloss.JoinVertical(lipgloss.Left, title, main, input, m.statusLine())
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), body)
}

func (m Model) statusLine() string {
	if m.busy != "" {
		return m.spinner.View() + " " + m.busy
	}
	return dimStyle.Render("enter send · tab mode · ctrl+t response · ctrl+x clear · ctrl+g help · ctrl+c quit")
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Configuration") + "\n\n")

	mode := 0
	if m.settings.Mode == domain.ModeWeb {
		mode = 1
	}
	b.WriteString("Chat mode (tab)\n" + radio([]string{"Document Chat", "Web Search"}, mode) + "\n\n")

	verbosity := 1
	if m.settings.Verbosity == domain.VerbosityConcise {
		verbosity = 0
	}
	b.WriteString("Response mode (ctrl+t)\n" + radio([]string{"Concise", "Detailed"}, verbosity) + "\n\n")

	if m.settings.Mode == domain.ModeDocument {
		b.WriteString(titleStyle.Render("Document") + "\n")
		if name := m.sess.Document(); name != "" {
			b.WriteString(name + "\n")
		} else {
			b.WriteString(dimStyle.Render("none loaded\n/upload <file.pdf>") + "\n")
		}
		if m.summary != "" {
			b.WriteString("\n" + dimStyle.Render(m.summary) + "\n")
		}
		if len(m.excerpts) > 0 {
			b.WriteString(dimStyle.Render("\nctrl+e shows the last excerpts") + "\n")
		}
	}
	if m.notice.text != "" {
		style := successStyle
		if m.notice.err {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.notice.text) + "\n")
	}
	return sidebarStyle.Render(b.String())
}

func (m Model) renderTranscript() string {
	width := max(10, m.viewport.Width)
	wrap := lipgloss.NewStyle().Width(width)
	history := m.sess.History()
	if len(history) == 0 {
		return dimStyle.Render("No messages yet. Ask a question, or /upload a PDF in Document Chat mode.")
	}
	var b strings.Builder
	for _, t := range history {
		label := userStyle.Render("You")
		if t.Role == domain.RoleAssistant {
			label = assistantStyle.Render("Study Buddy")
		}
		b.WriteString(label + "\n" + wrap.Render(t.Content) + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderExcerpts() string {
	if len(m.excerpts) == 0 {
		return "No excerpts yet."
	}
	width := max(10, m.viewport.Width)
	title := fmt.Sprintf("Excerpts used for %q", m.lastQuery)
	parts := make([]string, 0, len(m.excerpts))
	for i, e := range m.excerpts {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("Excerpt %d/%d", i+1, len(m.excerpts)))+"\n"+
			highlightBestSentence(e, m.lastQuery))
	}
	return titleStyle.Render(title) + "\n\n" + lipgloss.NewStyle().Width(width).Render(strings.Join(parts, "\n\n"))
}
