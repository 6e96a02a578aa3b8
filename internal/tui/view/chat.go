package view

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/glabrego/spacedeck/internal/chat"
	"github.com/glabrego/spacedeck/internal/render/text"
	tuitheme "github.com/glabrego/spacedeck/internal/tui/theme"
)

const ChatEmptyText = "Ask anything about space. Press i to start typing."

// Markdown renders assistant replies with glamour, keeping one renderer per
// wrap width.
type Markdown struct {
	mu        sync.Mutex
	style     string
	renderers map[int]*glamour.TermRenderer
}

func NewMarkdown(style string) *Markdown {
	if style == "" {
		style = "dark"
	}
	return &Markdown{style: style, renderers: make(map[int]*glamour.TermRenderer)}
}

func (m *Markdown) Render(body string, width int) string {
	if m == nil {
		return strings.Join(text.Wrap(body, width), "\n")
	}
	m.mu.Lock()
	r, ok := m.renderers[width]
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			r = nil
		}
		m.renderers[width] = r
	}
	m.mu.Unlock()

	if r == nil {
		return strings.Join(text.Wrap(body, width), "\n")
	}
	out, err := r.Render(body)
	if err != nil {
		return strings.Join(text.Wrap(body, width), "\n")
	}
	return strings.Trim(out, "\n")
}

type ChatInput struct {
	Messages []chat.Message
	Width    int
	Height   int
	Input    string
}

// RenderChat paints the log oldest first and keeps the newest lines in view.
func RenderChat(in ChatInput, md *Markdown, th tuitheme.Theme) string {
	width := max(20, in.Width)
	var lines []string
	if len(in.Messages) == 0 {
		lines = append(lines, th.MetaLabel.Render(ChatEmptyText))
	}
	for _, msg := range in.Messages {
		lines = append(lines, messageLines(msg, width, md, th)...)
		lines = append(lines, "")
	}

	bodyH := in.Height
	if bodyH > 0 && len(lines) > bodyH {
		lines = lines[len(lines)-bodyH:]
	}

	var b strings.Builder
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
	b.WriteString(in.Input)
	b.WriteString("\n")
	return b.String()
}

func messageLines(msg chat.Message, width int, md *Markdown, th tuitheme.Theme) []string {
	switch {
	case msg.Role == chat.RoleUser:
		out := []string{th.ChatUser.Render("You")}
		return append(out, text.Wrap(msg.Text, width)...)
	case msg.Pending:
		return []string{th.ChatAssistant.Render("Assistant"), th.ChatPending.Render(msg.Text)}
	default:
		out := []string{th.ChatAssistant.Render("Assistant")}
		return append(out, strings.Split(md.Render(msg.Text, width), "\n")...)
	}
}
