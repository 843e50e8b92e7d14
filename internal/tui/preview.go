package tui

import (
	"fmt"
	"strings"

	"github.com/Zuo-Peng/ai-session-index/internal/open"
	"github.com/Zuo-Peng/ai-session-index/internal/parse"
	"github.com/Zuo-Peng/ai-session-index/internal/render"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxPreviewMessages = 200

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	id      string
	content string
	hitLine int
	err     error
}

// loadPreviewCmd returns a tea.Cmd that renders the session preview async.
func loadPreviewCmd(g open.Getter, id, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitLine, err := renderPreview(g, id, query, width)
		return previewRenderedMsg{id: id, content: content, hitLine: hitLine, err: err}
	}
}

// renderPreview shows the session's details followed by its conversation.
// hitLine is the first conversation line mentioning the query, or -1.
func renderPreview(g open.Getter, id, query string, width int) (string, int, error) {
	s, err := open.Lookup(g, id)
	if err != nil {
		return "", -1, err
	}

	var lines []string
	detail := render.SessionDetail(s, render.Options{Color: true})
	lines = append(lines, strings.Split(render.Wrap(strings.TrimRight(detail, "\n"), width, "            "), "\n")...)
	lines = append(lines, "", lipgloss.NewStyle().Foreground(colorDim).Render(strings.Repeat("─", width)))

	msgs, err := parse.ReadConversation(s.FilePath)
	if err != nil {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(colorDim).Render("transcript unavailable: "+err.Error()))
		return strings.Join(lines, "\n"), -1, nil
	}

	hitLine := -1
	lowerQuery := strings.ToLower(strings.TrimSpace(query))
	for i, msg := range msgs {
		if i == maxPreviewMessages {
			lines = append(lines, "", fmt.Sprintf("... %d more messages", len(msgs)-i))
			break
		}
		lines = append(lines, "", roleHeader(msg))
		if hitLine < 0 && lowerQuery != "" && strings.Contains(strings.ToLower(msg.Text), lowerQuery) {
			hitLine = len(lines) - 1
		}
		text := msg.Text
		if lowerQuery != "" {
			text = render.HighlightKeywords(text, query)
		}
		lines = append(lines, strings.Split(render.Wrap(text, width, ""), "\n")...)
	}
	return strings.Join(lines, "\n"), hitLine, nil
}

func roleHeader(m parse.Message) string {
	style := styleRoleUser
	label := "User"
	if m.Role == parse.RoleAssistant {
		style = styleRoleAssistant
		label = "Assistant"
	}
	if m.Timestamp.IsZero() {
		return style.Render(label)
	}
	return style.Render(label) + lipgloss.NewStyle().Foreground(colorDim).Render(m.Timestamp.Local().Format("  2006-01-02 15:04"))
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
