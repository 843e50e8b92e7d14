package tui

import (
	"fmt"
	"strings"

	"github.com/Zuo-Peng/ai-session-index/internal/render"
	"github.com/Zuo-Peng/ai-session-index/internal/search"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// linesPerItem is the number of terminal lines each result occupies.
const linesPerItem = 2

// renderList renders the left panel with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.results) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No sessions")
	}

	var lines []string
	for i, r := range m.results {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatResultLine(r, width, i == m.cursor)...)
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// formatResultLine formats a single session as two lines:
//
//	line 1: [>] platform  MM-DD  title
//	line 2:    snippet (dimmed)
func formatResultLine(r search.Result, width int, selected bool) []string {
	src := styleListSource.Render(platformStyle(r.Platform).Render(string(r.Platform)))
	date := r.UpdatedAt.Local().Format("01-02")

	// room for prefix, platform column, date and padding
	titleMax := width - 2 - 7 - 6 - 2
	if titleMax < 0 {
		titleMax = 0
	}
	title := strings.ReplaceAll(r.DisplayTitle(), "\n", " ")
	if runewidth.StringWidth(title) > titleMax {
		title = runewidth.Truncate(title, titleMax, "")
	}

	line1 := fmt.Sprintf("%s %s %s", src, date, title)
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + styleListNormal.Render(line1)
	}

	snippet := strings.NewReplacer("\n", " ", "\t", " ", ">>>", "", "<<<", "").Replace(r.Snippet)
	if snippet == "" {
		snippet = r.DurationDisplay()
	} else {
		snippet = fmt.Sprintf("%s  %s", r.DurationDisplay(), snippet)
	}
	snippetMax := width - 4
	if snippetMax < 0 {
		snippetMax = 0
	}
	snippet = render.Truncate(snippet, snippetMax)
	line2 := "    " + lipgloss.NewStyle().Foreground(colorDim).Render(snippet)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
