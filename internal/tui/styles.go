package tui

import (
	"github.com/Zuo-Peng/ai-session-index/internal/parse"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	colorPrimary   = lipgloss.Color("12")  // bright blue
	colorDim       = lipgloss.Color("240") // gray
	colorHighlight = lipgloss.Color("11")  // bright yellow
	colorBorder    = lipgloss.Color("238") // dark gray

	styleInput = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleListSelected = lipgloss.NewStyle().
				Foreground(colorHighlight).
				Bold(true)

	styleListNormal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	styleListSource = lipgloss.NewStyle().
			Width(7)

	platformColors = map[parse.Platform]lipgloss.Color{
		parse.Claude: lipgloss.Color("12"),
		parse.Codex:  lipgloss.Color("10"),
		parse.Gemini: lipgloss.Color("13"),
		parse.Qwen:   lipgloss.Color("11"),
		parse.IFlow:  lipgloss.Color("14"),
		parse.Droid:  lipgloss.Color("9"),
	}

	stylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder)

	styleActiveBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary)

	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	styleRoleUser = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleRoleAssistant = lipgloss.NewStyle().
				Foreground(lipgloss.Color("10")).
				Bold(true)
)

func platformStyle(p parse.Platform) lipgloss.Style {
	if c, ok := platformColors[p]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return lipgloss.NewStyle()
}
