package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Zuo-Peng/ai-session-index/internal/index"
	"github.com/Zuo-Peng/ai-session-index/internal/open"
	"github.com/Zuo-Peng/ai-session-index/internal/parse"
	"github.com/Zuo-Peng/ai-session-index/internal/search"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	debounceDelay = 200 * time.Millisecond
	listLimit     = 500
	searchLimit   = 200
)

// Source is what the browser reads sessions from.
type Source interface {
	search.Searcher
	open.Getter
	List(f index.Filter) ([]index.Summary, error)
}

// Options scopes the browser.
type Options struct {
	Query    string
	Platform parse.Platform
}

type action int

const (
	actionNone action = iota
	actionCopy
	actionOpen
)

// message types

type resultsMsg struct {
	query   string
	results []search.Result
	err     error
}

type debounceTickMsg struct {
	query string
}

// model

type model struct {
	src         Source
	opts        Options
	query       string
	results     []search.Result
	cursor      int
	listOffset  int
	filterInput textinput.Model
	preview     viewport.Model
	previewKey  string // session id shown in the preview
	width       int
	height      int
	ready       bool
	quitting    bool
	chosen      *search.Result
	action      action
}

func initialModel(src Source, opts Options) model {
	ti := textinput.New()
	ti.Placeholder = "Filter by title or directory..."
	ti.Focus()
	ti.SetValue(opts.Query)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	return model{
		src:         src,
		opts:        opts,
		query:       opts.Query,
		filterInput: ti,
		preview:     viewport.New(0, 0),
	}
}

// Run starts the browser and blocks until it exits. Enter copies the
// selected session's resume command; ctrl+o opens its transcript.
func Run(src Source, opts Options) error {
	m := initialModel(src, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	fm := finalModel.(model)
	if fm.chosen == nil {
		return nil
	}
	s, err := open.Lookup(src, fm.chosen.ID)
	if err != nil {
		return err
	}
	switch fm.action {
	case actionOpen:
		return open.Transcript(s, 1)
	default:
		return copyResume(s)
	}
}

// copyResume copies the resume line, printing it instead when no clipboard
// is available.
func copyResume(s *parse.Session) error {
	line, err := open.CopyResume(s)
	if err != nil {
		fmt.Printf("%s\n", line)
		return nil
	}
	fmt.Printf("Copied to clipboard: %s\n", line)
	return nil
}

// Init triggers the initial load.
func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.doLoad(m.query))
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		// re-render at the new width
		m.previewKey = ""
		cmds = append(cmds, m.loadCurrentPreview())
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Open):
			if len(m.results) > 0 && m.cursor < len(m.results) {
				r := m.results[m.cursor]
				m.chosen = &r
				m.action = actionCopy
				if key.Matches(msg, keys.Open) {
					m.action = actionOpen
				}
				m.quitting = true
				return m, tea.Quit
			}

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.results)-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.PreviewUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.preview.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.preview.LineDown(m.panelHeight())
			return m, nil
		}

		// remaining keys go to the filter input
		var tiCmd tea.Cmd
		m.filterInput, tiCmd = m.filterInput.Update(msg)
		cmds = append(cmds, tiCmd)

		if q := m.filterInput.Value(); q != m.query {
			m.query = q
			cmds = append(cmds, scheduleDebounce(q))
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if !m.ready || len(m.results) == 0 {
			return m, nil
		}

		region, itemIdx := m.hitTest(msg.X, msg.Y)

		switch {
		case region == regionList && msg.Button == tea.MouseButtonWheelUp:
			if m.listOffset > 0 {
				m.listOffset--
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonWheelDown:
			visibleItems := m.panelHeight() / linesPerItem
			maxOffset := len(m.results) - visibleItems
			if maxOffset < 0 {
				maxOffset = 0
			}
			if m.listOffset < maxOffset {
				m.listOffset++
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if itemIdx >= 0 && itemIdx < len(m.results) && m.cursor != itemIdx {
				m.cursor = itemIdx
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case region == regionPreview && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
			var vpCmd tea.Cmd
			m.preview, vpCmd = m.preview.Update(msg)
			return m, vpCmd
		}

		return m, nil

	case debounceTickMsg:
		// stale ticks are dropped
		if msg.query == m.query {
			cmds = append(cmds, m.doLoad(msg.query))
		}
		return m, tea.Batch(cmds...)

	case resultsMsg:
		if msg.query != m.query {
			return m, nil
		}
		m.cursor = 0
		m.listOffset = 0
		m.previewKey = ""
		if msg.err != nil {
			m.results = nil
			m.preview.SetContent("Error: " + msg.err.Error())
			return m, nil
		}
		m.results = msg.results
		if len(m.results) == 0 {
			m.preview.SetContent("")
			return m, nil
		}
		return m, m.loadCurrentPreview()

	case previewRenderedMsg:
		if msg.id == m.previewKey || msg.id != m.currentID() {
			return m, nil
		}
		if msg.err != nil {
			m.preview.SetContent("Preview error: " + msg.err.Error())
		} else {
			m.preview.SetContent(msg.content)
			if msg.hitLine > 0 {
				m.preview.SetYOffset(msg.hitLine)
			} else {
				m.preview.GotoTop()
			}
		}
		m.previewKey = msg.id
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

// View renders the full TUI.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)
	return lipgloss.JoinVertical(lipgloss.Left, m.filterInput.View(), panels, m.statusBar())
}

// helper methods

func (m model) currentID() string {
	if len(m.results) == 0 || m.cursor >= len(m.results) {
		return ""
	}
	return m.results[m.cursor].ID
}

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	// 40% for list, minus border padding
	w := m.width*40/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	w := m.width*60/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// input row (1) + status bar (1) + borders (4)
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	pH := m.panelHeight()
	contentYStart := 2 // input row (1) + top border (1)
	contentYEnd := contentYStart + pH - 1

	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}
	relY := y - contentYStart

	lw := m.listWidth()
	listBoxRight := lw + 1 // col 0=border, 1..lw=content, lw+1=border

	if x >= 1 && x <= lw {
		return regionList, m.listOffset + relY/linesPerItem
	}
	if x > listBoxRight+1 {
		return regionPreview, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	parts := []string{
		fmt.Sprintf("%d sessions", len(m.results)),
		"click/up/dn navigate",
		"scroll/C-u/C-d preview",
		"Enter copy resume cmd",
		"C-o open transcript",
		"Esc quit",
	}
	if m.opts.Platform != "" {
		parts = append([]string{string(m.opts.Platform)}, parts...)
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

// doLoad lists recent sessions for an empty filter and searches otherwise.
func (m model) doLoad(query string) tea.Cmd {
	src := m.src
	platform := m.opts.Platform
	return func() tea.Msg {
		if strings.TrimSpace(query) == "" {
			rows, err := src.List(index.Filter{Platform: platform, Limit: listLimit})
			if err != nil {
				return resultsMsg{query: query, err: err}
			}
			results := make([]search.Result, 0, len(rows))
			for _, r := range rows {
				results = append(results, search.Result{Summary: r, Field: "cwd", Snippet: r.Cwd})
			}
			return resultsMsg{query: query, results: results}
		}
		results, err := search.Search(src, search.Options{Query: query, Platform: platform, Limit: searchLimit})
		return resultsMsg{query: query, results: results, err: err}
	}
}

func scheduleDebounce(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}

func (m model) loadCurrentPreview() tea.Cmd {
	id := m.currentID()
	if id == "" || id == m.previewKey {
		return nil
	}
	return loadPreviewCmd(m.src, id, m.query, m.previewWidth())
}
