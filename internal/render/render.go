package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Zuo-Peng/ai-session-index/internal/index"
	"github.com/Zuo-Peng/ai-session-index/internal/parse"
	"github.com/Zuo-Peng/ai-session-index/internal/store"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

const (
	colorReset   = "\033[0m"
	colorBoldRed = "\033[1;31m" // keyword highlights
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json or yaml)", s)
	}
}

// Options controls table rendering.
type Options struct {
	Query string // highlighted in titles and paths
	Color bool
	Now   time.Time
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	platformStyles = map[parse.Platform]lipgloss.Style{
		parse.Claude: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		parse.Codex:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		parse.Gemini: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		parse.Qwen:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		parse.IFlow:  lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		parse.Droid:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
)

// PlatformLabel returns the platform name, colored when color is set.
func PlatformLabel(p parse.Platform, color bool) string {
	if !color {
		return string(p)
	}
	if st, ok := platformStyles[p]; ok {
		return st.Render(string(p))
	}
	return string(p)
}

// RelativeTime renders t relative to now: "just now", "3 hours ago", and a
// plain date once it is more than a week old.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute && d > -time.Minute:
		return "just now"
	case d < 7*24*time.Hour:
		return humanize.RelTime(t, now, "ago", "from now")
	default:
		return t.Local().Format("2006-01-02")
	}
}

// Truncate shortens s to width terminal columns.
func Truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// HighlightKeywords wraps case-insensitive matches of query terms in bold
// red ANSI codes.
func HighlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	for _, term := range strings.Fields(query) {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			end := pos + len(term)
			// lowercasing can change byte lengths outside ASCII
			if end > len(text) || !utf8.ValidString(text[pos:end]) || !strings.EqualFold(text[pos:end], term) {
				i = pos + 1
				continue
			}
			replacement := colorBoldRed + text[pos:end] + colorReset
			text = text[:pos] + replacement + text[end:]
			i = pos + len(replacement)
		}
	}
	return text
}

// Encode writes v as indented JSON or YAML.
func Encode(w io.Writer, format Format, v interface{}) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func newTable(color bool, headers ...string) *table.Table {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	if color {
		t = t.BorderStyle(borderStyle)
	}
	return t
}

// Summaries writes a session list in the requested format.
func Summaries(w io.Writer, rows []index.Summary, format Format, opts Options) error {
	if format != FormatTable {
		if rows == nil {
			rows = []index.Summary{}
		}
		return Encode(w, format, rows)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}

	now := opts.now()
	t := newTable(opts.Color, "ID", "PLATFORM", "TITLE", "CWD", "UPDATED", "DURATION", "MSGS")
	for _, r := range rows {
		title := Truncate(r.DisplayTitle(), 50)
		cwd := Truncate(r.Cwd, 40)
		if opts.Color {
			title = HighlightKeywords(title, opts.Query)
			cwd = HighlightKeywords(cwd, opts.Query)
		}
		t.Row(
			Truncate(r.ID, 36),
			PlatformLabel(r.Platform, opts.Color),
			title,
			cwd,
			RelativeTime(r.UpdatedAt, now),
			r.DurationDisplay(),
			fmt.Sprint(r.MessageCount),
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Session writes the full record of one session.
func Session(w io.Writer, s *parse.Session, format Format, opts Options) error {
	if format != FormatTable {
		return Encode(w, format, s)
	}
	_, err := fmt.Fprint(w, SessionDetail(s, opts))
	return err
}

// SessionDetail renders a session as aligned key/value lines.
func SessionDetail(s *parse.Session, opts Options) string {
	now := opts.now()
	label := func(k string) string {
		k = fmt.Sprintf("%-11s", k)
		if opts.Color {
			return dimStyle.Render(k)
		}
		return k
	}
	stamp := func(t time.Time) string {
		return fmt.Sprintf("%s (%s)", t.Local().Format("2006-01-02 15:04:05"), RelativeTime(t, now))
	}
	summary := index.Summary{CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", label("Title"), s.DisplayTitle())
	fmt.Fprintf(&b, "%s %s\n", label("ID"), s.ID)
	fmt.Fprintf(&b, "%s %s\n", label("Platform"), PlatformLabel(s.Platform, opts.Color))
	fmt.Fprintf(&b, "%s %s\n", label("Cwd"), s.Cwd)
	fmt.Fprintf(&b, "%s %s\n", label("File"), s.FilePath)
	fmt.Fprintf(&b, "%s %s\n", label("Created"), stamp(s.CreatedAt))
	fmt.Fprintf(&b, "%s %s\n", label("Updated"), stamp(s.UpdatedAt))
	fmt.Fprintf(&b, "%s %s\n", label("Duration"), summary.DurationDisplay())
	fmt.Fprintf(&b, "%s %d (user %d, assistant %d)\n", label("Messages"),
		s.MessageCount, s.UserMessageCount, s.AssistantMessageCount)
	fmt.Fprintf(&b, "%s %d\n", label("Tool uses"), s.ToolUseCount)
	fmt.Fprintf(&b, "%s %s\n", label("Indexed"), stamp(s.IndexedAt))
	fmt.Fprintf(&b, "%s %s\n", label("Resume"), s.ResumeCommand())
	return b.String()
}

// StatsReport is the combined output of the stats command.
type StatsReport struct {
	Total         int            `json:"total" yaml:"total"`
	ByPlatform    map[string]int `json:"by_platform" yaml:"by_platform"`
	Searches      int            `json:"searches" yaml:"searches"`
	DBPath        string         `json:"db_path" yaml:"db_path"`
	FileSizeBytes int64          `json:"file_size_bytes" yaml:"file_size_bytes"`
}

func NewStatsReport(ss store.SessionStats, ds store.DatabaseStats, dbPath string) StatsReport {
	r := StatsReport{
		Total:         ss.Total,
		ByPlatform:    make(map[string]int, len(ss.ByPlatform)),
		Searches:      ds.SearchHistoryCount,
		DBPath:        dbPath,
		FileSizeBytes: ds.FileSizeBytes,
	}
	for p, n := range ss.ByPlatform {
		r.ByPlatform[string(p)] = n
	}
	return r
}

// Stats writes a StatsReport.
func Stats(w io.Writer, r StatsReport, format Format, opts Options) error {
	if format != FormatTable {
		return Encode(w, format, r)
	}

	names := make([]string, 0, len(r.ByPlatform))
	for name := range r.ByPlatform {
		names = append(names, name)
	}
	sort.Strings(names)

	t := newTable(opts.Color, "PLATFORM", "SESSIONS")
	for _, name := range names {
		t.Row(PlatformLabel(parse.Platform(name), opts.Color), humanize.Comma(int64(r.ByPlatform[name])))
	}
	t.Row("total", humanize.Comma(int64(r.Total)))

	_, err := fmt.Fprintf(w, "%s\nSearches recorded: %s\nDatabase: %s (%s)\n",
		t.Render(), humanize.Comma(int64(r.Searches)), r.DBPath, humanize.Bytes(uint64(r.FileSizeBytes)))
	return err
}

// IndexStats writes the summary line printed after an index run.
func IndexStats(w io.Writer, s index.IndexStats, format Format) error {
	if format != FormatTable {
		return Encode(w, format, s)
	}
	_, err := fmt.Fprintf(w, "Done. %d files scanned: %d added, %d updated, %d unchanged, %d errors in %s\n",
		s.FilesScanned, s.SessionsAdded, s.SessionsUpdated, s.FilesSkipped, s.Errors,
		time.Duration(s.DurationMs)*time.Millisecond)
	return err
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// WrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, skipping ANSI escape sequences when measuring width.
func WrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth && cur.Len() > 0 {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}
	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// Wrap applies WrapLine to every line of text and indents continuation
// lines by indent.
func Wrap(text string, width int, indent string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		parts := WrapLine(line, width)
		out = append(out, parts[0])
		if len(parts) > 1 {
			out = append(out, indentLines(strings.Join(parts[1:], "\n"), indent))
		}
	}
	return strings.Join(out, "\n")
}
