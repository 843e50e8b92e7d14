package search

import (
	"strings"

	"github.com/Zuo-Peng/ai-session-index/internal/index"
	"github.com/Zuo-Peng/ai-session-index/internal/parse"
)

const defaultLimit = 10

// Searcher is the part of the indexer that answers substring queries.
type Searcher interface {
	Search(query string, limit int) ([]index.Summary, error)
}

type Result struct {
	index.Summary `yaml:",inline"`
	// Field is "title" or "cwd", whichever matched first.
	Field   string `json:"field" yaml:"field"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

type Options struct {
	Query    string
	Platform parse.Platform // "" = all
	Limit    int
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if idx < 0 || len(lower) != len(text) {
		// no match, return head
		if len([]rune(text)) > contextChars*2 {
			return string([]rune(text)[:contextChars*2]) + "..."
		}
		return text
	}
	runes := []rune(text)
	qRunes := []rune(query)
	// find rune position of idx
	runePos := len([]rune(text[:idx]))
	start := runePos - contextChars
	if start < 0 {
		start = 0
	}
	end := runePos + len(qRunes) + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

func matchField(s index.Summary, query string) (string, string) {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(s.Title), q) {
		return "title", makeSnippet(s.Title, query, 30)
	}
	return "cwd", makeSnippet(s.Cwd, query, 30)
}

// Search runs a substring query over titles and working directories. The
// platform filter is applied after the query, so the store is asked for
// every match whenever one is set.
func Search(s Searcher, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}

	fetch := opts.Limit
	if opts.Platform != "" {
		fetch = 0
	}
	rows, err := s.Search(opts.Query, fetch)
	if err != nil {
		return nil, err
	}

	// one result per session id; the newest row wins
	seen := make(map[string]bool)
	var results []Result
	for _, r := range rows {
		if opts.Platform != "" && r.Platform != opts.Platform {
			continue
		}
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true

		field, snippet := matchField(r, opts.Query)
		results = append(results, Result{Summary: r, Field: field, Snippet: snippet})
		if len(results) >= opts.Limit {
			break
		}
	}
	return results, nil
}

// Summaries strips the match details from results.
func Summaries(results []Result) []index.Summary {
	out := make([]index.Summary, 0, len(results))
	for _, r := range results {
		out = append(out, r.Summary)
	}
	return out
}
