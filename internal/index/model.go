package index

import (
	"fmt"
	"time"

	"github.com/Zuo-Peng/ai-session-index/internal/parse"
	"github.com/Zuo-Peng/ai-session-index/internal/store"
)

var now = time.Now

// Filter selects sessions for List. Zero values mean no constraint.
type Filter struct {
	Platform  parse.Platform
	From      time.Time
	To        time.Time
	CwdPrefix string
	Limit     int
	Offset    int
	// TodayOnly keeps sessions created since local midnight.
	TodayOnly bool
}

func (f Filter) storeFilter(at time.Time) store.Filter {
	sf := store.Filter{
		Platform:  f.Platform,
		From:      f.From,
		To:        f.To,
		CwdPrefix: f.CwdPrefix,
		Limit:     f.Limit,
		Offset:    f.Offset,
	}
	if f.TodayOnly {
		y, m, d := at.Date()
		midnight := time.Date(y, m, d, 0, 0, 0, 0, at.Location())
		if sf.From.Before(midnight) {
			sf.From = midnight
		}
	}
	return sf
}

// Summary is the list/search view of a session.
type Summary struct {
	ID           string         `json:"id" yaml:"id"`
	Platform     parse.Platform `json:"platform" yaml:"platform"`
	Title        string         `json:"title,omitempty" yaml:"title,omitempty"`
	Cwd          string         `json:"cwd" yaml:"cwd"`
	CreatedAt    time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" yaml:"updated_at"`
	MessageCount int            `json:"message_count" yaml:"message_count"`
}

func toSummaries(rows []store.SummaryRow) []Summary {
	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, Summary{
			ID:           r.ID,
			Platform:     r.Platform,
			Title:        r.Title,
			Cwd:          r.Cwd,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
			MessageCount: r.MessageCount,
		})
	}
	return out
}

// DisplayTitle falls back to the id for untitled sessions.
func (s Summary) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.ID
}

// DurationDisplay renders the span between first and last activity as
// "42m" or "3h 5m".
func (s Summary) DurationDisplay() string {
	minutes := int(s.UpdatedAt.Sub(s.CreatedAt).Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func (s Summary) ResumeCommand() string {
	return s.Platform.ResumeCommand(s.ID)
}
