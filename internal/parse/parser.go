package parse

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zuo-Peng/ai-session-index/internal/logger"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

const (
	titleMaxRunes = 50
	titleEllipsis = "..."
)

var now = time.Now

// ParseFile reads one transcript and normalizes it into a Session.
func ParseFile(path string, p Platform) (*Session, error) {
	d, ok := descriptors[p]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q", p)
	}
	return parseWith(p, d, path)
}

func parseWith(p Platform, d descriptor, path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Platform: p, Op: "open", Err: err}
	}
	data, err := io.ReadAll(f)
	f.Close()
	var events []SessionEvent
	switch {
	case err == nil:
		events = readEvents(path, data)
	case d.lenient:
		logger.Debugf("%s transcript %s unreadable, using empty event set: %v", p, path, err)
		data = nil
	default:
		return nil, &ParseError{Path: path, Platform: p, Op: "read", Err: err}
	}

	s := &Session{
		Platform:  p,
		FilePath:  path,
		FileHash:  hashBytes(data),
		ID:        resolveID(d, path, events),
		Cwd:       resolveCwd(d, path, events),
		Title:     extractTitle(events),
		IndexedAt: now().UTC(),
	}
	s.CreatedAt, s.UpdatedAt = resolveTimes(path, events)
	s.UserMessageCount, s.AssistantMessageCount, s.ToolUseCount = countMessages(events)
	s.MessageCount = s.UserMessageCount + s.AssistantMessageCount
	return s, nil
}

// readEvents decodes every line of data. Undecodable lines are dropped
// one at a time; lines have no length limit since data is already in memory.
func readEvents(path string, data []byte) []SessionEvent {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if events, ok := decodeJSONDocument(data); ok {
			return events
		}
	}

	var events []SessionEvent
	for i, raw := range bytes.Split(data, []byte{'\n'}) {
		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		ev, err := decodeEvent(line)
		if err != nil {
			logger.Tracef("%s:%d: dropped line: %v", path, i+1, err)
			continue
		}
		events = append(events, ev)
	}
	logger.Tracef("decoded %d events from %s", len(events), path)
	return events
}

// decodeJSONDocument handles whole-file JSON: a bare array of events or an
// object holding them under "messages".
func decodeJSONDocument(data []byte) ([]SessionEvent, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		var doc struct {
			Messages []json.RawMessage `json:"messages"`
		}
		if err := json.Unmarshal(data, &doc); err != nil || doc.Messages == nil {
			return nil, false
		}
		items = doc.Messages
	}

	events := make([]SessionEvent, 0, len(items))
	for _, item := range items {
		ev, err := decodeEvent(item)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, true
}

func resolveID(d descriptor, path string, events []SessionEvent) string {
	if d.trustEvents {
		for _, ev := range events {
			if id := ev.sessionIDField(); id != "" {
				return id
			}
		}
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if stem != "" {
		if id := d.idFromStem(stem); id != "" {
			return id
		}
	}
	id := uuid.NewString()
	logger.Debugf("no session id for %s, generated %s", path, id)
	return id
}

func resolveCwd(d descriptor, path string, events []SessionEvent) string {
	if d.trustEvents {
		for _, ev := range events {
			if cwd := ev.cwdField(); cwd != "" {
				return cwd
			}
		}
	}
	dir := filepath.Dir(path)
	if dir == "." && !strings.ContainsRune(path, filepath.Separator) {
		logger.Debugf("no working directory for %s", path)
		return ""
	}
	return dir
}

func extractTitle(events []SessionEvent) string {
	for _, ev := range events {
		if ev.IsUser() {
			return truncateTitle(strings.TrimSpace(ev.MessageText()))
		}
	}
	return ""
}

func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= titleMaxRunes {
		return s
	}
	keep := titleMaxRunes - len(titleEllipsis)
	return string(runes[:keep]) + titleEllipsis
}

// resolveTimes returns the earliest and latest event timestamps, falling
// back to the file's modification time and then to the current time.
func resolveTimes(path string, events []SessionEvent) (time.Time, time.Time) {
	var first, last time.Time
	for _, ev := range events {
		if ev.Timestamp == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, ev.Timestamp)
		if err != nil {
			continue
		}
		t = t.UTC()
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if last.IsZero() || t.After(last) {
			last = t
		}
	}
	if !first.IsZero() {
		return first, last
	}

	info, err := os.Stat(path)
	if err != nil {
		n := now().UTC()
		return n, n
	}
	mod := info.ModTime().UTC()
	return mod, mod
}

func countMessages(events []SessionEvent) (user, assistant, tool int) {
	for _, ev := range events {
		if ev.IsUser() {
			user++
		} else if ev.IsAssistant() {
			assistant++
		}
		if ev.IsToolUse() {
			tool++
		}
	}
	return user, assistant, tool
}

// HashFile returns the content hash used for change detection.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return hashBytes(data), nil
}

func hashBytes(data []byte) string {
	sum := xxh3.Hash128(data).Bytes()
	return hex.EncodeToString(sum[:])
}
