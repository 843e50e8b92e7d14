package parse

import (
	"io"
	"os"
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one user or assistant turn of a transcript.
type Message struct {
	Role      string
	Text      string
	Timestamp time.Time // zero when the event carried none
}

// ReadConversation returns the non-empty user and assistant turns of a
// transcript in file order. Unlike ParseFile it never degrades: a file
// that cannot be opened or read is an error for every platform.
func ReadConversation(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Op: "open", Err: err}
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return nil, &ParseError{Path: path, Op: "read", Err: err}
	}
	events := readEvents(path, data)

	var out []Message
	for _, ev := range events {
		var role string
		switch {
		case ev.IsUser():
			role = RoleUser
		case ev.IsAssistant():
			role = RoleAssistant
		default:
			continue
		}
		text := strings.TrimSpace(ev.MessageText())
		if text == "" {
			continue
		}
		m := Message{Role: role, Text: text}
		if t, err := time.Parse(time.RFC3339Nano, ev.Timestamp); err == nil {
			m.Timestamp = t.UTC()
		}
		out = append(out, m)
	}
	return out, nil
}
