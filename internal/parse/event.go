package parse

import (
	"encoding/json"
	"strings"
)

// SessionEvent is one decoded transcript line. Fields that a platform
// does not emit are left empty.
type SessionEvent struct {
	Type      string          `json:"type"`
	Role      string          `json:"role"`
	Message   json.RawMessage `json:"message"`
	Timestamp string          `json:"timestamp"`
	ToolName  string          `json:"tool_name"`
	SessionID string          `json:"session_id"`
	Cwd       string          `json:"cwd"`

	// Claude writes sessionId, Codex nests id/cwd in a session_meta payload.
	SessionIDCamel string          `json:"sessionId"`
	Payload        json.RawMessage `json:"payload"`
}

type messageObject struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Text    json.RawMessage `json:"text"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type sessionMetaPayload struct {
	ID  string `json:"id"`
	Cwd string `json:"cwd"`
}

// decodeEvent decodes a single line. Only JSON objects are events.
func decodeEvent(raw []byte) (SessionEvent, error) {
	var ev SessionEvent
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		return ev, errNotObject
	}
	err := json.Unmarshal(raw, &ev)
	return ev, err
}

func (e SessionEvent) messageObject() (messageObject, bool) {
	var m messageObject
	raw := strings.TrimSpace(string(e.Message))
	if !strings.HasPrefix(raw, "{") {
		return m, false
	}
	if err := json.Unmarshal(e.Message, &m); err != nil {
		return m, false
	}
	return m, true
}

func (e SessionEvent) messageRole() string {
	if m, ok := e.messageObject(); ok {
		return m.Role
	}
	return ""
}

// IsUser reports whether the event is a user message.
func (e SessionEvent) IsUser() bool {
	if e.Role == "user" {
		return true
	}
	if e.Type == "user" || e.Type == "human" {
		return true
	}
	return e.messageRole() == "user"
}

// IsAssistant reports whether the event is an assistant message.
func (e SessionEvent) IsAssistant() bool {
	if e.Role == "assistant" {
		return true
	}
	if e.Type == "assistant" || e.Type == "text" {
		return true
	}
	return e.messageRole() == "assistant"
}

// IsToolUse is independent of the user/assistant classification.
func (e SessionEvent) IsToolUse() bool {
	return e.Type == "tool_use" || e.Type == "tool_call" || e.ToolName != ""
}

// MessageText extracts the text of the message payload: a plain string,
// or the content/text field of an object. Content given as an array of
// blocks yields its text blocks joined by newlines.
func (e SessionEvent) MessageText() string {
	var s string
	if err := json.Unmarshal(e.Message, &s); err == nil {
		return s
	}
	m, ok := e.messageObject()
	if !ok {
		return ""
	}
	if t := rawText(m.Content); t != "" {
		return t
	}
	return rawText(m.Text)
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var parts []string
		for _, b := range blocks {
			if b.Type == "text" && b.Text != "" {
				parts = append(parts, b.Text)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

func (e SessionEvent) sessionMeta() (sessionMetaPayload, bool) {
	var p sessionMetaPayload
	if e.Type != "session_meta" || len(e.Payload) == 0 {
		return p, false
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, false
	}
	return p, true
}

// sessionIDField returns the session id carried by the event, if any.
func (e SessionEvent) sessionIDField() string {
	if e.SessionID != "" {
		return e.SessionID
	}
	if e.SessionIDCamel != "" {
		return e.SessionIDCamel
	}
	if p, ok := e.sessionMeta(); ok {
		return p.ID
	}
	return ""
}

func (e SessionEvent) cwdField() string {
	if e.Cwd != "" {
		return e.Cwd
	}
	if p, ok := e.sessionMeta(); ok {
		return p.Cwd
	}
	return ""
}
