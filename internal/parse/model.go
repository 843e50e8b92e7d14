package parse

import "time"

// Session is the normalized record of one transcript file.
type Session struct {
	ID                    string    `json:"id" yaml:"id"`
	Platform              Platform  `json:"platform" yaml:"platform"`
	Title                 string    `json:"title,omitempty" yaml:"title,omitempty"`
	Cwd                   string    `json:"cwd" yaml:"cwd"`
	FilePath              string    `json:"file_path" yaml:"file_path"`
	FileHash              string    `json:"file_hash" yaml:"file_hash"`
	CreatedAt             time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" yaml:"updated_at"`
	MessageCount          int       `json:"message_count" yaml:"message_count"`
	UserMessageCount      int       `json:"user_message_count" yaml:"user_message_count"`
	AssistantMessageCount int       `json:"assistant_message_count" yaml:"assistant_message_count"`
	ToolUseCount          int       `json:"tool_use_count" yaml:"tool_use_count"`
	IndexedAt             time.Time `json:"indexed_at" yaml:"indexed_at"`
}

// DisplayTitle returns the title, or the id when the session has none.
func (s Session) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.ID
}

// ResumeCommand is the shell command that reopens this session in its tool.
func (s Session) ResumeCommand() string {
	return s.Platform.ResumeCommand(s.ID)
}
