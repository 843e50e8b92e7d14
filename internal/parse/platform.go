package parse

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

type Platform string

const (
	Claude Platform = "claude"
	Codex  Platform = "codex"
	Gemini Platform = "gemini"
	Qwen   Platform = "qwen"
	IFlow  Platform = "iflow"
	Droid  Platform = "droid"
)

// Platforms is the fixed set indexed by a full run, in indexing order.
var Platforms = []Platform{Claude, Codex, Gemini, Qwen, IFlow, Droid}

// descriptor captures everything that differs between platforms.
type descriptor struct {
	// root relative to the home directory
	root []string
	exts []string
	// lenient platforms degrade to an empty event set when the
	// transcript cannot be read as a line stream
	lenient bool
	// trustEvents takes id and cwd from event fields before the path
	trustEvents bool
	// idFromStem derives the fallback id from the filename stem
	idFromStem func(stem string) string
	// resume is the argv that reopens a session, minus the trailing id
	resume []string
}

var descriptors = map[Platform]descriptor{
	Claude: {
		root:        []string{".claude", "projects"},
		exts:        []string{".jsonl"},
		trustEvents: true,
		idFromStem:  plainStem,
		resume:      []string{"claude", "--resume"},
	},
	Codex: {
		root:        []string{".codex", "sessions"},
		exts:        []string{".jsonl"},
		trustEvents: true,
		idFromStem:  extractUUID,
		resume:      []string{"codex", "resume"},
	},
	Gemini: {
		root:       []string{".gemini", "tmp"},
		exts:       []string{".jsonl", ".json"},
		lenient:    true,
		idFromStem: plainStem,
		resume:     []string{"gemini", "--continue"},
	},
	Qwen: {
		root:       []string{".qwen", "sessions"},
		exts:       []string{".jsonl"},
		lenient:    true,
		idFromStem: plainStem,
		resume:     []string{"qwen", "--resume"},
	},
	IFlow: {
		root:       []string{".iflow", "sessions"},
		exts:       []string{".jsonl"},
		lenient:    true,
		idFromStem: plainStem,
		resume:     []string{"iflow", "--resume"},
	},
	Droid: {
		root:       []string{".factory", "sessions"},
		exts:       []string{".jsonl"},
		lenient:    true,
		idFromStem: plainStem,
		resume:     []string{"droid", "--resume"},
	},
}

// ParsePlatform accepts a platform name in any case.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown platform %q", s)
	}
	return p, nil
}

func (p Platform) String() string {
	return string(p)
}

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	_, ok := descriptors[p]
	return ok
}

// DefaultRoot is the platform's well-known session directory under home.
func (p Platform) DefaultRoot(home string) string {
	d, ok := descriptors[p]
	if !ok {
		return ""
	}
	return filepath.Join(append([]string{home}, d.root...)...)
}

// ResumeArgs is the argv that reopens session id, or nil for an unknown
// platform. The id is always a single argument.
func (p Platform) ResumeArgs(id string) []string {
	d, ok := descriptors[p]
	if !ok {
		return nil
	}
	args := make([]string, 0, len(d.resume)+1)
	return append(append(args, d.resume...), id)
}

// ResumeCommand renders ResumeArgs as a shell command line. Ids come from
// transcript content and file names, so every word is quoted as needed.
func (p Platform) ResumeCommand(id string) string {
	args := p.ResumeArgs(id)
	if args == nil {
		return ShellQuote(id)
	}
	words := make([]string, len(args))
	for i, a := range args {
		words[i] = ShellQuote(a)
	}
	return strings.Join(words, " ")
}

// ShellQuote single-quotes s unless it is made of safe characters only.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:@%+=,", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// IsSessionFile applies the platform's extension rule.
func IsSessionFile(path string, p Platform) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range descriptors[p].exts {
		if ext == e {
			return true
		}
	}
	return false
}

func plainStem(stem string) string {
	return stem
}

// uuidRe matches a standard UUID (8-4-4-4-12 hex pattern).
var uuidRe = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// extractUUID pulls the UUID out of Codex rollout names such as
// rollout-2026-01-26T17-30-22-019bf9a3-d433-7fc1-8214-b82613804964,
// returning the stem unchanged if none is found.
func extractUUID(stem string) string {
	if m := uuidRe.FindString(stem); m != "" {
		return m
	}
	return stem
}
