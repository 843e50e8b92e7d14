package open

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Zuo-Peng/ai-session-index/internal/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapGetter map[string]*parse.Session

func (m mapGetter) Get(id string) (*parse.Session, error) {
	if id == "broken" {
		return nil, errors.New("decode failed")
	}
	return m[id], nil
}

func TestLookup(t *testing.T) {
	g := mapGetter{"abc": {ID: "abc", Platform: parse.Claude}}

	s, err := Lookup(g, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", s.ID)

	_, err = Lookup(g, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Lookup(g, "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestEditorCommand(t *testing.T) {
	tests := []struct {
		editor string
		want   []string
	}{
		{"vim", []string{"vim", "+7", "/f.jsonl"}},
		{"/usr/bin/nvim", []string{"/usr/bin/nvim", "+7", "/f.jsonl"}},
		{"code", []string{"code", "--goto", "/f.jsonl:7"}},
		{"less", []string{"less", "+7", "/f.jsonl"}},
		{"nano", []string{"nano", "/f.jsonl"}},
	}
	for _, tt := range tests {
		t.Run(tt.editor, func(t *testing.T) {
			assert.Equal(t, tt.want, editorCommand(tt.editor, "/f.jsonl", 7).Args)
		})
	}
}

func TestTranscript_MissingFile(t *testing.T) {
	err := Transcript(&parse.Session{FilePath: filepath.Join(t.TempDir(), "gone.jsonl")}, 1)
	assert.ErrorContains(t, err, "file not found")
}

func TestResumeLine(t *testing.T) {
	s := &parse.Session{ID: "019bf9a3-d433-7fc1-8214-b82613804964", Platform: parse.Codex, Cwd: "/work/my app"}
	assert.Equal(t, "cd '/work/my app' && codex resume 019bf9a3-d433-7fc1-8214-b82613804964", ResumeLine(s))

	s = &parse.Session{ID: "x", Platform: parse.Claude}
	assert.Equal(t, "claude --resume x", ResumeLine(s))
}

func TestResumeLine_QuotesHostileID(t *testing.T) {
	s := &parse.Session{ID: "x; touch /tmp/owned; #", Platform: parse.Claude, Cwd: "/w"}
	assert.Equal(t, `cd /w && claude --resume 'x; touch /tmp/owned; #'`, ResumeLine(s))

	s = &parse.Session{ID: "$(id)", Platform: parse.Gemini}
	assert.Equal(t, `gemini --continue '$(id)'`, ResumeLine(s))
}

// fakeTool puts an executable named name on PATH that writes its arguments,
// one per line, to the returned file.
func fakeTool(t *testing.T, name string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	bin := t.TempDir()
	out := filepath.Join(bin, "args.txt")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > \"$FAKE_TOOL_OUT\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(bin, name), []byte(script), 0o755))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("FAKE_TOOL_OUT", out)
	return out
}

func TestResume_PassesIDAsSingleArgument(t *testing.T) {
	out := fakeTool(t, "claude")
	cwd := t.TempDir()
	marker := filepath.Join(cwd, "owned")
	id := "x; touch " + marker + "; #"

	err := Resume(context.Background(), &parse.Session{ID: id, Platform: parse.Claude, Cwd: cwd})
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"--resume", id}, strings.Split(strings.TrimSuffix(string(got), "\n"), "\n"))
	assert.NoFileExists(t, marker)
}

func TestResume_UnknownPlatform(t *testing.T) {
	err := Resume(context.Background(), &parse.Session{ID: "a", Platform: parse.Platform("cursor")})
	assert.ErrorContains(t, err, "no resume command")
}

func TestCopyResume(t *testing.T) {
	var copied string
	orig := writeClipboard
	t.Cleanup(func() { writeClipboard = orig })

	writeClipboard = func(text string) error {
		copied = text
		return nil
	}
	line, err := CopyResume(&parse.Session{ID: "q1", Platform: parse.Qwen, Cwd: "/w"})
	require.NoError(t, err)
	assert.Equal(t, "cd /w && qwen --resume q1", line)
	assert.Equal(t, line, copied)

	writeClipboard = func(string) error { return errors.New("no display") }
	line, err = CopyResume(&parse.Session{ID: "q1", Platform: parse.Qwen})
	assert.Error(t, err)
	assert.Equal(t, "qwen --resume q1", line)
}
