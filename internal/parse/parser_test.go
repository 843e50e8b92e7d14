package parse

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Zuo-Peng/ai-session-index/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFile_TitleTruncatesLongASCII(t *testing.T) {
	msg := strings.Repeat("a", 80)
	path := testutil.WriteTranscript(t, t.TempDir(), "s.jsonl",
		`{"type":"user","message":"`+msg+`"}`)

	s, err := ParseFile(path, Claude)
	require.NoError(t, err)

	assert.Equal(t, 50, utf8.RuneCountInString(s.Title))
	assert.True(t, strings.HasSuffix(s.Title, "..."))
	assert.Equal(t, strings.Repeat("a", 47)+"...", s.Title)
}

func TestParseFile_TitleTruncatesOnRuneBoundaries(t *testing.T) {
	msg := strings.Repeat("日本語", 30)
	path := testutil.WriteTranscript(t, t.TempDir(), "s.jsonl",
		`{"type":"user","message":"`+msg+`"}`)

	s, err := ParseFile(path, Claude)
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(s.Title))
	assert.Equal(t, 50, utf8.RuneCountInString(s.Title))
	assert.True(t, strings.HasPrefix(msg, strings.TrimSuffix(s.Title, "...")))
}

func TestParseFile_TitleKeepsShortTextAndTrims(t *testing.T) {
	path := testutil.WriteTranscript(t, t.TempDir(), "s.jsonl",
		`{"type":"assistant","message":"not a title"}`,
		`{"type":"user","message":"  fix the build  "}`,
		`{"type":"user","message":"second"}`)

	s, err := ParseFile(path, Claude)
	require.NoError(t, err)
	assert.Equal(t, "fix the build", s.Title)
}

func TestParseFile_TitleFromContentBlocks(t *testing.T) {
	path := testutil.WriteTranscript(t, t.TempDir(), "s.jsonl",
		`{"type":"user","message":{"role":"user","content":[{"type":"text","text":"explain"},{"type":"image"},{"type":"text","text":"this"}]}}`)

	s, err := ParseFile(path, Claude)
	require.NoError(t, err)
	assert.Equal(t, "explain\nthis", s.Title)
}

func TestParseFile_IDFallsBackToFilenameStem(t *testing.T) {
	path := testutil.WriteTranscript(t, t.TempDir(), "abc123.jsonl",
		`{"type":"user","message":"hi"}`,
		`{"type":"assistant","message":"hello"}`)

	s, err := ParseFile(path, Claude)
	require.NoError(t, err)
	assert.Equal(t, "abc123", s.ID)
}

func TestParseFile_IDGeneratedWhenStemEmpty(t *testing.T) {
	path := testutil.WriteTranscript(t, t.TempDir(), ".jsonl",
		`{"type":"user","message":"hi"}`)

	s, err := ParseFile(path, Claude)
	require.NoError(t, err)
	_, err = uuid.Parse(s.ID)
	assert.NoError(t, err)
}

func TestParseFile_StrictPlatformsTrustEventFields(t *testing.T) {
	dir := t.TempDir()

	t.Run("claude camelCase session id", func(t *testing.T) {
		path := testutil.WriteTranscript(t, dir, "file-stem.jsonl",
			`{"type":"summary","summary":"x"}`,
			`{"type":"user","sessionId":"claude-1","cwd":"/work/app","message":{"role":"user","content":"hi"}}`)

		s, err := ParseFile(path, Claude)
		require.NoError(t, err)
		assert.Equal(t, "claude-1", s.ID)
		assert.Equal(t, "/work/app", s.Cwd)
	})

	t.Run("snake case session id wins", func(t *testing.T) {
		path := testutil.WriteTranscript(t, dir, "other.jsonl",
			`{"type":"user","session_id":"snake","sessionId":"camel","message":"hi"}`)

		s, err := ParseFile(path, Claude)
		require.NoError(t, err)
		assert.Equal(t, "snake", s.ID)
	})

	t.Run("codex session_meta payload", func(t *testing.T) {
		path := testutil.WriteTranscript(t, dir, "rollout-x.jsonl",
			`{"timestamp":"2025-01-01T10:00:00Z","type":"session_meta","payload":{"id":"meta-id","cwd":"/repo"}}`)

		s, err := ParseFile(path, Codex)
		require.NoError(t, err)
		assert.Equal(t, "meta-id", s.ID)
		assert.Equal(t, "/repo", s.Cwd)
	})

	t.Run("codex rollout name yields uuid", func(t *testing.T) {
		path := testutil.WriteTranscript(t, dir,
			"rollout-2026-01-26T17-30-22-019bf9a3-d433-7fc1-8214-b82613804964.jsonl",
			`{"type":"user","message":"hi"}`)

		s, err := ParseFile(path, Codex)
		require.NoError(t, err)
		assert.Equal(t, "019bf9a3-d433-7fc1-8214-b82613804964", s.ID)
		assert.Equal(t, dir, s.Cwd)
	})
}

func TestParseFile_LenientPlatformsUsePathIdentity(t *testing.T) {
	for _, p := range []Platform{Gemini, Qwen, IFlow, Droid} {
		t.Run(string(p), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "project")
			path := testutil.WriteTranscript(t, dir, "sess-9.jsonl",
				`{"type":"user","session_id":"ignored","cwd":"/ignored","message":"hi"}`)

			s, err := ParseFile(path, p)
			require.NoError(t, err)
			assert.Equal(t, "sess-9", s.ID)
			assert.Equal(t, dir, s.Cwd)
			assert.Equal(t, p, s.Platform)
			assert.Equal(t, 1, s.UserMessageCount)
		})
	}
}

func TestParseFile_MalformedLinesDropped(t *testing.T) {
	path := testutil.WriteTranscript(t, t.TempDir(), "s.jsonl",
		`{"type":"user","message":"one"}`,
		`{not json`,
		``,
		`   `,
		`[1,2,3]`,
		`null`,
		`{"type":"user","role":42}`,
		`{"type":"assistant","message":"two"}`)

	s, err := ParseFile(path, Claude)
	require.NoError(t, err)
	assert.Equal(t, 1, s.UserMessageCount)
	assert.Equal(t, 1, s.AssistantMessageCount)
	assert.Equal(t, 2, s.MessageCount)
}

func TestParseFile_CountsMessagesAndTools(t *testing.T) {
	path := testutil.WriteTranscript(t, t.TempDir(), "s.jsonl",
		`{"type":"user","message":"a"}`,
		`{"type":"human","message":"b"}`,
		`{"type":"event","role":"user"}`,
		`{"type":"event","message":{"role":"user","content":"c"}}`,
		`{"type":"assistant","message":"d"}`,
		`{"type":"text","message":"e"}`,
		`{"type":"event","message":{"role":"assistant","content":"f"}}`,
		`{"type":"tool_use","tool_name":"bash"}`,
		`{"type":"tool_call"}`,
		`{"type":"assistant","tool_name":"read"}`,
		`{"type":"system","message":"ignored"}`)

	s, err := ParseFile(path, Claude)
	require.NoError(t, err)
	assert.Equal(t, 4, s.UserMessageCount)
	assert.Equal(t, 4, s.AssistantMessageCount)
	assert.Equal(t, 8, s.MessageCount)
	assert.Equal(t, 3, s.ToolUseCount)
}

func TestParseFile_TimestampsUseEarliestAndLatest(t *testing.T) {
	path := testutil.WriteTranscript(t, t.TempDir(), "s.jsonl",
		`{"type":"user","timestamp":"2025-03-01T12:00:00Z"}`,
		`{"type":"assistant","timestamp":"2025-03-01T09:00:00+00:00"}`,
		`{"type":"assistant","timestamp":"yesterday"}`,
		`{"type":"assistant","timestamp":"2025-03-01T15:30:00.250+02:00"}`)

	s, err := ParseFile(path, Claude)
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC).Equal(s.CreatedAt))
	assert.True(t, time.Date(2025, 3, 1, 13, 30, 0, 250_000_000, time.UTC).Equal(s.UpdatedAt))
	assert.Equal(t, time.UTC, s.CreatedAt.Location())
}

func TestParseFile_TimestampsFallBackToModTime(t *testing.T) {
	path := testutil.WriteTranscript(t, t.TempDir(), "s.jsonl",
		`{"type":"user","message":"no time"}`)
	mod := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mod, mod))

	s, err := ParseFile(path, Claude)
	require.NoError(t, err)
	assert.True(t, s.CreatedAt.Equal(mod))
	assert.True(t, s.UpdatedAt.Equal(mod))
}

func TestParseFile_HugeLineDropsOnlyItself(t *testing.T) {
	huge := strings.Repeat("x", 11*1024*1024)
	lines := []string{
		`{"type":"user","message":"hello world"}`,
		`{"type":"assistant","message":"` + huge + `"}`,
		`{"type":"assistant","message":"` + huge,
		`{"type":"assistant","message":"done"}`,
	}
	dir := t.TempDir()

	for _, p := range []Platform{Claude, Codex, Gemini, Qwen} {
		path := testutil.WriteTranscript(t, dir, string(p)+".jsonl", lines...)
		s, err := ParseFile(path, p)
		require.NoError(t, err, p)
		assert.Equal(t, "hello world", s.Title, p)
		assert.Equal(t, 1, s.UserMessageCount, p)
		assert.Equal(t, 2, s.AssistantMessageCount, p)
	}
}

func TestParseFile_ReadFailureStrictVsLenient(t *testing.T) {
	// opening a directory succeeds, reading it does not
	dir := filepath.Join(t.TempDir(), "g1.jsonl")
	require.NoError(t, os.Mkdir(dir, 0o755))

	_, err := ParseFile(dir, Claude)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "read", perr.Op)

	s, err := ParseFile(dir, Gemini)
	require.NoError(t, err)
	assert.Equal(t, "g1", s.ID)
	assert.Empty(t, s.Title)
	assert.Zero(t, s.MessageCount)
	assert.NotEmpty(t, s.FileHash)
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestParseFile_MissingFile(t *testing.T) {
	for _, p := range []Platform{Claude, Gemini} {
		_, err := ParseFile(filepath.Join(t.TempDir(), "gone.jsonl"), p)
		var perr *ParseError
		require.True(t, errors.As(err, &perr), p)
		assert.Equal(t, "open", perr.Op)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	}
}

func TestParseFile_UnknownPlatform(t *testing.T) {
	_, err := ParseFile("x.jsonl", Platform("cursor"))
	assert.Error(t, err)
}

func TestParseFile_GeminiJSONDocuments(t *testing.T) {
	dir := t.TempDir()

	t.Run("array", func(t *testing.T) {
		path := testutil.WriteTranscript(t, dir, "chat-1.json",
			`[{"type":"user","message":"from array"},{"type":"assistant","message":"ok"},"junk"]`)
		s, err := ParseFile(path, Gemini)
		require.NoError(t, err)
		assert.Equal(t, "from array", s.Title)
		assert.Equal(t, 2, s.MessageCount)
	})

	t.Run("messages wrapper", func(t *testing.T) {
		path := testutil.WriteTranscript(t, dir, "chat-2.json",
			`{"sessionId":"x","messages":[{"type":"user","message":"wrapped"}]}`)
		s, err := ParseFile(path, Gemini)
		require.NoError(t, err)
		assert.Equal(t, "wrapped", s.Title)
		assert.Equal(t, "chat-2", s.ID)
	})

	t.Run("jsonl content in json file", func(t *testing.T) {
		path := testutil.WriteTranscript(t, dir, "chat-3.json",
			`{"type":"user","message":"line one"}`,
			`{"type":"assistant","message":"line two"}`)
		s, err := ParseFile(path, Gemini)
		require.NoError(t, err)
		assert.Equal(t, 2, s.MessageCount)
	})
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteTranscript(t, dir, "s.jsonl", `{"type":"user","message":"hi"}`)

	h1, err := HashFile(path)
	require.NoError(t, err)
	assert.Len(t, h1, 32)

	s, err := ParseFile(path, Claude)
	require.NoError(t, err)
	assert.Equal(t, h1, s.FileHash)

	testutil.WriteTranscript(t, dir, "s.jsonl", `{"type":"user","message":"hi"}`, `{"type":"assistant","message":"yo"}`)
	h2, err := HashFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	_, err = HashFile(filepath.Join(dir, "missing.jsonl"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestParseFile_EmptyFile(t *testing.T) {
	path := testutil.WriteTranscript(t, t.TempDir(), "empty.jsonl")

	s, err := ParseFile(path, Codex)
	require.NoError(t, err)
	assert.Equal(t, "empty", s.ID)
	assert.Empty(t, s.Title)
	assert.Zero(t, s.MessageCount)
	assert.False(t, s.CreatedAt.IsZero())
}
