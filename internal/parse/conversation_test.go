package parse

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Zuo-Peng/ai-session-index/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConversation(t *testing.T) {
	path := testutil.WriteTranscript(t, t.TempDir(), "c.jsonl",
		`{"type":"user","message":"  first question  ","timestamp":"2025-03-01T10:00:00Z"}`,
		`{"type":"tool_use","tool_name":"bash"}`,
		`not json`,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"answer"},{"type":"tool_use"}]}}`,
		`{"type":"user","message":""}`,
		`{"role":"user","message":{"text":"follow up"}}`)

	msgs, err := ReadConversation(path)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, Message{Role: RoleUser, Text: "first question", Timestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}, msgs[0])
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, "answer", msgs[1].Text)
	assert.True(t, msgs[1].Timestamp.IsZero())
	assert.Equal(t, "follow up", msgs[2].Text)
}

func TestReadConversation_Errors(t *testing.T) {
	_, err := ReadConversation(filepath.Join(t.TempDir(), "missing.jsonl"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "open", pe.Op)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	dir := filepath.Join(t.TempDir(), "dir.jsonl")
	require.NoError(t, os.Mkdir(dir, 0o755))
	_, err = ReadConversation(dir)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "read", pe.Op)
}

func TestReadConversation_HugeLine(t *testing.T) {
	huge := strings.Repeat("y", 11*1024*1024)
	path := testutil.WriteTranscript(t, t.TempDir(), "big.jsonl",
		`{"type":"user","message":"q"}`,
		`{"type":"assistant","message":"`+huge+`"}`,
		`{"type":"user","message":"next"}`)

	msgs, err := ReadConversation(path)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Len(t, msgs[1].Text, len(huge))
	assert.Equal(t, "next", msgs[2].Text)
}
