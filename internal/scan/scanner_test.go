package scan

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Zuo-Peng/ai-session-index/internal/parse"
	"github.com/Zuo-Peng/ai-session-index/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDirectory_RecursesAndFiltersByExtension(t *testing.T) {
	root := t.TempDir()
	a := testutil.WriteTranscript(t, root, "a.jsonl", `{}`)
	b := testutil.WriteTranscript(t, root, "proj/deep/b.jsonl", `{}`)
	g := testutil.WriteTranscript(t, root, "proj/c.json", `[]`)
	testutil.WriteTranscript(t, root, "notes.txt", "x")

	files, err := ScanDirectory(root, parse.Claude)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, files)

	files, err = ScanDirectory(root, parse.Gemini)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b, g}, files)
}

func TestScanDirectory_MissingRootIsError(t *testing.T) {
	_, err := ScanDirectory(filepath.Join(t.TempDir(), "nope"), parse.Codex)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScanDirectory_SkipsUnreadableSubdirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	ok := testutil.WriteTranscript(t, root, "ok/a.jsonl", `{}`)
	testutil.WriteTranscript(t, root, "locked/b.jsonl", `{}`)
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	files, err := ScanDirectory(root, parse.Claude)
	require.NoError(t, err)
	assert.Equal(t, []string{ok}, files)
}

func TestRoots_SessionDir(t *testing.T) {
	home := t.TempDir()
	roots := DefaultRoots(home)
	require.NoError(t, os.MkdirAll(roots[parse.Claude], 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(roots[parse.Codex]), 0o755))
	require.NoError(t, os.WriteFile(roots[parse.Codex], []byte("file"), 0o644))

	dir, ok := roots.SessionDir(parse.Claude)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(home, ".claude", "projects"), dir)

	_, ok = roots.SessionDir(parse.Codex)
	assert.False(t, ok, "a plain file is not a session dir")

	_, ok = roots.SessionDir(parse.Gemini)
	assert.False(t, ok)

	_, ok = Roots{}.SessionDir(parse.Claude)
	assert.False(t, ok)
}
