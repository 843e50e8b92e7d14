package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTranscript writes lines as a JSONL file at dir/name, creating parent
// directories, and returns the full path.
func WriteTranscript(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "create fixture directory")
	body := strings.Join(lines, "\n")
	if len(lines) > 0 {
		body += "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644), "write fixture %s", path)
	return path
}

// RemoveFile deletes a fixture, failing the test on error.
func RemoveFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.Remove(path), "remove fixture %s", path)
}
