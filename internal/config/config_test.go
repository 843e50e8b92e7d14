package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Zuo-Peng/ai-session-index/internal/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile_MissingFileGivesDefaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := LoadFile(filepath.Join(home, "nope.toml"), home)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".config", "ais", "ais.db"), cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)

	roots, err := cfg.ScanRoots()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".claude", "projects"), roots[parse.Claude])
	assert.Len(t, roots, len(parse.Platforms))

	platforms, err := cfg.EnabledPlatforms()
	require.NoError(t, err)
	assert.Empty(t, platforms)
}

func TestLoadFile_Overrides(t *testing.T) {
	home := "/home/tester"
	path := writeConfig(t, `
db_path = "~/data/ais.db"
log_level = "debug"
platforms = ["claude", "Gemini"]
codex_root = "~/legacy-codex"

[roots]
gemini = "~/g"
claude = "/srv/claude"
`)

	cfg, err := LoadFile(path, home)
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/data/ais.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)

	roots, err := cfg.ScanRoots()
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/g", roots[parse.Gemini])
	assert.Equal(t, "/srv/claude", roots[parse.Claude])
	assert.Equal(t, "/home/tester/legacy-codex", roots[parse.Codex])
	assert.Equal(t, "/home/tester/.qwen/sessions", roots[parse.Qwen])

	platforms, err := cfg.EnabledPlatforms()
	require.NoError(t, err)
	assert.Equal(t, []parse.Platform{parse.Claude, parse.Gemini}, platforms)
}

func TestLoadFile_RootsTableWinsOverLegacyKey(t *testing.T) {
	path := writeConfig(t, `
claude_root = "/old"
[roots]
claude = "/new"
`)
	cfg, err := LoadFile(path, "/h")
	require.NoError(t, err)
	roots, err := cfg.ScanRoots()
	require.NoError(t, err)
	assert.Equal(t, "/new", roots[parse.Claude])
}

func TestLoadFile_Errors(t *testing.T) {
	t.Run("bad toml", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, `db_path = `), "/h")
		assert.Error(t, err)
	})

	t.Run("unknown root platform", func(t *testing.T) {
		cfg, err := LoadFile(writeConfig(t, "[roots]\ncursor = \"/x\"\n"), "/h")
		require.NoError(t, err)
		_, err = cfg.ScanRoots()
		assert.Error(t, err)
	})

	t.Run("unknown enabled platform", func(t *testing.T) {
		cfg, err := LoadFile(writeConfig(t, `platforms = ["cursor"]`), "/h")
		require.NoError(t, err)
		_, err = cfg.EnabledPlatforms()
		assert.Error(t, err)
	})
}

func TestLoad_UsesEnvPath(t *testing.T) {
	path := writeConfig(t, `log_level = "warn"`)
	t.Setenv(EnvPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/h", expandHome("~", "/h"))
	assert.Equal(t, "/h/x/y", expandHome("~/x/y", "/h"))
	assert.Equal(t, "~user/x", expandHome("~user/x", "/h"))
	assert.Equal(t, "/abs", expandHome("/abs", "/h"))
}
