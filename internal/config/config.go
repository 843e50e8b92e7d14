package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/Zuo-Peng/ai-session-index/internal/parse"
	"github.com/Zuo-Peng/ai-session-index/internal/scan"
)

// EnvPath overrides the config file location.
const EnvPath = "AIS_CONFIG"

type Config struct {
	DBPath    string            `toml:"db_path"`
	LogLevel  string            `toml:"log_level"`
	Platforms []string          `toml:"platforms"`
	Roots     map[string]string `toml:"roots"`

	// older single-purpose keys, folded into Roots
	ClaudeRoot string `toml:"claude_root"`
	CodexRoot  string `toml:"codex_root"`

	home string
}

// DefaultPath is ~/.config/ais/config.toml.
func DefaultPath(home string) string {
	return filepath.Join(home, ".config", "ais", "config.toml")
}

// Load reads the config file named by path, AIS_CONFIG, or the default
// location, in that order. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		path = DefaultPath(home)
	}
	return LoadFile(path, home)
}

// LoadFile reads path relative to the given home directory.
func LoadFile(path, home string) (*Config, error) {
	cfg := &Config{
		DBPath:   filepath.Join(home, ".config", "ais", "ais.db"),
		LogLevel: "info",
		home:     home,
	}

	path = expandHome(path, home)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if cfg.Roots == nil {
		cfg.Roots = make(map[string]string)
	}
	if cfg.ClaudeRoot != "" {
		if _, ok := cfg.Roots[string(parse.Claude)]; !ok {
			cfg.Roots[string(parse.Claude)] = cfg.ClaudeRoot
		}
	}
	if cfg.CodexRoot != "" {
		if _, ok := cfg.Roots[string(parse.Codex)]; !ok {
			cfg.Roots[string(parse.Codex)] = cfg.CodexRoot
		}
	}

	// expand ~ in paths
	cfg.DBPath = expandHome(cfg.DBPath, home)
	for k, v := range cfg.Roots {
		cfg.Roots[k] = expandHome(v, home)
	}

	return cfg, nil
}

// ScanRoots returns the session directory per platform, applying overrides
// from the [roots] table.
func (c *Config) ScanRoots() (scan.Roots, error) {
	roots := scan.DefaultRoots(c.home)
	for name, dir := range c.Roots {
		p, err := parse.ParsePlatform(name)
		if err != nil {
			return nil, fmt.Errorf("roots: %w", err)
		}
		roots[p] = dir
	}
	return roots, nil
}

// EnabledPlatforms returns the platforms listed in the config, or nil for
// all of them.
func (c *Config) EnabledPlatforms() ([]parse.Platform, error) {
	var out []parse.Platform
	for _, name := range c.Platforms {
		p, err := parse.ParsePlatform(name)
		if err != nil {
			return nil, fmt.Errorf("platforms: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
