package scan

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Zuo-Peng/ai-session-index/internal/logger"
	"github.com/Zuo-Peng/ai-session-index/internal/parse"
)

// Roots maps each platform to the directory holding its transcripts.
type Roots map[parse.Platform]string

// DefaultRoots returns the well-known session directories under home.
func DefaultRoots(home string) Roots {
	roots := make(Roots, len(parse.Platforms))
	for _, p := range parse.Platforms {
		roots[p] = p.DefaultRoot(home)
	}
	return roots
}

// SessionDir returns the platform's root only if it currently exists.
func (r Roots) SessionDir(p parse.Platform) (string, bool) {
	dir := r[p]
	if dir == "" {
		return "", false
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

// ScanDirectory walks root recursively and returns the files matching the
// platform's extension rule. Failing to list root itself is an error;
// unreadable subdirectories are skipped.
func ScanDirectory(root string, p parse.Platform) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Debugf("skip unreadable %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if parse.IsSessionFile(path, p) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Debugf("found %d %s session files in %s", len(files), p, root)
	return files, nil
}
