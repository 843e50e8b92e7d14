package index

import (
	"context"
	"fmt"
	"time"

	"github.com/Zuo-Peng/ai-session-index/internal/logger"
	"github.com/Zuo-Peng/ai-session-index/internal/parse"
	"github.com/Zuo-Peng/ai-session-index/internal/scan"
	"github.com/Zuo-Peng/ai-session-index/internal/store"
	"github.com/rs/zerolog"
)

type IndexStats struct {
	FilesScanned    int   `json:"files_scanned" yaml:"files_scanned"`
	SessionsAdded   int   `json:"sessions_added" yaml:"sessions_added"`
	SessionsUpdated int   `json:"sessions_updated" yaml:"sessions_updated"`
	FilesSkipped    int   `json:"files_skipped" yaml:"files_skipped"`
	Errors          int   `json:"errors" yaml:"errors"`
	DurationMs      int64 `json:"duration_ms" yaml:"duration_ms"`
}

func (s *IndexStats) Merge(o IndexStats) {
	s.FilesScanned += o.FilesScanned
	s.SessionsAdded += o.SessionsAdded
	s.SessionsUpdated += o.SessionsUpdated
	s.FilesSkipped += o.FilesSkipped
	s.Errors += o.Errors
	s.DurationMs += o.DurationMs
}

func (s IndexStats) String() string {
	return fmt.Sprintf("scanned=%d added=%d updated=%d skipped=%d errors=%d (%dms)",
		s.FilesScanned, s.SessionsAdded, s.SessionsUpdated, s.FilesSkipped, s.Errors, s.DurationMs)
}

// Indexer keeps the store in sync with transcripts on disk.
type Indexer struct {
	store     *store.Store
	roots     scan.Roots
	platforms []parse.Platform
	log       zerolog.Logger
}

// New returns an Indexer over the given roots. An empty platforms list
// means every known platform.
func New(st *store.Store, roots scan.Roots, platforms []parse.Platform) *Indexer {
	if len(platforms) == 0 {
		platforms = parse.Platforms
	}
	return &Indexer{store: st, roots: roots, platforms: platforms, log: logger.WithField("component", "indexer")}
}

// SetLogger replaces the logger used for progress and per-file failures.
func (ix *Indexer) SetLogger(l zerolog.Logger) {
	ix.log = l
}

func (ix *Indexer) Platforms() []parse.Platform {
	return ix.platforms
}

func (ix *Indexer) Roots() scan.Roots {
	return ix.roots
}

// IndexPlatform indexes every changed transcript of one platform. A missing
// root is not an error. ctx is checked between files.
func (ix *Indexer) IndexPlatform(ctx context.Context, p parse.Platform) (stats IndexStats, err error) {
	start := time.Now()
	defer func() { stats.DurationMs = time.Since(start).Milliseconds() }()

	log := ix.log.With().Str("platform", string(p)).Logger()
	root, ok := ix.roots.SessionDir(p)
	if !ok {
		log.Debug().Msg("no session directory, skipping")
		return stats, nil
	}

	files, err := scan.ScanDirectory(root, p)
	if err != nil {
		return stats, fmt.Errorf("scan %s: %w", root, err)
	}
	log.Info().Msgf("indexing %d files from %s", len(files), root)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.FilesScanned++
		ix.indexFile(log, p, path, &stats)
	}
	return stats, nil
}

func (ix *Indexer) indexFile(log zerolog.Logger, p parse.Platform, path string, stats *IndexStats) {
	hash, err := parse.HashFile(path)
	if err != nil {
		stats.Errors++
		log.Warn().Msgf("hash %s: %v", path, err)
		return
	}

	prev, found, err := ix.store.GetFileHash(path)
	if err != nil {
		stats.Errors++
		log.Warn().Msgf("lookup %s: %v", path, err)
		return
	}
	if found && prev == hash {
		stats.FilesSkipped++
		return
	}

	sess, err := parse.ParseFile(path, p)
	if err != nil {
		stats.Errors++
		log.Warn().Msgf("parse %s: %v", path, err)
		return
	}

	if ix.store.UpsertSessions([]*parse.Session{sess}) == 0 {
		stats.Errors++
		return
	}
	if found {
		stats.SessionsUpdated++
	} else {
		stats.SessionsAdded++
	}
}

// IndexAll runs IndexPlatform over every configured platform. A failing
// platform adds to Errors and the run moves on; only cancellation stops it.
func (ix *Indexer) IndexAll(ctx context.Context) (IndexStats, error) {
	start := time.Now()
	var total IndexStats

	for _, p := range ix.platforms {
		st, err := ix.IndexPlatform(ctx, p)
		total.Merge(st)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				total.DurationMs = time.Since(start).Milliseconds()
				return total, ctxErr
			}
			total.Errors++
			ix.log.Warn().Msgf("index %s: %v", p, err)
		}
	}

	total.DurationMs = time.Since(start).Milliseconds()
	ix.log.Info().Msgf("index done: %s", total)
	return total, nil
}

// Rebuild clears the store and indexes everything from scratch.
func (ix *Indexer) Rebuild(ctx context.Context) (IndexStats, error) {
	n, err := ix.store.ClearAll()
	if err != nil {
		return IndexStats{}, err
	}
	ix.log.Info().Msgf("cleared %d sessions", n)
	return ix.IndexAll(ctx)
}

// PruneStale removes sessions whose transcript no longer exists.
func (ix *Indexer) PruneStale() (int, error) {
	n, err := ix.store.PruneStale()
	if err != nil {
		return n, err
	}
	ix.log.Info().Msgf("pruned %d stale sessions", n)
	return n, nil
}

func (ix *Indexer) List(f Filter) ([]Summary, error) {
	rows, err := ix.store.List(f.storeFilter(now()))
	if err != nil {
		return nil, err
	}
	return toSummaries(rows), nil
}

func (ix *Indexer) Search(query string, limit int) ([]Summary, error) {
	rows, err := ix.store.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return toSummaries(rows), nil
}

// Get returns the session with id, or nil when it is not indexed.
func (ix *Indexer) Get(id string) (*parse.Session, error) {
	return ix.store.Get(id)
}

func (ix *Indexer) Stats() (store.SessionStats, error) {
	return ix.store.Stats()
}

// RecentSearches returns the latest recorded queries, newest first.
func (ix *Indexer) RecentSearches(limit int) ([]store.SearchRecord, error) {
	return ix.store.RecentSearches(limit)
}
