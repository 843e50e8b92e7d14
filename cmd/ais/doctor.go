package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Zuo-Peng/ai-session-index/internal/logger"
	"github.com/Zuo-Peng/ai-session-index/internal/scan"
	"github.com/Zuo-Peng/ai-session-index/internal/store"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func doctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify roots, transcript counts and the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := a.cfg.ScanRoots()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			platforms, err := a.cfg.EnabledPlatforms()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			ix, db, err := a.openIndexer()
			if err != nil {
				return err
			}
			defer db.Close()
			if len(platforms) == 0 {
				platforms = ix.Platforms()
			}

			fmt.Println("=== Roots ===")
			for _, p := range platforms {
				checkDir(string(p), roots[p])
			}

			fmt.Println("\n=== Transcripts ===")
			for _, p := range platforms {
				dir, ok := roots.SessionDir(p)
				if !ok {
					fmt.Printf("  %-7s -\n", p)
					continue
				}
				files, err := scan.ScanDirectory(dir, p)
				if err != nil {
					fmt.Printf("  %-7s scan error: %v\n", p, err)
					continue
				}
				fmt.Printf("  %-7s %s files\n", p, humanize.Comma(int64(len(files))))
			}

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", db.Path())
			migrations, err := db.Migrations()
			if err != nil {
				return err
			}
			fmt.Printf("  Migrations: %s\n", strings.Join(migrations, ", "))

			stats, err := db.Stats()
			if err != nil {
				return err
			}
			logger.Debugf("database stats: %s", stats)
			fmt.Printf("  Sessions: %s\n", humanize.Comma(int64(stats.SessionCount)))
			fmt.Printf("  Searches: %s\n", humanize.Comma(int64(stats.SearchHistoryCount)))
			if db.Path() != store.MemoryPath {
				fmt.Printf("  Size:     %s\n", humanize.Bytes(uint64(stats.FileSizeBytes)))
			}
			if stats.SessionCount == 0 {
				fmt.Println("  Status: EMPTY (run 'ais index' first)")
			}
			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %-7s %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %-7s %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %-7s %s (OK)\n", name, path)
	}
}
