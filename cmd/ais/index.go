package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Zuo-Peng/ai-session-index/internal/index"
	"github.com/Zuo-Peng/ai-session-index/internal/render"
	"github.com/spf13/cobra"
)

func indexCmd(a *app) *cobra.Command {
	var platformName, format string
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Scan transcript directories and update the session index",
		Long: `Scans every enabled platform's session directory and indexes new or changed
transcripts. Unchanged files are skipped by content hash.

--rebuild clears the index first; --platform limits the scan to one platform.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			p, err := optionalPlatform(platformName)
			if err != nil {
				return err
			}
			if rebuild && p != "" {
				return fmt.Errorf("--rebuild and --platform cannot be combined")
			}

			ix, db, err := a.openIndexer()
			if err != nil {
				return err
			}
			defer db.Close()

			roots := ix.Roots()
			fmt.Fprintf(os.Stderr, "Scanning roots...\n")
			for _, pl := range ix.Platforms() {
				if p != "" && pl != p {
					continue
				}
				fmt.Fprintf(os.Stderr, "  %-7s %s\n", pl+":", roots[pl])
			}

			var stats index.IndexStats
			switch {
			case rebuild:
				fmt.Fprintln(os.Stderr, "Rebuilding: existing index cleared")
				stats, err = ix.Rebuild(cmd.Context())
			case p != "":
				start := time.Now()
				stats, err = ix.IndexPlatform(cmd.Context(), p)
				stats.DurationMs = time.Since(start).Milliseconds()
			default:
				stats, err = ix.IndexAll(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			if f == render.FormatTable {
				return render.IndexStats(os.Stderr, stats, f)
			}
			return render.IndexStats(os.Stdout, stats, f)
		},
	}

	platformFlag(cmd, &platformName)
	formatFlag(cmd, &format)
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Clear the index and re-index everything")

	return cmd
}
