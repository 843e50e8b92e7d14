package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Zuo-Peng/ai-session-index/internal/render"
	"github.com/Zuo-Peng/ai-session-index/internal/search"
	"github.com/spf13/cobra"
)

func searchCmd(a *app) *cobra.Command {
	var platformName, format string
	var limit int
	var noRefresh bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find sessions whose title or working directory contains the query",
		Long: `Case-insensitive substring search over session titles and working
directories. Every search is recorded; see 'ais stats --recent'.

Use 'ais browse <query>' for the interactive version.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			p, err := optionalPlatform(platformName)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")

			ix, db, err := a.openIndexer()
			if err != nil {
				return err
			}
			defer db.Close()

			if !noRefresh {
				refresh(cmd.Context(), ix)
			}

			results, err := search.Search(ix, search.Options{Query: query, Platform: p, Limit: limit})
			if err != nil {
				return err
			}

			if f != render.FormatTable {
				if results == nil {
					results = []search.Result{}
				}
				return render.Encode(os.Stdout, f, results)
			}
			if len(results) == 0 {
				fmt.Fprintf(os.Stderr, "No sessions match %q.\n", query)
				return nil
			}
			opts := render.Options{Query: query, Color: colorEnabled()}
			if err := render.Summaries(os.Stdout, search.Summaries(results), f, opts); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%d matching sessions\n", len(results))
			return nil
		},
	}

	platformFlag(cmd, &platformName)
	formatFlag(cmd, &format)
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Max results")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "Skip updating the index first")

	return cmd
}
