package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Zuo-Peng/ai-session-index/internal/render"
	"github.com/Zuo-Peng/ai-session-index/internal/store"
	"github.com/spf13/cobra"
)

func statsCmd(a *app) *cobra.Command {
	var format string
	var recent int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show session counts per platform and database size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			ix, db, err := a.openIndexer()
			if err != nil {
				return err
			}
			defer db.Close()

			ss, err := ix.Stats()
			if err != nil {
				return err
			}
			ds, err := db.Stats()
			if err != nil {
				return err
			}
			report := render.NewStatsReport(ss, ds, db.Path())

			var searches []store.SearchRecord
			if recent > 0 {
				if searches, err = ix.RecentSearches(recent); err != nil {
					return err
				}
			}

			if f != render.FormatTable {
				return render.Encode(os.Stdout, f, struct {
					render.StatsReport `yaml:",inline"`
					Recent             []store.SearchRecord `json:"recent_searches,omitempty" yaml:"recent_searches,omitempty"`
				}{report, searches})
			}

			if err := render.Stats(os.Stdout, report, f, render.Options{Color: colorEnabled()}); err != nil {
				return err
			}
			if len(searches) > 0 {
				fmt.Println("\nRecent searches:")
				for _, s := range searches {
					fmt.Printf("  %-20s %3d results  %s\n",
						render.Truncate(fmt.Sprintf("%q", s.Query), 20), s.ResultCount, render.RelativeTime(s.SearchedAt, time.Now()))
				}
			}
			return nil
		},
	}

	formatFlag(cmd, &format)
	cmd.Flags().IntVar(&recent, "recent", 0, "Also list this many recent searches")

	return cmd
}
