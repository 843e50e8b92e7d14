package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Zuo-Peng/ai-session-index/internal/index"
	"github.com/Zuo-Peng/ai-session-index/internal/render"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// parseDate reads a YYYY-MM-DD flag in local time. endOfDay moves the result
// to the last instant of that day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

func listCmd(a *app) *cobra.Command {
	var platformName, since, until, cwd, format string
	var limit, offset int
	var today, noRefresh bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sessions, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			p, err := optionalPlatform(platformName)
			if err != nil {
				return err
			}
			from, err := parseDate(since, false)
			if err != nil {
				return err
			}
			to, err := parseDate(until, true)
			if err != nil {
				return err
			}

			ix, db, err := a.openIndexer()
			if err != nil {
				return err
			}
			defer db.Close()

			if !noRefresh {
				refresh(cmd.Context(), ix)
			}

			rows, err := ix.List(index.Filter{
				Platform:  p,
				From:      from,
				To:        to,
				CwdPrefix: cwd,
				Limit:     limit,
				Offset:    offset,
				TodayOnly: today,
			})
			if err != nil {
				return err
			}

			if err := render.Summaries(os.Stdout, rows, f, render.Options{Color: colorEnabled()}); err != nil {
				return err
			}
			if f == render.FormatTable && len(rows) > 0 {
				fmt.Fprintf(os.Stderr, "%d sessions\n", len(rows))
			}
			return nil
		},
	}

	platformFlag(cmd, &platformName)
	formatFlag(cmd, &format)
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Max sessions (0 = no limit)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many sessions")
	cmd.Flags().BoolVar(&today, "today", false, "Only sessions created today")
	cmd.Flags().StringVar(&since, "since", "", "Only sessions created on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "Only sessions created on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&cwd, "cwd", "", "Only sessions whose working directory starts with this path")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "Skip updating the index first")

	return cmd
}
