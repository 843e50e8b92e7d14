package main

import (
	"github.com/Zuo-Peng/ai-session-index/internal/open"
	"github.com/spf13/cobra"
)

func openCmd(a *app) *cobra.Command {
	var line int

	cmd := &cobra.Command{
		Use:   "open <session-id>",
		Short: "Open the session's transcript file in $EDITOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, db, err := a.openIndexer()
			if err != nil {
				return err
			}
			s, err := open.Lookup(ix, args[0])
			db.Close()
			if err != nil {
				return err
			}
			return open.Transcript(s, line)
		},
	}

	cmd.Flags().IntVar(&line, "line", 1, "Line to jump to")

	return cmd
}
