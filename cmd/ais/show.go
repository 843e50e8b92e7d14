package main

import (
	"os"

	"github.com/Zuo-Peng/ai-session-index/internal/open"
	"github.com/Zuo-Peng/ai-session-index/internal/render"
	"github.com/spf13/cobra"
)

func showCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show everything indexed about one session",
		Args:  cobra.ExactArgs(1),
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

			s, err := open.Lookup(ix, args[0])
			if err != nil {
				return err
			}
			return render.Session(os.Stdout, s, f, render.Options{Color: colorEnabled()})
		},
	}

	formatFlag(cmd, &format)
	return cmd
}
