package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Zuo-Peng/ai-session-index/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func browseCmd(a *app) *cobra.Command {
	var platformName string
	var noRefresh bool

	cmd := &cobra.Command{
		Use:   "browse [query]",
		Short: "Interactive session browser",
		Long: `Opens a TUI listing sessions, newest first. Type to filter by title or
working directory. Enter copies the resume command to the clipboard,
ctrl+o opens the transcript in $EDITOR.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("browse needs a terminal; use 'ais list' or 'ais search' in pipes")
			}
			p, err := optionalPlatform(platformName)
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
			return tui.Run(ix, tui.Options{Query: strings.Join(args, " "), Platform: p})
		},
	}

	platformFlag(cmd, &platformName)
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "Skip updating the index first")

	return cmd
}
