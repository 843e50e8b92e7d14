package main

import (
	"fmt"
	"os"

	"github.com/Zuo-Peng/ai-session-index/internal/open"
	"github.com/spf13/cobra"
)

func resumeCmd(a *app) *cobra.Command {
	var dryRun, copyCmd bool

	cmd := &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Resume a session in the tool that recorded it",
		Long: `Runs the platform's resume command from the session's working directory.

--dry-run prints the command instead; --copy puts "cd <cwd> && <command>"
on the clipboard.`,
		Args: cobra.ExactArgs(1),
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

			switch {
			case copyCmd:
				line, err := open.CopyResume(s)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Clipboard unavailable: %v\n", err)
					fmt.Println(line)
					return nil
				}
				fmt.Fprintf(os.Stderr, "Copied to clipboard: %s\n", line)
				return nil
			case dryRun:
				fmt.Println(open.ResumeLine(s))
				return nil
			default:
				fmt.Fprintf(os.Stderr, "Running: %s\n", open.ResumeLine(s))
				return open.Resume(cmd.Context(), s)
			}
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command instead of running it")
	cmd.Flags().BoolVarP(&copyCmd, "copy", "c", false, "Copy the command to the clipboard")

	return cmd
}
