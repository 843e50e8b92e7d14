package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// confirm asks a yes/no question on out and reads the answer from in.
// Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (y/N): ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func pruneCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove sessions whose transcript file no longer exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprintln(os.Stderr, "This deletes index entries for transcripts that are gone from disk.")
				if !confirm(os.Stdin, os.Stderr, "Continue?") {
					fmt.Fprintln(os.Stderr, "Cancelled.")
					return nil
				}
			}

			ix, db, err := a.openIndexer()
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := ix.PruneStale()
			if err != nil {
				return err
			}
			fmt.Printf("Pruned %d stale sessions\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
