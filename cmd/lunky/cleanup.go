package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modlunky/lunky/process"
)

var cleanupDryRun bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Kill client processes left behind by a crashed lunky",
	Args:  cobra.NoArgs,
	RunE:  runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVarP(&cleanupDryRun, "dry-run", "n", false, "List orphaned clients without killing them")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if cleanupDryRun {
		orphans, err := process.FindOrphanedClients(nil)
		if err != nil {
			return err
		}
		for _, p := range orphans {
			fmt.Fprintf(out, "%d\t%s\n", p.PID, p.Command)
		}
		fmt.Fprintf(out, "%d orphaned client(s)\n", len(orphans))
		return nil
	}

	killed, err := process.CleanupOrphanedClients(nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "killed %d orphaned client(s)\n", killed)
	return nil
}
