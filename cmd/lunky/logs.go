package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modlunky/lunky/logger"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Manage lunky log files",
}

var logsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the active log file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), logger.Path())
		return nil
	},
}

var logsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete lunky.log and all client session logs",
	Args:  cobra.NoArgs,
	RunE:  runLogsClear,
}

func init() {
	logsCmd.AddCommand(logsPathCmd, logsClearCmd)
	rootCmd.AddCommand(logsCmd)
}

func runLogsClear(cmd *cobra.Command, args []string) error {
	// The active log file is about to be removed.
	logger.Close()

	count, err := logger.ClearLogs()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d log file(s)\n", count)
	return nil
}
