// Package main implements the lunky CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/modlunky/lunky/config"
	"github.com/modlunky/lunky/logger"
)

func main() {
	err := rootCmd.Execute()
	logger.Close()
	if err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

var (
	debugFlag   bool
	logFileFlag string
)

var rootCmd = &cobra.Command{
	Use:               "lunky",
	Short:             "Spelunky 2 mod and companion client manager",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Log file path (default: <state dir>/logs/lunky.log)")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	path := logFileFlag
	if path == "" {
		var err error
		path, err = logger.DefaultLogPath()
		if err != nil {
			return err
		}
	}
	if err := logger.Init(path); err != nil {
		return err
	}
	logger.SetDebug(debugFlag)
	logger.Get().Debug("running command", "command", cmd.CommandPath(), "args", args)
	return nil
}

// loadConfig loads the user's config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// exitError carries a process exit status through cobra.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }
