package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/modlunky/lunky/cli"
	"github.com/modlunky/lunky/manager"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the client, API token and game directory are set up",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	clientPath, err := manager.New(cfg, nil).ClientPath()
	if err != nil {
		return err
	}

	prereqs := cli.DefaultPrerequisites(cfg, clientPath)
	results := cli.CheckAll(prereqs)
	writeCheckResults(cmd.OutOrStdout(), results)

	if err := cli.ValidateRequired(prereqs); err != nil {
		return &exitError{code: 1, msg: err.Error()}
	}
	return nil
}

func writeCheckResults(w io.Writer, results []cli.CheckResult) {
	if !ansiEnabled() {
		fmt.Fprint(w, cli.FormatCheckResults(results))
		return
	}

	fmt.Fprintln(w, headingStyle.Render("Prerequisites:"))
	for _, r := range results {
		style := okStyle
		detail := r.Version
		if detail == "" {
			detail = r.Path
		}
		if !r.Found {
			style = mutedStyle
			if r.Prerequisite.Required {
				style = errorStyle
			}
			detail = r.Prerequisite.Hint
		}
		line := fmt.Sprintf("  %s %s", style.Render(cli.StatusSymbol(r)), r.Prerequisite.Name)
		if detail != "" {
			line += " " + mutedStyle.Render(detail)
		}
		fmt.Fprintln(w, line)
	}
}
