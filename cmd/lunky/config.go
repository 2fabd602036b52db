package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change lunky settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token <token>",
	Short: "Set the spelunky.fyi API token",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetToken,
}

var configSetLauncherCmd = &cobra.Command{
	Use:   "set-launcher <path>",
	Short: "Set the launcher executable the client lives next to",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetPath(func(c configSetter, p string) { c.SetLauncherExe(p) }),
}

var configSetInstallDirCmd = &cobra.Command{
	Use:   "set-install-dir <path>",
	Short: "Set the game install directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetPath(func(c configSetter, p string) { c.SetInstallDir(p) }),
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetTokenCmd, configSetLauncherCmd, configSetInstallDirCmd)
	rootCmd.AddCommand(configCmd)
}

type configSetter interface {
	SetLauncherExe(string)
	SetInstallDir(string)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rows := []struct{ key, value string }{
		{"file", cfg.FilePath()},
		{"api_token", maskToken(cfg.GetAPIToken())},
		{"launcher_exe", cfg.GetLauncherExe()},
		{"client_path", cfg.GetClientPath()},
		{"install_dir", cfg.GetInstallDir()},
		{"poll_interval", cfg.GetPollInterval().String()},
	}
	for _, row := range rows {
		value := row.value
		if value == "" {
			value = render(mutedStyle, "(unset)")
		}
		fmt.Fprintf(out, "%s: %s\n", row.key, value)
	}
	return nil
}

// maskToken hides all but the last four characters of a token.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}

func runConfigSetToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.SetAPIToken(strings.TrimSpace(args[0]))
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "API token saved")
	return nil
}

func runConfigSetPath(set func(configSetter, string)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		set(cfg, path)
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", path)
		return nil
	}
}
