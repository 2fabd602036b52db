package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modlunky/lunky/install"
)

var (
	installPack       string
	installPackDir    string
	installInstallDir string
)

var installCmd = &cobra.Command{
	Use:   "install <source>",
	Short: "Install a mod file or .zip archive into a pack",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstall,
}

func init() {
	installCmd.Flags().StringVarP(&installPack, "pack", "p", "", "Pack name under Mods/Packs")
	installCmd.Flags().StringVar(&installPackDir, "pack-dir", "", "Pack directory, exactly one level below Mods/Packs")
	installCmd.Flags().StringVar(&installInstallDir, "install-dir", "", "Game install directory (default: from config)")
	installCmd.MarkFlagsMutuallyExclusive("pack", "pack-dir")
	setFlagAliases(installCmd.Flags(), map[string]string{"to": "pack"})
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	installDir := installInstallDir
	if installDir == "" {
		installDir = cfg.GetInstallDir()
	}
	if installDir == "" {
		return fmt.Errorf("no install directory configured; pass --install-dir or run `lunky config set-install-dir PATH`")
	}

	pack := installPack
	if installPackDir != "" {
		pack, err = install.ValidatePack(installDir, installPackDir)
		if err != nil {
			return err
		}
	}

	source, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	dest, err := install.Mod(cmd.Context(), install.Options{
		InstallDir: installDir,
		Source:     source,
		Pack:       pack,
		Reload: func(context.Context) error {
			packs, err := install.ListPacks(installDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", render(mutedStyle, "packs:"), strings.Join(packs, ", "))
			return nil
		},
	})
	if err != nil {
		return err
	}

	cfg.SetLastInstallBrowse(filepath.Dir(source))
	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s installed %s into %s\n", render(okStyle, "✓"), filepath.Base(source), dest)
	return nil
}
