package client

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExecutableBaseName is the client's file name without a platform suffix.
const ExecutableBaseName = "s99-client"

// ExecutableName returns the client's file name on goos.
func ExecutableName(goos string) string {
	if goos == "windows" {
		return ExecutableBaseName + ".exe"
	}
	return ExecutableBaseName
}

// Path returns where the client executable is expected: next to the launcher
// when launcherExe is set, otherwise next to the running program. Symlinks in
// launcherExe are resolved first so a linked launcher finds its real siblings.
func Path(launcherExe, goos string) (string, error) {
	var dir string
	if launcherExe != "" {
		resolved, err := filepath.EvalSymlinks(launcherExe)
		if err != nil {
			resolved = launcherExe
		}
		dir = filepath.Dir(resolved)
	} else {
		exe, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("failed to locate running executable: %w", err)
		}
		dir = filepath.Dir(exe)
	}
	return filepath.Join(dir, ExecutableName(goos)), nil
}
