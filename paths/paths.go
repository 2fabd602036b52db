// Package paths resolves the directories lunky keeps its files in.
//
// LUNKY_HOME, when set, holds everything. Otherwise an existing ~/.lunky
// directory wins, then the XDG base directories if either XDG_CONFIG_HOME or
// XDG_STATE_HOME is set, and finally ~/.lunky is used for a fresh install.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	appName = "lunky"

	// HomeEnvVar overrides every other layout rule.
	HomeEnvVar = "LUNKY_HOME"
)

// Layout is a resolved set of directories.
type Layout struct {
	ConfigDir string
	StateDir  string
	Legacy    bool // Single directory holding config and state
}

// ConfigFile is the path of config.yaml.
func (l Layout) ConfigFile() string {
	return filepath.Join(l.ConfigDir, "config.yaml")
}

// LogsDir is the directory log files are written to.
func (l Layout) LogsDir() string {
	return filepath.Join(l.StateDir, "logs")
}

var (
	mu     sync.Mutex
	cached *Layout
)

// Current returns the layout for this process, resolving it on first use.
func Current() (Layout, error) {
	mu.Lock()
	defer mu.Unlock()

	if cached != nil {
		return *cached, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, fmt.Errorf("get home directory: %w", err)
	}

	l := detect(home, os.Getenv, isDir)
	cached = &l
	return l, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func detect(home string, getenv func(string) string, dirExists func(string) bool) Layout {
	if dir := getenv(HomeEnvVar); dir != "" {
		return Layout{ConfigDir: dir, StateDir: dir, Legacy: true}
	}

	legacy := filepath.Join(home, "."+appName)
	if dirExists(legacy) {
		return Layout{ConfigDir: legacy, StateDir: legacy, Legacy: true}
	}

	xdgConfig, xdgState := getenv("XDG_CONFIG_HOME"), getenv("XDG_STATE_HOME")
	if xdgConfig == "" && xdgState == "" {
		return Layout{ConfigDir: legacy, StateDir: legacy, Legacy: true}
	}
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	if xdgState == "" {
		xdgState = filepath.Join(home, ".local", "state")
	}
	return Layout{
		ConfigDir: filepath.Join(xdgConfig, appName),
		StateDir:  filepath.Join(xdgState, appName),
	}
}

// ConfigDir returns the directory holding config.yaml.
func ConfigDir() (string, error) {
	l, err := Current()
	return l.ConfigDir, err
}

// StateDir returns the directory for runtime state and logs.
func StateDir() (string, error) {
	l, err := Current()
	return l.StateDir, err
}

// ConfigFilePath returns the full path to config.yaml.
func ConfigFilePath() (string, error) {
	l, err := Current()
	if err != nil {
		return "", err
	}
	return l.ConfigFile(), nil
}

// LogsDir returns the directory for log files.
func LogsDir() (string, error) {
	l, err := Current()
	if err != nil {
		return "", err
	}
	return l.LogsDir(), nil
}

// IsLegacyLayout reports whether config and state share one directory.
// It is true when the layout cannot be resolved.
func IsLegacyLayout() bool {
	l, err := Current()
	return err != nil || l.Legacy
}

// Reset forgets the resolved layout. Tests use it after changing HOME.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cached = nil
}
