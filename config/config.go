// Package config loads and saves lunky's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/modlunky/lunky/paths"
)

// DefaultPollInterval is how often a connected client is checked for exit.
const DefaultPollInterval = time.Second

// Config holds the application configuration
type Config struct {
	APIToken          string `yaml:"spelunky_fyi_api_token,omitempty"` // Credential passed to the S99 client
	LauncherExe       string `yaml:"launcher_exe,omitempty"`           // Launcher executable; the client is expected next to it
	ClientPath        string `yaml:"client_path,omitempty"`            // Explicit client executable, overrides LauncherExe lookup
	InstallDir        string `yaml:"install_dir,omitempty"`            // Game install directory (contains Mods/Packs)
	LastInstallBrowse string `yaml:"last_install_browse,omitempty"`    // Last directory a mod was installed from
	PollIntervalMS    int    `yaml:"client_poll_interval_ms,omitempty"` // Liveness poll interval for the client

	mu       sync.RWMutex
	filePath string
}

// Load reads the config from disk, or returns an empty one if it doesn't exist
func Load() (*Config, error) {
	path, err := paths.ConfigFilePath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config from path. A missing file yields an empty config
// that will be written to path on Save.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{filePath: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the config is internally consistent.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.PollIntervalMS < 0 {
		return fmt.Errorf("client_poll_interval_ms must not be negative: %d", c.PollIntervalMS)
	}

	for name, p := range map[string]string{
		"launcher_exe": c.LauncherExe,
		"client_path":  c.ClientPath,
		"install_dir":  c.InstallDir,
	} {
		if p != "" && !filepath.IsAbs(p) {
			return fmt.Errorf("%s must be an absolute path: %s", name, p)
		}
	}

	return nil
}

// Save writes the config to disk. The file is created with 0600 because it
// holds the API token.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.filePath == "" {
		path, err := paths.ConfigFilePath()
		if err != nil {
			return err
		}
		c.filePath = path
	}

	if err := os.MkdirAll(filepath.Dir(c.filePath), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.filePath, data, 0600)
}

// FilePath returns the path the config is loaded from and saved to.
func (c *Config) FilePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filePath
}

// SetFilePath sets the config file path (for testing).
func (c *Config) SetFilePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filePath = path
}

// GetAPIToken returns the spelunky.fyi API token
func (c *Config) GetAPIToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.APIToken
}

// SetAPIToken sets the spelunky.fyi API token
func (c *Config) SetAPIToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.APIToken = token
}

// GetLauncherExe returns the configured launcher executable
func (c *Config) GetLauncherExe() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LauncherExe
}

// SetLauncherExe sets the launcher executable
func (c *Config) SetLauncherExe(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LauncherExe = path
}

// GetClientPath returns the explicit client executable override, or ""
func (c *Config) GetClientPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ClientPath
}

// SetClientPath sets the explicit client executable override
func (c *Config) SetClientPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ClientPath = path
}

// GetInstallDir returns the game install directory
func (c *Config) GetInstallDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.InstallDir
}

// SetInstallDir sets the game install directory
func (c *Config) SetInstallDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InstallDir = dir
}

// GetLastInstallBrowse returns the directory of the last installed mod source
func (c *Config) GetLastInstallBrowse() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LastInstallBrowse
}

// SetLastInstallBrowse records the directory of the last installed mod source
func (c *Config) SetLastInstallBrowse(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LastInstallBrowse = dir
}

// GetPollInterval returns the client liveness poll interval, defaulting to one second
func (c *Config) GetPollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.PollIntervalMS <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// SetPollInterval sets the client liveness poll interval
func (c *Config) SetPollInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PollIntervalMS = int(d / time.Millisecond)
}
