// Package cli provides prerequisite checks for running lunky.
package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/modlunky/lunky/install"
)

// Prerequisite represents something lunky needs to work
type Prerequisite struct {
	Name        string // Short name (e.g., "s99-client", "pgrep")
	Required    bool   // Whether connecting is impossible without it
	Description string // Human-readable description
	Hint        string // How to fix it when missing

	// Probe reports where the prerequisite was found and an optional version.
	// When nil, Name is looked up as a command in PATH.
	Probe func() (path, version string, err error)
}

// PrerequisiteConfig is the configuration the default checks read.
//
// *config.Config satisfies this interface implicitly.
type PrerequisiteConfig interface {
	GetAPIToken() string
	GetInstallDir() string
}

// DefaultPrerequisites returns the checks for connecting the client at
// clientPath and installing mods.
func DefaultPrerequisites(cfg PrerequisiteConfig, clientPath string) []Prerequisite {
	return []Prerequisite{
		{
			Name:        "s99-client",
			Required:    true,
			Description: "Spelunky 99 client executable",
			Hint:        "place the client next to the launcher or run `lunky config set-launcher PATH`",
			Probe:       func() (string, string, error) { return probeExecutable(clientPath) },
		},
		{
			Name:        "api-token",
			Required:    true,
			Description: "spelunky.fyi API token",
			Hint:        "run `lunky config set-token TOKEN`",
			Probe: func() (string, string, error) {
				if cfg.GetAPIToken() == "" {
					return "", "", errors.New("no API token configured")
				}
				return "", "configured", nil
			},
		},
		{
			Name:        "packs-dir",
			Required:    false, // Only needed for installing mods
			Description: "game Mods/Packs directory (optional, for installing mods)",
			Hint:        "run `lunky config set-install-dir PATH`",
			Probe:       func() (string, string, error) { return probePacksDir(cfg.GetInstallDir()) },
		},
		{
			Name:        "pgrep",
			Required:    false, // Only needed for orphan cleanup
			Description: "process finder (optional, for `lunky cleanup`)",
			Hint:        "install procps",
		},
	}
}

func probeExecutable(path string) (string, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", "", fmt.Errorf("%s not found", path)
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("%s is a directory", path)
	}
	return path, "", nil
}

func probePacksDir(installDir string) (string, string, error) {
	if installDir == "" {
		return "", "", errors.New("no install directory configured")
	}
	packs := install.PacksDir(installDir)
	info, err := os.Stat(packs)
	if err != nil || !info.IsDir() {
		return "", "", fmt.Errorf("%s not found", packs)
	}
	return packs, "", nil
}

// CheckResult contains the result of checking a prerequisite
type CheckResult struct {
	Prerequisite Prerequisite
	Found        bool
	Path         string // Where it was found, if applicable
	Version      string // Version string or status detail if available
	Error        error
}

// Check verifies a prerequisite
func Check(prereq Prerequisite) CheckResult {
	result := CheckResult{Prerequisite: prereq}

	if prereq.Probe != nil {
		path, version, err := prereq.Probe()
		if err != nil {
			result.Error = err
			return result
		}
		result.Found = true
		result.Path = path
		result.Version = version
		return result
	}

	path, err := exec.LookPath(prereq.Name)
	if err != nil {
		result.Error = fmt.Errorf("%s not found in PATH", prereq.Name)
		return result
	}

	result.Found = true
	result.Path = path

	// Try to get version
	if version := getVersion(prereq.Name); version != "" {
		result.Version = version
	}

	return result
}

// CheckAll verifies all prerequisites and returns results
func CheckAll(prereqs []Prerequisite) []CheckResult {
	results := make([]CheckResult, len(prereqs))
	for i, prereq := range prereqs {
		results[i] = Check(prereq)
	}
	return results
}

// ValidateRequired checks that all required prerequisites are met
// Returns nil if all required ones are found, otherwise returns an error
// describing what's missing
func ValidateRequired(prereqs []Prerequisite) error {
	var missing []string

	for _, prereq := range prereqs {
		if !prereq.Required {
			continue
		}
		result := Check(prereq)
		if !result.Found {
			missing = append(missing, fmt.Sprintf("  - %s (%s)\n    Fix: %s",
				prereq.Name, prereq.Description, prereq.Hint))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing prerequisites:\n%s", strings.Join(missing, "\n"))
	}

	return nil
}

// getVersion attempts to get the version of a CLI tool
func getVersion(name string) string {
	// Different tools use different version flags
	versionFlags := []string{"--version", "-V", "-v"}

	for _, flag := range versionFlags {
		output, err := exec.Command(name, flag).Output()
		if err != nil {
			continue
		}
		// Return first line of output, trimmed
		version, _, _ := strings.Cut(string(output), "\n")
		version = strings.TrimSpace(version)
		if version == "" {
			continue
		}
		// Limit length to avoid overly long version strings
		if len(version) > 100 {
			version = version[:100] + "..."
		}
		return version
	}

	return ""
}

// FormatCheckResults formats check results for display
func FormatCheckResults(results []CheckResult) string {
	var sb strings.Builder

	sb.WriteString("Prerequisites:\n")
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("  %s %s", StatusSymbol(r), r.Prerequisite.Name))
		if r.Found && r.Version != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", r.Version))
		} else if !r.Found {
			if r.Prerequisite.Required {
				sb.WriteString(" [REQUIRED]")
			} else {
				sb.WriteString(" [optional]")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// StatusSymbol returns the marker for a result: ✓ found, ✗ missing and
// required, ○ missing and optional.
func StatusSymbol(r CheckResult) string {
	switch {
	case r.Found:
		return "✓"
	case r.Prerequisite.Required:
		return "✗"
	default:
		return "○"
	}
}
