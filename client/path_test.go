package client

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExecutableName(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{goos: "windows", want: "s99-client.exe"},
		{goos: "linux", want: "s99-client"},
		{goos: "darwin", want: "s99-client"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			if got := ExecutableName(tt.goos); got != tt.want {
				t.Errorf("ExecutableName(%q) = %q, want %q", tt.goos, got, tt.want)
			}
		})
	}
}

func TestPath_NextToLauncher(t *testing.T) {
	dir := t.TempDir()
	launcher := filepath.Join(dir, "modlunky2")

	got, err := Path(launcher, "windows")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if want := filepath.Join(dir, "s99-client.exe"); got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}

func TestPath_ResolvesLauncherSymlink(t *testing.T) {
	realDir := t.TempDir()
	launcher := filepath.Join(realDir, "modlunky2")
	if err := os.WriteFile(launcher, nil, 0755); err != nil {
		t.Fatal(err)
	}
	realDir, err := filepath.EvalSymlinks(realDir)
	if err != nil {
		t.Fatal(err)
	}

	link := filepath.Join(t.TempDir(), "launcher-link")
	if err := os.Symlink(launcher, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got, err := Path(link, "linux")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if want := filepath.Join(realDir, "s99-client"); got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}

func TestPath_DefaultsToRunningExecutable(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Skipf("os.Executable: %v", err)
	}

	got, err := Path("", "linux")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if want := filepath.Join(filepath.Dir(exe), "s99-client"); got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}
