package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modlunky/lunky/paths"
)

// setupTestLogger creates a temp log file and initializes the logger with it.
func setupTestLogger(t *testing.T) (string, func()) {
	t.Helper()
	Reset()

	logPath := filepath.Join(t.TempDir(), "test-debug.log")
	if err := Init(logPath); err != nil {
		t.Fatalf("Failed to init logger: %v", err)
	}

	return logPath, func() {
		Reset()
	}
}

// setupTestHome points HOME at a temp dir so default paths stay inside it.
func setupTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv(paths.HomeEnvVar, "")
	paths.Reset()
	t.Cleanup(paths.Reset)
	return home
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	return string(content)
}

func TestGet_StructuredLogging(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	Get().Info("client launched", "pid", 4242, "path", "/opt/s99-client")

	content := readLog(t, logPath)
	for _, want := range []string{"client launched", "pid=4242", "path=/opt/s99-client", "time="} {
		if !strings.Contains(content, want) {
			t.Errorf("log should contain %q, got:\n%s", want, content)
		}
	}
}

func TestPath(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	if got := Path(); got != logPath {
		t.Errorf("Path() = %q, want %q", got, logPath)
	}

	Reset()
	if got := Path(); got != "" {
		t.Errorf("Path() after Reset = %q, want empty", got)
	}
}

func TestReset(t *testing.T) {
	tmpDir := t.TempDir()
	logPath1 := filepath.Join(tmpDir, "log1.log")
	if err := Init(logPath1); err != nil {
		t.Fatalf("Failed to init logger: %v", err)
	}
	Get().Info("message to log1")

	Reset()

	logPath2 := filepath.Join(tmpDir, "log2.log")
	if err := Init(logPath2); err != nil {
		t.Fatalf("Failed to reinit logger: %v", err)
	}
	Get().Info("message to log2")

	content1 := readLog(t, logPath1)
	if !strings.Contains(content1, "message to log1") || strings.Contains(content1, "message to log2") {
		t.Errorf("log1 has unexpected content:\n%s", content1)
	}

	content2 := readLog(t, logPath2)
	if !strings.Contains(content2, "message to log2") || strings.Contains(content2, "message to log1") {
		t.Errorf("log2 has unexpected content:\n%s", content2)
	}

	Reset()
}

func TestLogLevel_Filtering(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{name: "info level hides debug", debug: false, wantDebug: false},
		{name: "debug level shows debug", debug: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logPath, cleanup := setupTestLogger(t)
			defer cleanup()

			SetDebug(tt.debug)

			log := Get()
			log.Debug("debug-marker")
			log.Info("info-marker")
			log.Warn("warn-marker")

			content := readLog(t, logPath)
			if got := strings.Contains(content, "debug-marker"); got != tt.wantDebug {
				t.Errorf("debug visible = %v, want %v", got, tt.wantDebug)
			}
			if !strings.Contains(content, "info-marker") {
				t.Error("info message should always be visible")
			}
			if !strings.Contains(content, "level=WARN") {
				t.Error("warn message should carry level=WARN")
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	WithComponent("install").Info("copying file", "pack", "fun-pack")

	content := readLog(t, logPath)
	if !strings.Contains(content, "component=install") {
		t.Error("Should contain 'component=install' attribute")
	}
	if !strings.Contains(content, "pack=fun-pack") {
		t.Error("Should contain 'pack=fun-pack' attribute")
	}
}

func TestWithSession(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	WithSession("sess-123").With("component", "client").Info("client started", "pid", 12345)

	content := readLog(t, logPath)
	for _, want := range []string{"sessionID=sess-123", "component=client", "pid=12345"} {
		if !strings.Contains(content, want) {
			t.Errorf("log should contain %q", want)
		}
	}
}

func TestEnsureInit_DefaultPath(t *testing.T) {
	home := setupTestHome(t)
	Reset()
	defer Reset()

	Get().Info("default path test")

	want := filepath.Join(home, ".lunky", "logs", "lunky.log")
	if got := Path(); got != want {
		t.Fatalf("Path() = %q, want %q", got, want)
	}
	if !strings.Contains(readLog(t, want), "default path test") {
		t.Error("default log file should contain the message")
	}
}

func TestConcurrent_InitAndGet(t *testing.T) {
	for range 10 {
		Reset()

		logPath := filepath.Join(t.TempDir(), "concurrent.log")
		done := make(chan bool, 15)

		for range 5 {
			go func() {
				_ = Init(logPath)
				done <- true
			}()
			go func() {
				WithSession("sess").Info("concurrent session")
				done <- true
			}()
			go func() {
				WithComponent("comp").Info("concurrent component")
				done <- true
			}()
		}

		for range 15 {
			<-done
		}
	}
	Reset()
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "client-abc.log")

	log, closer, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	log.Warn("client stderr line")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	content := readLog(t, path)
	if !strings.Contains(content, "client stderr line") || !strings.Contains(content, "level=WARN") {
		t.Errorf("unexpected content:\n%s", content)
	}
}

func TestClientLogPath(t *testing.T) {
	home := setupTestHome(t)

	got, err := ClientLogPath("abc-123")
	if err != nil {
		t.Fatalf("ClientLogPath: %v", err)
	}
	if want := filepath.Join(home, ".lunky", "logs", "client-abc-123.log"); got != want {
		t.Errorf("ClientLogPath = %q, want %q", got, want)
	}
}

func TestClearLogs(t *testing.T) {
	home := setupTestHome(t)
	logsDir := filepath.Join(home, ".lunky", "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"lunky.log", "client-a.log", "client-b.log", "keep.txt"} {
		if err := os.WriteFile(filepath.Join(logsDir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	count, err := ClearLogs()
	if err != nil {
		t.Fatalf("ClearLogs: %v", err)
	}
	if count != 3 {
		t.Errorf("ClearLogs removed %d files, want 3", count)
	}
	if _, err := os.Stat(filepath.Join(logsDir, "keep.txt")); err != nil {
		t.Errorf("unrelated file should survive: %v", err)
	}
}
