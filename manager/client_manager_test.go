package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modlunky/lunky/client"
	"github.com/modlunky/lunky/config"
	"github.com/modlunky/lunky/exec"
)

type discardSink struct{}

func (discardSink) Info(string) {}
func (discardSink) Warn(string) {}

// setup returns a config pointing at a fake client and a supervisor backed
// by a mock spawner scripted with script.
func setup(t *testing.T, token string, script exec.MockScript) (*config.Config, *client.Supervisor, *exec.MockSpawner) {
	t.Helper()

	clientPath := filepath.Join(t.TempDir(), client.ExecutableBaseName)
	if err := os.WriteFile(clientPath, nil, 0755); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{}
	cfg.SetAPIToken(token)
	cfg.SetClientPath(clientPath)

	mock := exec.NewMockSpawner(nil)
	mock.AddScript(clientPath, script)
	sup := client.New(discardSink{}, client.WithSpawner(mock), client.WithWaitTimeout(5*time.Millisecond))
	return cfg, sup, mock
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConnect_NoToken(t *testing.T) {
	cfg, sup, mock := setup(t, "", exec.MockScript{})
	m := New(cfg, sup)

	if err := m.Connect(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Connect err = %v, want ErrNoToken", err)
	}
	if len(mock.GetCalls()) != 0 {
		t.Error("no process should be spawned without a token")
	}
	if got := m.Affordances(); got != (Affordances{}) {
		t.Errorf("Affordances = %v, want none", got)
	}
}

func TestConnect_RejectsSecondWhileAlive(t *testing.T) {
	cfg, sup, mock := setup(t, "token", exec.MockScript{UntilKilled: true})
	m := New(cfg, sup)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := m.Connect(context.Background()); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect err = %v, want ErrAlreadyConnected", err)
	}
	if n := len(mock.GetCalls()); n != 1 {
		t.Errorf("spawn calls = %d, want 1", n)
	}

	m.Disconnect()
	if err := m.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestConnect_LaunchErrorPropagates(t *testing.T) {
	cfg, sup, _ := setup(t, "token", exec.MockScript{})
	cfg.SetClientPath(filepath.Join(t.TempDir(), "missing"))
	m := New(cfg, sup)

	err := m.Connect(context.Background())
	if !errors.Is(err, client.ErrExecutableNotFound) {
		t.Fatalf("Connect err = %v, want ErrExecutableNotFound", err)
	}
	if m.Session() != nil {
		t.Error("failed connect should not store a session")
	}
	if got := m.Affordances(); !got.CanConnect || got.CanDisconnect {
		t.Errorf("Affordances = %v, want connect only", got)
	}
}

func TestAffordances_Lifecycle(t *testing.T) {
	cfg, sup, _ := setup(t, "token", exec.MockScript{UntilKilled: true})
	m := New(cfg, sup)

	if got := m.Affordances(); got != (Affordances{CanConnect: true}) {
		t.Errorf("before connect = %v", got)
	}

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := m.Affordances(); got != (Affordances{CanDisconnect: true}) {
		t.Errorf("while connected = %v", got)
	}

	m.Disconnect()
	if err := m.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := m.Affordances(); got != (Affordances{CanConnect: true}) {
		t.Errorf("after exit = %v", got)
	}
}

func TestPoll_ReclaimsOnce(t *testing.T) {
	cfg, sup, _ := setup(t, "token", exec.MockScript{Stdout: []string{"bye"}})

	var closed atomic.Int32
	m := New(cfg, sup, WithOnClosed(func(s *client.Session) {
		if s.State() != client.Exited {
			t.Errorf("OnClosed with state %v", s.State())
		}
		closed.Add(1)
	}))

	if m.Poll() {
		t.Error("Poll without a session should return false")
	}

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := m.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if !m.Poll() {
		t.Error("Poll should reclaim the exited session")
	}
	if m.Poll() {
		t.Error("second Poll should find nothing to reclaim")
	}
	if closed.Load() != 1 {
		t.Errorf("OnClosed fired %d times, want 1", closed.Load())
	}
	if m.Session() != nil {
		t.Error("session should be cleared after Poll")
	}
}

func TestWatch_DetectsNaturalExit(t *testing.T) {
	cfg, sup, _ := setup(t, "token", exec.MockScript{Stdout: []string{"hello"}})

	var closed atomic.Bool
	m := New(cfg, sup, WithOnClosed(func(*client.Session) { closed.Store(true) }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	go m.Watch(ctx, 10*time.Millisecond)

	waitFor(t, closed.Load)
	if got := m.Affordances(); !got.CanConnect {
		t.Errorf("Affordances after natural exit = %v, want connect", got)
	}
}

func TestConnect_AfterExitStartsNewSession(t *testing.T) {
	cfg, sup, mock := setup(t, "token", exec.MockScript{})
	m := New(cfg, sup)

	for range 2 {
		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("Connect: %v", err)
		}
		if err := m.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if n := len(mock.GetCalls()); n != 2 {
		t.Errorf("spawn calls = %d, want 2", n)
	}
}

func TestConnect_OnConnectedBeforeOutput(t *testing.T) {
	cfg, sup, _ := setup(t, "token", exec.MockScript{Stdout: []string{"hi"}})

	var state client.State
	var calls int
	m := New(cfg, sup, WithOnConnected(func(s *client.Session) {
		calls++
		state = s.State()
	}))

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := m.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if calls != 1 {
		t.Errorf("OnConnected fired %d times, want 1", calls)
	}
	if state != client.Running {
		t.Errorf("state in OnConnected = %v, want Running", state)
	}
}

func TestDisconnect_NoSession(t *testing.T) {
	cfg, sup, _ := setup(t, "token", exec.MockScript{})
	New(cfg, sup).Disconnect()
}

func TestWait_ContextCancelled(t *testing.T) {
	cfg, sup, _ := setup(t, "token", exec.MockScript{UntilKilled: true})
	m := New(cfg, sup)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer func() {
		m.Disconnect()
		m.Wait(context.Background())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait err = %v, want DeadlineExceeded", err)
	}
}

func TestClientPath(t *testing.T) {
	cfg := &config.Config{}
	launcherDir := t.TempDir()
	cfg.SetLauncherExe(filepath.Join(launcherDir, "modlunky2"))
	m := New(cfg, nil)

	got, err := m.ClientPath()
	if err != nil {
		t.Fatalf("ClientPath: %v", err)
	}
	if filepath.Dir(got) != launcherDir {
		t.Errorf("ClientPath = %q, want a file in %q", got, launcherDir)
	}

	cfg.SetClientPath("/opt/override/s99-client")
	if got, _ := m.ClientPath(); got != "/opt/override/s99-client" {
		t.Errorf("ClientPath with override = %q", got)
	}
}

func TestAffordancesString(t *testing.T) {
	tests := []struct {
		a    Affordances
		want string
	}{
		{a: Affordances{}, want: "none"},
		{a: Affordances{CanConnect: true}, want: "connect"},
		{a: Affordances{CanDisconnect: true}, want: "disconnect"},
		{a: Affordances{CanConnect: true, CanDisconnect: true}, want: "connect,disconnect"},
	}
	for _, tt := range tests {
		if got := tt.a.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.a, got, tt.want)
		}
	}
}
