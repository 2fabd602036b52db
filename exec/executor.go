// Package exec provides an abstraction over spawning long-running child
// processes for testability. Production code uses RealSpawner, while tests
// can inject a MockSpawner that replays scripted output and records kills.
package exec

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strconv"
	"sync"
)

// Spec describes a process to spawn.
type Spec struct {
	Path string
	Args []string
	Env  []string
	Dir  string
}

// Spawner starts child processes.
type Spawner interface {
	// Spawn starts the process described by spec with stdout and stderr piped.
	// ctx bounds only the spawn itself; the process outlives it.
	Spawn(ctx context.Context, spec Spec) (Process, error)
}

// Process is a running child with both output streams attached.
type Process interface {
	// Stdout returns the read side of the child's standard output.
	Stdout() io.Reader

	// Stderr returns the read side of the child's standard error.
	Stderr() io.Reader

	// Pid returns the OS process ID.
	Pid() int

	// Kill forcibly terminates the process.
	Kill() error

	// Wait reaps the process. Both streams must have been read to EOF first.
	Wait() error
}

// ExitCode extracts the exit code from an error returned by Process.Wait.
// Returns 0 for nil, and -1 when the error carries no code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return -1
}

// RealSpawner spawns processes using os/exec.
type RealSpawner struct{}

// NewRealSpawner returns a new RealSpawner.
func NewRealSpawner() *RealSpawner {
	return &RealSpawner{}
}

// Spawn starts the process with both output streams piped.
func (s *RealSpawner) Spawn(ctx context.Context, spec Spec) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &realProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

// realProcess wraps a started exec.Cmd.
type realProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (p *realProcess) Stdout() io.Reader { return p.stdout }
func (p *realProcess) Stderr() io.Reader { return p.stderr }
func (p *realProcess) Pid() int          { return p.cmd.Process.Pid }
func (p *realProcess) Kill() error       { return p.cmd.Process.Kill() }
func (p *realProcess) Wait() error       { return p.cmd.Wait() }

// MockScript defines the behavior of a mocked process.
type MockScript struct {
	Stdout   []string // Lines written to stdout, newline appended
	Stderr   []string // Lines written to stderr, newline appended
	ExitCode int      // Code reported by Wait after a natural exit

	// UntilKilled keeps both streams open after the scripted lines until Kill.
	UntilKilled bool

	// SpawnErr, when set, makes Spawn fail without creating a process.
	SpawnErr error
}

// MockExitError is returned by a mock process's Wait for a non-zero exit.
type MockExitError struct {
	Code int
}

func (e *MockExitError) Error() string { return "exit status " + strconv.Itoa(e.Code) }

// ExitCode returns the scripted exit code.
func (e *MockExitError) ExitCode() int { return e.Code }

// MockSpawner returns scripted processes keyed by executable path.
type MockSpawner struct {
	mu       sync.RWMutex
	scripts  map[string]MockScript
	calls    []Spec
	procs    []*MockProcess
	fallback Spawner
}

// NewMockSpawner creates a new MockSpawner.
// If fallback is provided, unscripted paths are delegated to it.
func NewMockSpawner(fallback Spawner) *MockSpawner {
	return &MockSpawner{
		scripts:  make(map[string]MockScript),
		fallback: fallback,
	}
}

// AddScript registers the behavior for processes spawned from path.
func (s *MockSpawner) AddScript(path string, script MockScript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[path] = script
}

// GetCalls returns every Spec passed to Spawn, including failed spawns.
func (s *MockSpawner) GetCalls() []Spec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	calls := make([]Spec, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// Processes returns the mock processes created so far.
func (s *MockSpawner) Processes() []*MockProcess {
	s.mu.RLock()
	defer s.mu.RUnlock()
	procs := make([]*MockProcess, len(s.procs))
	copy(procs, s.procs)
	return procs
}

// Spawn creates a mock process for a scripted path.
func (s *MockSpawner) Spawn(ctx context.Context, spec Spec) (Process, error) {
	s.mu.Lock()
	s.calls = append(s.calls, spec)
	script, ok := s.scripts[spec.Path]
	s.mu.Unlock()

	if !ok {
		if s.fallback != nil {
			return s.fallback.Spawn(ctx, spec)
		}
		script = MockScript{}
	}

	if script.SpawnErr != nil {
		return nil, script.SpawnErr
	}

	s.mu.Lock()
	proc := newMockProcess(1000+len(s.procs), script)
	s.procs = append(s.procs, proc)
	s.mu.Unlock()

	return proc, nil
}

// MockProcess replays a MockScript over in-memory pipes.
type MockProcess struct {
	pid    int
	script MockScript

	stdoutR, stderrR *io.PipeReader

	killOnce  sync.Once
	killed    chan struct{}
	exited    chan struct{}
	mu        sync.Mutex
	killCount int
}

func newMockProcess(pid int, script MockScript) *MockProcess {
	p := &MockProcess{
		pid:    pid,
		script: script,
		killed: make(chan struct{}),
		exited: make(chan struct{}),
	}

	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	p.stdoutR, p.stderrR = stdoutR, stderrR

	var wg sync.WaitGroup
	wg.Add(2)
	go p.feed(&wg, stdoutW, script.Stdout)
	go p.feed(&wg, stderrW, script.Stderr)
	go func() {
		wg.Wait()
		close(p.exited)
	}()

	return p
}

// feed writes the scripted lines, then closes the stream either immediately
// or once the process is killed.
func (p *MockProcess) feed(wg *sync.WaitGroup, w *io.PipeWriter, lines []string) {
	defer wg.Done()
	defer w.Close()

	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return
		}
	}
	if p.script.UntilKilled {
		<-p.killed
	}
}

func (p *MockProcess) Stdout() io.Reader { return p.stdoutR }
func (p *MockProcess) Stderr() io.Reader { return p.stderrR }
func (p *MockProcess) Pid() int          { return p.pid }

// Kill records the call and releases streams held open by UntilKilled.
func (p *MockProcess) Kill() error {
	p.mu.Lock()
	p.killCount++
	p.mu.Unlock()

	p.killOnce.Do(func() { close(p.killed) })
	return nil
}

// KillCount returns how many times Kill was called.
func (p *MockProcess) KillCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killCount
}

// Wait blocks until both streams are closed.
func (p *MockProcess) Wait() error {
	<-p.exited
	select {
	case <-p.killed:
		return &MockExitError{Code: -1}
	default:
	}
	if p.script.ExitCode != 0 {
		return &MockExitError{Code: p.script.ExitCode}
	}
	return nil
}

// Ensure implementations satisfy the interface.
var _ Spawner = (*RealSpawner)(nil)
var _ Spawner = (*MockSpawner)(nil)
var _ Process = (*realProcess)(nil)
var _ Process = (*MockProcess)(nil)

// defaultSpawnerMu protects defaultSpawner for concurrent access.
var defaultSpawnerMu sync.RWMutex

// defaultSpawner is the global default spawner (can be swapped for testing).
var defaultSpawner Spawner = NewRealSpawner()

// GetDefaultSpawner returns the global default spawner.
func GetDefaultSpawner() Spawner {
	defaultSpawnerMu.RLock()
	defer defaultSpawnerMu.RUnlock()
	return defaultSpawner
}

// SetDefaultSpawner sets the global default spawner.
func SetDefaultSpawner(s Spawner) {
	defaultSpawnerMu.Lock()
	defer defaultSpawnerMu.Unlock()
	defaultSpawner = s
}
