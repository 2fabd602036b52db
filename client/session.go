package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/modlunky/lunky/exec"
)

// State is a Session's lifecycle stage.
type State int32

const (
	NotStarted State = iota
	Running
	Stopping
	Exited
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	case Exited:
		return "Exited"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// streamEvent is one line read from a stream, or its end.
type streamEvent struct {
	line   string
	stderr bool
	eof    bool
}

// Session is one supervised run of the client.
type Session struct {
	// ID identifies the session in log records.
	ID string
	// ExecutablePath is the client that was launched.
	ExecutablePath string

	proc        exec.Process
	sink        Sink
	waitTimeout time.Duration
	log         *slog.Logger

	state         atomic.Int32
	stopRequested atomic.Bool
	runStarted    atomic.Bool
	exitCode      atomic.Int32

	stop chan struct{}
	done chan struct{}
}

func newSession(id, path string, proc exec.Process, sink Sink, waitTimeout time.Duration, log *slog.Logger) *Session {
	s := &Session{
		ID:             id,
		ExecutablePath: path,
		proc:           proc,
		sink:           sink,
		waitTimeout:    waitTimeout,
		log:            log,
		stop:           make(chan struct{}, 1),
		done:           make(chan struct{}),
	}
	s.exitCode.Store(-1)
	s.state.Store(int32(Running))
	return s
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	return State(s.state.Load())
}

// IsAlive reports whether the supervisory loop has not yet reached Exited.
func (s *Session) IsAlive() bool {
	switch s.State() {
	case Running, Stopping:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when the session reaches Exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// ExitCode returns the client's exit code once Exited, and -1 before that
// or when the client was killed.
func (s *Session) ExitCode() int {
	return int(s.exitCode.Load())
}

// PID returns the client's process ID.
func (s *Session) PID() int {
	return s.proc.Pid()
}

// RequestStop asks the supervisory loop to kill the client. It never blocks
// and has no effect once the session has exited. Repeated calls are no-ops.
func (s *Session) RequestStop() {
	if s.State() == Exited {
		return
	}
	if s.stopRequested.Swap(true) {
		return
	}
	select {
	case s.stop <- struct{}{}:
	default:
	}
}

// Run is the supervisory loop. It relays output until both streams end,
// killing the client once if a stop was requested, then reaps it and marks
// the session Exited. Only the first call does anything.
func (s *Session) Run() {
	if s.runStarted.Swap(true) {
		return
	}

	events := make(chan streamEvent)
	go s.readStream(s.proc.Stdout(), false, events)
	go s.readStream(s.proc.Stderr(), true, events)

	ticker := time.NewTicker(s.waitTimeout)
	defer ticker.Stop()

	killed := false
	open := 2
	for open > 0 {
		if !killed && s.stopRequested.Load() {
			s.kill()
			killed = true
		}

		select {
		case ev := <-events:
			switch {
			case ev.eof:
				open--
			case ev.stderr:
				s.sink.Warn(ev.line)
			default:
				s.sink.Info(ev.line)
			}
		case <-s.stop:
		case <-ticker.C:
		}
	}

	err := s.proc.Wait()
	s.exitCode.Store(int32(exec.ExitCode(err)))
	s.state.Store(int32(Exited))
	close(s.done)
	s.log.Info("client closed", "exitCode", s.ExitCode(), "killed", killed)
}

func (s *Session) kill() {
	s.state.Store(int32(Stopping))
	s.log.Info("stopping client", "pid", s.proc.Pid())
	if err := s.proc.Kill(); err != nil {
		s.log.Warn("failed to kill client", "pid", s.proc.Pid(), "error", err)
	}
}

// readStream sends each non-blank line of r, then an end marker. A read
// error ends the stream the same way EOF does.
func (s *Session) readStream(r io.Reader, stderr bool, events chan<- streamEvent) {
	name := "stdout"
	if stderr {
		name = "stderr"
	}

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if text := strings.TrimRightFunc(line, unicode.IsSpace); text != "" {
			events <- streamEvent{line: text, stderr: stderr}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("error reading client output", "stream", name, "error", err)
			}
			events <- streamEvent{stderr: stderr, eof: true}
			return
		}
	}
}

