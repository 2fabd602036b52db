package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/modlunky/lunky/client"
	"github.com/modlunky/lunky/logger"
)

// terminalSink prints client output: info lines to out, warnings to errOut.
type terminalSink struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

func (s *terminalSink) Info(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, msg)
}

func (s *terminalSink) Warn(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.errOut, render(warnStyle, msg))
}

// sessionSink forwards to the terminal, the main log and, while a session is
// attached, to that session's own log file.
type sessionSink struct {
	terminal client.Sink
	main     client.Sink

	mu     sync.Mutex
	file   client.Sink
	closer io.Closer
}

func (s *sessionSink) current() client.Sink {
	s.mu.Lock()
	defer s.mu.Unlock()
	sinks := client.MultiSink{s.terminal}
	if s.main != nil {
		sinks = append(sinks, s.main)
	}
	if s.file != nil {
		sinks = append(sinks, s.file)
	}
	return sinks
}

func (s *sessionSink) Info(msg string) { s.current().Info(msg) }
func (s *sessionSink) Warn(msg string) { s.current().Warn(msg) }

// attach opens the client log for sess. Failure only loses the file copy.
func (s *sessionSink) attach(sess *client.Session) {
	log := logger.WithSession(sess.ID)

	path, err := logger.ClientLogPath(sess.ID)
	if err != nil {
		log.Warn("failed to resolve client log path", "error", err)
		return
	}
	fileLog, closer, err := logger.OpenFile(path)
	if err != nil {
		log.Warn("failed to open client log", "path", path, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = client.NewLogSink(fileLog.With("sessionID", sess.ID))
	s.closer = closer
	log.Debug("client output logged", "path", path)
}

func (s *sessionSink) detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer != nil {
		s.closer.Close()
	}
	s.file = nil
	s.closer = nil
}
