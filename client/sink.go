package client

import "log/slog"

// Sink receives the client's output lines and launch failures.
type Sink interface {
	Info(msg string)
	Warn(msg string)
}

type logSink struct {
	log *slog.Logger
}

// NewLogSink returns a Sink that writes each message as a structured log record.
func NewLogSink(log *slog.Logger) Sink {
	return &logSink{log: log}
}

func (s *logSink) Info(msg string) { s.log.Info(msg) }
func (s *logSink) Warn(msg string) { s.log.Warn(msg) }

// MultiSink forwards every message to each of its sinks in order.
type MultiSink []Sink

func (m MultiSink) Info(msg string) {
	for _, s := range m {
		s.Info(msg)
	}
}

func (m MultiSink) Warn(msg string) {
	for _, s := range m {
		s.Warn(msg)
	}
}
