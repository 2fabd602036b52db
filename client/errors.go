package client

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a launch attempt failed.
type ErrorKind int

const (
	// MissingCredential means no API token was supplied.
	MissingCredential ErrorKind = iota + 1
	// ExecutableNotFound means the client path does not name an existing file.
	ExecutableNotFound
	// SpawnFailed means the operating system refused to start the process.
	SpawnFailed
)

// Sentinel errors matched by errors.Is against a *LaunchError.
var (
	ErrMissingCredential  = errors.New("no API token configured")
	ErrExecutableNotFound = errors.New("client executable not found")
	ErrSpawnFailed        = errors.New("failed to start client")
)

func (k ErrorKind) String() string {
	switch k {
	case MissingCredential:
		return "MissingCredential"
	case ExecutableNotFound:
		return "ExecutableNotFound"
	case SpawnFailed:
		return "SpawnFailed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case MissingCredential:
		return ErrMissingCredential
	case ExecutableNotFound:
		return ErrExecutableNotFound
	case SpawnFailed:
		return ErrSpawnFailed
	default:
		return nil
	}
}

// LaunchError is returned by Supervisor.Start when no process was created.
type LaunchError struct {
	Kind ErrorKind
	Path string // Client executable path, empty for MissingCredential
	Err  error  // Underlying cause, if any
}

func (e *LaunchError) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is the sentinel for this error's kind.
func (e *LaunchError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
