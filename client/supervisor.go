package client

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/modlunky/lunky/exec"
	"github.com/modlunky/lunky/logger"
)

// CredentialEnvVar is the environment variable the client reads its API token from.
const CredentialEnvVar = "SFYI_API_TOKEN"

// DefaultWaitTimeout bounds each wait cycle of the supervisory loop, and so
// how long a stop request may go unnoticed.
const DefaultWaitTimeout = 100 * time.Millisecond

// Supervisor launches client processes and hands each one to a Session.
type Supervisor struct {
	sink        Sink
	spawner     exec.Spawner
	waitTimeout time.Duration
	env         []string
	log         *slog.Logger
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithSpawner replaces the process spawner (for testing).
func WithSpawner(s exec.Spawner) Option {
	return func(sup *Supervisor) { sup.spawner = s }
}

// WithWaitTimeout sets the supervisory loop's wait cycle.
func WithWaitTimeout(d time.Duration) Option {
	return func(sup *Supervisor) {
		if d > 0 {
			sup.waitTimeout = d
		}
	}
}

// WithEnv sets the parent environment the credential is added to.
// Defaults to os.Environ() at launch time.
func WithEnv(env []string) Option {
	return func(sup *Supervisor) { sup.env = env }
}

// WithLogger sets the logger used for lifecycle records.
func WithLogger(log *slog.Logger) Option {
	return func(sup *Supervisor) { sup.log = log }
}

// New creates a Supervisor that relays client output to sink.
func New(sink Sink, opts ...Option) *Supervisor {
	sup := &Supervisor{
		sink:        sink,
		spawner:     exec.GetDefaultSpawner(),
		waitTimeout: DefaultWaitTimeout,
	}
	for _, opt := range opts {
		opt(sup)
	}
	if sup.log == nil {
		sup.log = logger.WithComponent("client")
	}
	return sup
}

// Start validates the inputs and spawns the client. On failure no process
// exists, the failure is reported to the sink at warning severity, and a
// *LaunchError is returned. On success the Session is Running; the caller
// must call Run to drain its output.
func (sup *Supervisor) Start(ctx context.Context, path, credential string) (*Session, error) {
	if credential == "" {
		return nil, sup.fail(&LaunchError{Kind: MissingCredential})
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, sup.fail(&LaunchError{Kind: ExecutableNotFound, Path: path, Err: err})
	}
	if info.IsDir() {
		return nil, sup.fail(&LaunchError{Kind: ExecutableNotFound, Path: path})
	}

	env := sup.env
	if env == nil {
		env = os.Environ()
	}

	id := uuid.New().String()
	log := sup.log.With("sessionID", id)
	log.Info("launching client", "path", path)

	proc, err := sup.spawner.Spawn(ctx, exec.Spec{
		Path: path,
		Env:  replaceEnvVar(env, CredentialEnvVar, credential),
	})
	if err != nil {
		return nil, sup.fail(&LaunchError{Kind: SpawnFailed, Path: path, Err: err})
	}

	log.Info("client started", "pid", proc.Pid())
	return newSession(id, path, proc, sup.sink, sup.waitTimeout, log), nil
}

func (sup *Supervisor) fail(err *LaunchError) error {
	sup.sink.Warn(err.Error())
	return err
}

// Launch starts a session and runs its supervisory loop on a new goroutine.
func Launch(ctx context.Context, sup *Supervisor, path, credential string) (*Session, error) {
	sess, err := sup.Start(ctx, path, credential)
	if err != nil {
		return nil, err
	}
	go sess.Run()
	return sess, nil
}

func replaceEnvVar(env []string, key, value string) []string {
	prefix := key + "="
	updated := make([]string, 0, len(env)+1)
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			continue
		}
		updated = append(updated, entry)
	}
	updated = append(updated, prefix+value)
	return updated
}
