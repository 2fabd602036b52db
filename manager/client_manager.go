// Package manager coordinates the connect/disconnect lifecycle of the
// companion client on behalf of a front end.
package manager

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/modlunky/lunky/client"
	"github.com/modlunky/lunky/config"
	"github.com/modlunky/lunky/logger"
)

// Compile-time interface satisfaction checks.
var (
	_ ClientConfig = (*config.Config)(nil)
	_ Launcher     = (*client.Supervisor)(nil)
)

var (
	// ErrAlreadyConnected is returned by Connect while a session is alive.
	ErrAlreadyConnected = errors.New("client already connected")
	// ErrNoToken is returned by Connect when no API token is configured.
	ErrNoToken = errors.New("no API token configured")
)

// ClientConfig defines the configuration ClientManager reads on each Connect.
//
// *config.Config satisfies this interface implicitly.
type ClientConfig interface {
	GetAPIToken() string
	GetClientPath() string
	GetLauncherExe() string
}

// Launcher starts client sessions. *client.Supervisor satisfies it.
type Launcher interface {
	Start(ctx context.Context, path, credential string) (*client.Session, error)
}

// Option configures a ClientManager.
type Option func(*ClientManager)

// WithOnClosed sets a callback fired by Poll when it reclaims an exited session.
func WithOnClosed(fn func(*client.Session)) Option {
	return func(m *ClientManager) { m.onClosed = fn }
}

// WithOnConnected sets a callback fired by Connect after the client starts
// and before its output is relayed.
func WithOnConnected(fn func(*client.Session)) Option {
	return func(m *ClientManager) { m.onConnected = fn }
}

// WithLogger sets the manager's logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *ClientManager) { m.log = log }
}

// ClientManager holds at most one live client session and reclaims it once
// it exits.
type ClientManager struct {
	config      ClientConfig
	launcher    Launcher
	onClosed    func(*client.Session)
	onConnected func(*client.Session)
	log         *slog.Logger

	mu      sync.Mutex
	session *client.Session
}

// New creates a ClientManager.
func New(cfg ClientConfig, launcher Launcher, opts ...Option) *ClientManager {
	m := &ClientManager{
		config:   cfg,
		launcher: launcher,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.WithComponent("manager")
	}
	return m
}

// ClientPath returns the configured client override, or the executable next
// to the launcher.
func (m *ClientManager) ClientPath() (string, error) {
	if p := m.config.GetClientPath(); p != "" {
		return p, nil
	}
	return client.Path(m.config.GetLauncherExe(), runtime.GOOS)
}

// Connect launches a client session and starts its supervisory loop.
// Only one session may be alive at a time.
func (m *ClientManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil && m.session.IsAlive() {
		return ErrAlreadyConnected
	}

	token := m.config.GetAPIToken()
	if token == "" {
		return ErrNoToken
	}

	path, err := m.ClientPath()
	if err != nil {
		return err
	}

	sess, err := m.launcher.Start(ctx, path, token)
	if err != nil {
		return err
	}
	if m.onConnected != nil {
		m.onConnected(sess)
	}
	go sess.Run()

	m.session = sess
	m.log.Info("client connected", "sessionID", sess.ID, "pid", sess.PID())
	return nil
}

// Disconnect asks the current session to stop. It does nothing without one.
func (m *ClientManager) Disconnect() {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()

	if sess == nil {
		return
	}
	m.log.Info("disconnecting client", "sessionID", sess.ID)
	sess.RequestStop()
}

// Session returns the current session, or nil.
func (m *ClientManager) Session() *client.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Poll reclaims the current session if it has exited and fires the
// OnClosed callback. Returns true when a session was reclaimed.
func (m *ClientManager) Poll() bool {
	m.mu.Lock()
	sess := m.session
	if sess == nil || sess.IsAlive() {
		m.mu.Unlock()
		return false
	}
	m.session = nil
	m.mu.Unlock()

	m.log.Debug("reclaimed exited client session", "sessionID", sess.ID, "exitCode", sess.ExitCode())
	if m.onClosed != nil {
		m.onClosed(sess)
	}
	return true
}

// Watch calls Poll every interval until ctx is done. A non-positive
// interval uses config.DefaultPollInterval.
func (m *ClientManager) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = config.DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll()
		}
	}
}

// Affordances reports which of connect and disconnect are currently possible.
func (m *ClientManager) Affordances() Affordances {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()

	if sess != nil && sess.IsAlive() {
		return Affordances{CanDisconnect: true}
	}
	return Affordances{CanConnect: m.config.GetAPIToken() != ""}
}

// Wait blocks until the current session exits or ctx is done. It returns
// immediately when there is no session.
func (m *ClientManager) Wait(ctx context.Context) error {
	sess := m.Session()
	if sess == nil {
		return nil
	}

	select {
	case <-sess.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
