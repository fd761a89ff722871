package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/tui-scratch/internal/config"
	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23235").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.scratch/host_key.
	HostKeyPath string

	// DBPath is the path to the history database. Empty disables history.
	DBPath string

	// ServerURL is the relay every session plays live rounds against.
	// Empty gives each session its own in-process house.
	ServerURL string

	// Game is the card and timing configuration shared by all sessions.
	Game config.GameConfig

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	Logger *log.Logger
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23235",
		DBPath:      "~/.scratch/history.db",
		Game:        config.DefaultGameConfig(),
		IdleTimeout: 30 * time.Minute,
	}
}

// SSHServer wraps a Wish SSH server for scratch card sessions.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	store  *storage.Store
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
		})
	}
	logger = logger.WithPrefix("scratch-ssh")

	hostKeyPath, err := resolveHostKeyPath(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}

	var store *storage.Store
	if cfg.DBPath != "" {
		store, err = storage.Open(cfg.DBPath)
		if err != nil {
			logger.Warn("could not open history database", "error", err)
			store = nil
		}
	}

	srv := &SSHServer{
		config: cfg,
		store:  store,
		logger: logger,
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a game for each SSH session. Sessions share the
// history store but never a coordinator.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	rt := core.DefaultConfig()
	rt.ScreenW = pty.Window.Width
	rt.ScreenH = pty.Window.Height
	rt.Seed = time.Now().UnixNano()

	m := NewModel(Options{
		Game:      s.config.Game,
		Runtime:   rt,
		Store:     s.store,
		ServerURL: s.config.ServerURL,
		Logger:    s.logger.With("user", sshSession.User()),
	})
	if err := m.Start(sshSession.Context()); err != nil {
		s.logger.Error("cannot start session", "user", sshSession.User(), "error", err)
		fmt.Fprintln(sshSession.Stderr(), "cannot reach the game server")
		return nil, nil
	}
	go func() {
		<-sshSession.Context().Done()
		m.Close()
	}()

	return m, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe serves SSH sessions until ctx is done, then shuts down.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	errc := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		s.logger.Error("server error", "error", err)
		s.Shutdown() //nolint:errcheck // Already failing
		return err
	}
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.store != nil {
		s.store.Close()
	}

	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// resolveHostKeyPath defaults the host key to ~/.scratch/host_key and makes
// sure its directory exists.
func resolveHostKeyPath(path string) (string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot get home directory: %w", err)
		}
		path = filepath.Join(home, ".scratch", "host_key")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("cannot create host key directory: %w", err)
	}
	return path, nil
}
