package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-scratch/internal/platform/tui"
)

var (
	flagSSHAddr      string
	flagHostKey      string
	flagIdleTimeout  int
	flagSSHServerURL string
	flagSSHLive      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scratch card SSH server",
	Long: `Start an SSH server that allows users to connect and play.

Each SSH connection gets its own game: a private coordinator and, without
--server, a private in-process house. All sessions share the history database.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.scratch/host_key

Examples:
  scratch serve                                  # Listen on :23235
  scratch serve --ssh :2222                      # Listen on port 2222
  scratch serve --server ws://localhost:8080/ws  # Sessions play against a relay

Users can connect with:
  ssh localhost -p 23235`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23235", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().StringVar(&flagSSHServerURL, "server", "", "Relay server URL for live rounds")
	serveCmd.Flags().BoolVar(&flagSSHLive, "live", false, "Start sessions in live mode instead of demo")
}

func runServe(cmd *cobra.Command, _ []string) error {
	game, err := loadGameConfig()
	if err != nil {
		return err
	}
	if flagSSHLive {
		game.Relay.DemoMode = false
	}
	if flagSSHServerURL == "" {
		flagSSHServerURL = game.Relay.URL
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	cfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		DBPath:      flagDBPath,
		ServerURL:   flagSSHServerURL,
		Game:        game,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		Logger:      logger,
	}

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		return fmt.Errorf("error creating server: %w", err)
	}

	fmt.Printf("Starting scratch SSH server on %s\n", cfg.Address)
	fmt.Printf("Connect with: ssh localhost -p %s\n", portOf(cfg.Address))
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
