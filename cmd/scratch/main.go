// scratch is a terminal scratch card game with auto betting and a
// WebSocket relay backend.
//
// Usage:
//
//	scratch play              - Play in the terminal
//	scratch simulate          - Run a headless auto-bet session
//	scratch relay             - Start the WebSocket house server
//	scratch serve             - Start SSH server for remote play
//	scratch history           - Show recorded rounds and auto runs
//
// Global flags:
//
//	--seed <value>      - Set RNG seed for reproducible rounds
//	--db <path>         - Set database path (default: ~/.scratch/history.db)
//	--config <path>     - Use a custom game config YAML
//	--odds <preset>     - Demo odds preset: generous, normal, tight
//	--log-level <level> - debug, info, warn, error
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-scratch/internal/config"
)

var (
	// Global flags
	flagSeed     int64
	flagDBPath   string
	flagConfig   string
	flagOdds     string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scratch",
	Short: "Scratch cards in your terminal",
	Long: `Scratch is a terminal scratch card game. Bet, scratch tiles by hand
or let auto betting play rounds for you, in demo mode or against a relay.

Available commands:
  play      - Play in the terminal
  simulate  - Run a headless auto-bet session
  relay     - Start the WebSocket house server
  serve     - Start SSH server for remote play
  history   - Show recorded rounds and auto runs

Examples:
  scratch play
  scratch play --server ws://localhost:8080/ws
  scratch simulate --rounds 100 --live
  scratch relay --addr :8080
  scratch serve --ssh :2222
  scratch history`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.scratch/history.db", "Path to history database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom game config YAML")
	rootCmd.PersistentFlags().StringVar(&flagOdds, "odds", "", "Demo odds preset: generous, normal, tight")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadGameConfig loads the game config and applies the odds preset.
func loadGameConfig() (config.GameConfig, error) {
	cfg, err := config.LoadGame(flagConfig)
	if err != nil {
		return cfg, err
	}
	preset, err := config.ParseOddsPreset(flagOdds)
	if err != nil {
		return cfg, err
	}
	config.ApplyOddsPreset(&cfg, preset)
	return cfg, nil
}

// newLogger creates a logger writing to w at the --log-level level.
func newLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	}), nil
}

// expandHome expands a leading ~ to the home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// openLogFile opens the TUI log file for appending.
func openLogFile(path string) (*os.File, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}
