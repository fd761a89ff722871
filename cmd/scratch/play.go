package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/platform/tui"
	"github.com/vovakirdan/tui-scratch/internal/storage"
)

var (
	flagServerURL string
	flagLogFile   string
	flagLive      bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play scratch cards in the terminal",
	Long: `Start a scratch card game in the terminal.

Controls:
  Arrows/hjkl  - Move the tile cursor
  Enter/Space  - Scratch the tile under the cursor
  B            - Bet, or scratch the whole card
  C            - Cash out
  R            - Random pick
  M/Tab        - Switch manual/auto
  G            - Start/stop auto betting
  +/-  [/]     - Bet value, number of bets
  O            - Switch demo/live
  Y            - History
  Q/Ctrl+C     - Quit

Without --server, live rounds are played against an in-process house.

Examples:
  scratch play
  scratch play --odds generous
  scratch play --server ws://localhost:8080/ws --live`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagServerURL, "server", "", "Relay server URL (ws://host:port/ws)")
	playCmd.Flags().BoolVar(&flagLive, "live", false, "Start in live mode instead of demo")
	playCmd.Flags().StringVar(&flagLogFile, "log-file", "~/.scratch/scratch.log", "Log file (the terminal is taken by the game)")
}

func runPlay(_ *cobra.Command, _ []string) error {
	game, err := loadGameConfig()
	if err != nil {
		return err
	}
	if flagLive {
		game.Relay.DemoMode = false
	}
	if flagServerURL == "" {
		flagServerURL = game.Relay.URL
	}

	var logOut io.Writer = io.Discard
	if f, logErr := openLogFile(flagLogFile); logErr == nil {
		defer f.Close()
		logOut = f
	} else {
		fmt.Fprintf(os.Stderr, "Warning: could not open log file: %v\n", logErr)
	}
	logger, err := newLogger(logOut)
	if err != nil {
		return err
	}

	rt := core.DefaultConfig()
	rt.Seed = flagSeed
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		rt.ScreenW = w
		rt.ScreenH = h
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open history database: %v\n", err)
		// Continue without storage - game still works
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	logger.Info("starting game", "server", flagServerURL, "demo", game.Relay.DemoMode, "grid", game.GridSize)
	if err := tui.Run(tui.Options{
		Game:      game,
		Runtime:   rt,
		Store:     store,
		ServerURL: flagServerURL,
		Logger:    logger,
	}); err != nil {
		return fmt.Errorf("error running game: %w", err)
	}
	return nil
}
