package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tui-scratch/internal/betting"
	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/relay"
	"github.com/vovakirdan/tui-scratch/internal/schedule"
	"github.com/vovakirdan/tui-scratch/internal/storage"
)

var (
	flagSimRounds    int
	flagSimDelay     time.Duration
	flagSimLive      bool
	flagSimServer    string
	flagSimRecord    bool
	flagSimOnWin     float64
	flagSimOnLoss    float64
	flagSimStopGain  float64
	flagSimStopLoss  float64
	flagSimBet       float64
	flagSimWaitHouse time.Duration
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a headless auto-bet session",
	Long: `Play an auto-bet run without a terminal UI and log every settled round.

Rounds are resolved locally in demo mode. With --live they are played against
an in-process house, or against a relay server given by --server.

Strategy flags take a percent: --on-loss 50 raises the bet by half after every
loss, 0 resets it to the base bet.

Examples:
  scratch simulate --rounds 100
  scratch simulate --rounds 50 --live --on-loss 100 --stop-loss 20
  scratch simulate --rounds 10 --server ws://localhost:8080/ws`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&flagSimRounds, "rounds", 10, "Number of auto bets to play")
	simulateCmd.Flags().DurationVar(&flagSimDelay, "delay", 50*time.Millisecond, "Pause between auto rounds")
	simulateCmd.Flags().BoolVar(&flagSimLive, "live", false, "Play against a house instead of demo odds")
	simulateCmd.Flags().StringVar(&flagSimServer, "server", "", "Relay server URL (implies --live)")
	simulateCmd.Flags().BoolVar(&flagSimRecord, "record", false, "Save rounds to the history database")
	simulateCmd.Flags().Float64Var(&flagSimOnWin, "on-win", 0, "Percent bet increase after a win (0 = reset)")
	simulateCmd.Flags().Float64Var(&flagSimOnLoss, "on-loss", 0, "Percent bet increase after a loss (0 = reset)")
	simulateCmd.Flags().Float64Var(&flagSimStopGain, "stop-profit", 0, "Stop once profit reaches this amount (live)")
	simulateCmd.Flags().Float64Var(&flagSimStopLoss, "stop-loss", 0, "Stop once loss reaches this amount (live)")
	simulateCmd.Flags().Float64Var(&flagSimBet, "bet", 0, "Base bet (0 = config default)")
	simulateCmd.Flags().DurationVar(&flagSimWaitHouse, "connect-timeout", 5*time.Second, "How long to wait for the backend")
}

// simRecorder logs settled rounds and signals the end of the auto run.
type simRecorder struct {
	store    *storage.Store
	logger   *log.Logger
	finished chan betting.AutoRunRecord

	rounds, wins, losses int
}

func (r *simRecorder) SaveRound(rec betting.RoundRecord) error {
	r.rounds++
	switch rec.Result {
	case core.ResultWin:
		r.wins++
	case core.ResultLost:
		r.losses++
	}
	r.logger.Info("round settled",
		"n", r.rounds,
		"result", rec.Result,
		"key", rec.WinningKey,
		"bet", betting.FormatAmount(rec.Bet),
		"reason", rec.Reason,
	)
	if r.store != nil {
		return r.store.SaveRound(rec)
	}
	return nil
}

func (r *simRecorder) SaveAutoRun(rec betting.AutoRunRecord) error {
	var err error
	if r.store != nil {
		err = r.store.SaveAutoRun(rec)
	}
	select {
	case r.finished <- rec:
	default:
	}
	return err
}

// strategyFor maps a percent flag to a strategy mode.
func strategyFor(percent float64) betting.StrategyMode {
	if percent > 0 {
		return betting.StrategyIncrease
	}
	return betting.StrategyReset
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	if flagSimRounds <= 0 {
		return errors.New("--rounds must be positive")
	}
	game, err := loadGameConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	live := flagSimLive || flagSimServer != ""
	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rec := &simRecorder{logger: logger.WithPrefix("simulate"), finished: make(chan betting.AutoRunRecord, 1)}
	if flagSimRecord {
		store, openErr := storage.Open(flagDBPath)
		if openErr != nil {
			return openErr
		}
		defer store.Close()
		rec.store = store
	}

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	loop := schedule.NewLoop()
	g.Go(func() error { return loop.Run(ctx) })

	hub := relay.NewHub(!live, logger)
	defer hub.Close()

	var house *relay.House
	switch {
	case flagSimServer != "":
		dialCtx, dialCancel := context.WithTimeout(ctx, flagSimWaitHouse)
		client, dialErr := relay.Dial(dialCtx, flagSimServer, hub, logger)
		dialCancel()
		if dialErr != nil {
			cancel()
			g.Wait() //nolint:errcheck // Reporting the dial error
			return dialErr
		}
		defer client.Close()
	case live:
		house = relay.NewHouse(relay.HouseConfig{
			GridSize:        game.GridSize,
			Catalog:         game.CatalogKeys(),
			Paytable:        game.PaytableKeys(),
			LoseProbability: game.Demo.LoseProbability,
			Rand:            rand.New(rand.NewSource(seed + 1)),
			Logger:          logger,
		})
		g.Go(func() error { return relay.Serve(ctx, hub, house) })
		if waitErr := waitForHouse(ctx, hub, flagSimWaitHouse); waitErr != nil {
			cancel()
			g.Wait() //nolint:errcheck // Reporting the wait error
			return waitErr
		}
	}

	var coord *betting.Coordinator
	err = loop.Do(ctx, func() {
		bet := game.Betting.DefaultBet
		if flagSimBet > 0 {
			bet = flagSimBet
		}
		coord = betting.New(betting.Config{
			GridSize:        game.GridSize,
			Catalog:         game.CatalogKeys(),
			LoseProbability: game.Demo.LoseProbability,
			AutoResetDelay:  flagSimDelay,
			RevealInterval:  game.Timing.RevealInterval(),
			BetValue:        bet,
			Mines:           game.Betting.Mines,
			Demo:            !live,
			Scheduler:       schedule.New(quartz.NewReal(), loop),
			Outbound:        hub,
			Recorder:        rec,
			Rand:            rand.New(rand.NewSource(seed)),
			Logger:          logger,
		})
	})
	if err != nil {
		return err
	}
	if err := betting.Attach(ctx, hub, loop, coord); err != nil {
		return err
	}

	err = loop.Do(ctx, func() {
		coord.SetMode(core.ModeAuto)
		coord.SetNumberOfBets(flagSimRounds)
		coord.SetStrategyMode(betting.StrategyOnWin, strategyFor(flagSimOnWin))
		coord.SetStrategyValue(betting.StrategyOnWin, flagSimOnWin)
		coord.SetStrategyMode(betting.StrategyOnLoss, strategyFor(flagSimOnLoss))
		coord.SetStrategyValue(betting.StrategyOnLoss, flagSimOnLoss)
		coord.SetStopOnProfit(flagSimStopGain)
		coord.SetStopOnLoss(flagSimStopLoss)
		coord.StartAutoBet()
	})
	if err != nil {
		return err
	}

	started := time.Now()
	var run betting.AutoRunRecord
	g.Go(func() error {
		select {
		case run = <-rec.finished:
		case <-ctx.Done():
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	// The loop has stopped; the coordinator is no longer running.
	ui := coord.Controls()
	fmt.Printf("Played %d rounds in %s\n", rec.rounds, time.Since(started).Round(time.Millisecond))
	fmt.Printf("  won %d, lost %d\n", rec.wins, rec.losses)
	if run.ID != "" {
		fmt.Printf("  stop reason: %s (completed: %t)\n", run.StopReason, run.Completed)
	}
	if live {
		fmt.Printf("  total profit: %s\n", ui.TotalProfit)
	}
	if house != nil {
		fmt.Printf("  house balance: %s\n", betting.FormatAmount(house.Total()))
	}
	return nil
}

// waitForHouse waits until the in-process house listens to the hub.
func waitForHouse(ctx context.Context, hub *relay.Hub, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		if out, _ := hub.Subscribers(); out > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("house did not start: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
