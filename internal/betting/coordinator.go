// Package betting implements the top-level game state machine: manual and
// auto betting modes, round lifecycle, demo versus relayed resolution and the
// control panel affordances derived from it.
//
// A Coordinator is not safe for concurrent use. Every method, and every
// callback it registers, runs on the executor of its scheduler.
package betting

import (
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/games/scratch"
	"github.com/vovakirdan/tui-scratch/internal/relay"
	"github.com/vovakirdan/tui-scratch/internal/schedule"
)

// Defaults for Config fields left zero.
const (
	DefaultAutoResetDelay  = 1000 * time.Millisecond
	DefaultLoseProbability = 0.4
	DefaultGridSize        = 3
)

// Outbound carries game traffic to the backend.
type Outbound interface {
	Send(msg relay.Message)
}

// Observer receives a fresh Controls snapshot after every transition.
type Observer interface {
	ControlsChanged(c Controls)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Controls)

func (f ObserverFunc) ControlsChanged(c Controls) { f(c) }

// Config wires a Coordinator.
type Config struct {
	GridSize        int
	Catalog         []core.ContentKey
	LoseProbability float64
	AutoResetDelay  time.Duration
	RevealInterval  time.Duration
	Animations      bool

	BetValue     float64
	Mines        int
	NumberOfBets int
	Demo         bool

	Scheduler *schedule.Scheduler // required
	Sink      scratch.Sink
	Audio     scratch.Audio
	Outbound  Outbound
	Observer  Observer
	Recorder  Recorder
	Rand      *rand.Rand
	Logger    *log.Logger
}

type roundInfo struct {
	id         string
	runID      string
	mode       core.Mode
	source     string
	bet        float64
	mines      int
	winningKey core.ContentKey
	startedAt  time.Time
}

type runInfo struct {
	id        string
	requested int
	played    int
	reason    string
	completed bool
	startedAt time.Time
}

// Coordinator owns one game instance.
type Coordinator struct {
	cfg      Config
	logger   *log.Logger
	sched    *schedule.Scheduler
	orch     *scratch.Orchestrator
	audio    scratch.Audio
	outbound Outbound
	observer Observer
	recorder Recorder
	rng      *rand.Rand

	ui Controls

	suppressRelay         bool
	selectionPending      bool
	minesSelectionLocked  bool
	manualRoundNeedsReset bool
	autoRoundInProgress   bool
	autoRemainingBets     int
	autoTimer             *schedule.Task
	revealKick            *schedule.Task

	betResult  core.BetResult
	assignment scratch.Assignment
	lastState  scratch.RulesState

	round *roundInfo
	run   *runInfo
}

// New creates a coordinator in manual mode with an idle board.
func New(cfg Config) *Coordinator {
	if cfg.GridSize <= 0 {
		cfg.GridSize = DefaultGridSize
	}
	if cfg.AutoResetDelay <= 0 {
		cfg.AutoResetDelay = DefaultAutoResetDelay
	}
	if cfg.LoseProbability < 0 || cfg.LoseProbability > 1 {
		cfg.LoseProbability = DefaultLoseProbability
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Audio == nil {
		cfg.Audio = silentAudio{}
	}

	c := &Coordinator{
		cfg:        cfg,
		logger:     cfg.Logger.WithPrefix("betting"),
		sched:      cfg.Scheduler,
		audio:      cfg.Audio,
		outbound:   cfg.Outbound,
		observer:   cfg.Observer,
		recorder:   cfg.Recorder,
		rng:        cfg.Rand,
		assignment: scratch.Assignment{},
	}

	total := cfg.GridSize * cfg.GridSize
	c.ui = Controls{
		Mode:                  core.ModeManual,
		Demo:                  cfg.Demo,
		BetMode:               BetButtonBet,
		AutoMode:              AutoButtonStart,
		ModeToggleClickable:   true,
		BetControlsClickable:  true,
		MinesClickable:        true,
		NumberOfBetsClickable: true,
		AdvancedClickable:     true,
		BetValue:              NormalizeBetValue(cfg.BetValue),
		MaxMines:              MaxMines(total),
		Mines:                 NormalizeMines(float64(cfg.Mines), MaxMines(total)),
		NumberOfBets:          max(0, cfg.NumberOfBets),
		OnWin:                 Strategy{Mode: StrategyReset},
		OnLoss:                Strategy{Mode: StrategyReset},
		Animations:            cfg.Animations,
		ProfitMultiplier:      1,
		TotalProfit:           FormatAmount(0),
	}
	c.autoRemainingBets = c.ui.NumberOfBets
	c.ui.RemainingBets = c.autoRemainingBets

	c.orch = scratch.NewOrchestrator(scratch.OrchestratorConfig{
		GridSize:       cfg.GridSize,
		Sink:           cfg.Sink,
		Audio:          cfg.Audio,
		Listener:       orchestratorListener{c},
		Scheduler:      cfg.Scheduler,
		Rand:           cfg.Rand,
		RevealInterval: cfg.RevealInterval,
		Animations:     cfg.Animations,
		AutoMode:       func() bool { return c.ui.Mode == core.ModeAuto },
	})
	c.lastState = c.orch.State()

	c.finalizeRound(SettleFinished)
	c.publish()
	return c
}

// Controls returns the current panel snapshot.
func (c *Coordinator) Controls() Controls { return c.ui }

// Board returns the round bookkeeping snapshot.
func (c *Coordinator) Board() scratch.RulesState { return c.orch.State() }

// Orchestrator exposes the reveal orchestrator for rendering queries.
func (c *Coordinator) Orchestrator() *scratch.Orchestrator { return c.orch }

// SetRecorder sets the optional history recorder.
func (c *Coordinator) SetRecorder(r Recorder) { c.recorder = r }

// live reports whether actions go to the backend instead of resolving locally.
func (c *Coordinator) live() bool {
	return !c.ui.Demo && !c.suppressRelay
}

func (c *Coordinator) withRelaySuppressed(fn func()) {
	c.suppressRelay = true
	defer func() { c.suppressRelay = false }()
	fn()
}

func (c *Coordinator) send(typ string, payload any) {
	if c.ui.Demo || c.suppressRelay || c.outbound == nil {
		return
	}
	c.outbound.Send(relay.NewMessage(typ, payload))
}

func (c *Coordinator) publish() {
	c.ui.RemainingBets = c.autoRemainingBets
	c.ui.BetResult = c.betResult
	if c.observer != nil {
		c.observer.ControlsChanged(c.ui)
	}
}

func (c *Coordinator) totalTiles() int {
	return c.cfg.GridSize * c.cfg.GridSize
}

func (c *Coordinator) demoBetResult() core.BetResult {
	result := core.ResultWin
	if c.rng.Float64() < c.cfg.LoseProbability {
		result = core.ResultLost
	}
	c.logger.Debug("demo bet result", "result", result)
	return result
}

func (c *Coordinator) clearSelectionDelay() {
	c.selectionPending = false
}

func (c *Coordinator) beginSelectionDelay() {
	c.selectionPending = true
	c.ui.BetClickable = false
	c.ui.RandomClickable = false
}

func (c *Coordinator) disableServerRoundSetupControls() {
	c.ui.BetClickable = false
	c.ui.RandomClickable = false
	c.ui.MinesClickable = false
	c.ui.ModeToggleClickable = false
	c.ui.BetControlsClickable = false
}

func (c *Coordinator) performBet() {
	c.ui.Mines = NormalizeMines(float64(c.ui.Mines), c.ui.MaxMines)
	c.prepareForNewRoundState()
	c.manualRoundNeedsReset = false

	source := SourceLive
	if c.ui.Demo {
		source = SourceDemo
	}
	c.round = &roundInfo{
		id:        uuid.NewString(),
		mode:      c.ui.Mode,
		source:    source,
		bet:       c.ui.BetValue,
		mines:     c.ui.Mines,
		startedAt: c.sched.Clock().Now(),
	}
	if c.run != nil && c.ui.Mode == core.ModeAuto {
		c.round.runID = c.run.id
	}
}

func (c *Coordinator) prepareForNewRoundState() {
	c.ui.RoundActive = true
	c.ui.CashoutAvailable = false
	c.clearSelectionDelay()

	auto := c.ui.Mode == core.ModeAuto
	if auto {
		c.ui.BetMode = BetButtonBet
		c.ui.BetClickable = false
	} else {
		c.ui.BetMode = BetButtonScratch
		c.ui.BetClickable = true
	}
	c.ui.RandomClickable = !auto
	c.ui.BoardInteractive = !auto
	c.minesSelectionLocked = false

	if !auto {
		c.manualRoundNeedsReset = false
		c.ui.MinesClickable = false
		c.ui.ModeToggleClickable = false
		c.ui.BetControlsClickable = false
		return
	}
	c.ui.ModeToggleClickable = !c.ui.AutoRunActive
	c.ui.BetControlsClickable = !c.ui.AutoRunActive
	if !c.ui.AutoRunActive {
		c.ui.MinesClickable = true
		c.ui.AutoClickable = true
	}
}

func (c *Coordinator) finalizeRound(reason SettleReason) {
	wasActive := c.ui.RoundActive

	c.ui.RoundActive = false
	c.ui.CashoutAvailable = false
	c.clearSelectionDelay()
	c.revealKick.Stop()
	c.revealKick = nil
	c.ui.BetMode = BetButtonBet
	c.ui.RandomClickable = false
	c.ui.BoardInteractive = false
	c.minesSelectionLocked = false

	if c.ui.AutoRunActive {
		c.ui.BetClickable = false
		c.ui.MinesClickable = false
		c.ui.ModeToggleClickable = false
		c.ui.BetControlsClickable = false
		c.ui.AutoClickable = true
	} else {
		c.ui.BetClickable = true
		c.ui.MinesClickable = true
		c.ui.ModeToggleClickable = true
		c.ui.BetControlsClickable = true
		c.ui.AutoClickable = c.ui.Mode == core.ModeAuto
	}

	if wasActive {
		c.recordRound(reason)
	}
	c.betResult = core.ResultNone
	c.assignment = scratch.Assignment{}
	c.round = nil

	if c.ui.AutoStopPending {
		c.ui.AutoStopPending = false
		c.setAutoRunUIState(false)
		c.closeRun()
	}
}

func (c *Coordinator) applyRoundInteractiveState(st scratch.RulesState) {
	if !c.ui.RoundActive {
		return
	}

	if c.ui.Mode == core.ModeAuto {
		c.ui.BetClickable = false
		c.ui.RandomClickable = false
		c.ui.BoardInteractive = false
		c.ui.CashoutAvailable = false
		return
	}

	if c.selectionPending || st.WaitingForChoice {
		c.ui.BetClickable = false
		c.ui.RandomClickable = false
		c.ui.CashoutAvailable = false
		return
	}

	hidden := st.Revealed < st.TotalTiles
	c.ui.CashoutAvailable = st.Revealed > 0 && hidden && !c.orch.AutoRevealTriggered()
	c.ui.BetClickable = c.ui.BetMode == BetButtonScratch && hidden
	c.ui.RandomClickable = hidden
}

// handleBet starts a round: locally in demo mode, through the backend otherwise.
func (c *Coordinator) handleBet(result core.BetResult) {
	if c.live() {
		c.disableServerRoundSetupControls()
		c.send(relay.TypeBet, relay.BetPayload{
			Bet:    relay.Num(c.ui.BetValue),
			Mines:  relay.Int(c.ui.Mines),
			Result: relay.Str(string(result)),
		})
		return
	}

	c.performBet()
	c.orch.Reset()
	c.prepareScratchRound(result)
}

func (c *Coordinator) prepareScratchRound(result core.BetResult) {
	round := scratch.Generate(c.rng, result, c.cfg.Catalog, c.cfg.GridSize)
	outcome := scratch.NewOutcome(result, round.WinningKey, round.Assignment, 0)
	c.installRound(round.Assignment, outcome)
}

func (c *Coordinator) installRound(a scratch.Assignment, outcome scratch.Outcome) {
	c.betResult = outcome.BetResult
	c.assignment = a.Clone()
	if c.round != nil {
		c.round.winningKey = outcome.WinningKey
	}
	c.audio.Play(scratch.CueGameStart, 1)
	c.orch.SetRound(a, outcome)
}

func (c *Coordinator) markManualRoundForReset() {
	if c.ui.Mode == core.ModeManual {
		c.manualRoundNeedsReset = true
	}
}

func (c *Coordinator) revealRemainingAndFinalize() {
	if !c.ui.RoundActive || c.selectionPending {
		return
	}
	c.markManualRoundForReset()
	c.orch.RevealRemaining()
	c.finalizeRound(SettleScratch)
}

func (c *Coordinator) cashout() {
	if !c.ui.RoundActive || !c.ui.CashoutAvailable {
		return
	}
	if c.live() {
		c.send(relay.TypeCashoutRequest, struct{}{})
		return
	}
	c.markManualRoundForReset()
	c.orch.RevealRemaining()
	c.finalizeRound(SettleCashout)
}

func (c *Coordinator) handleCardSelected(p core.Position) {
	if !c.ui.RoundActive || c.ui.Mode == core.ModeAuto {
		return
	}

	if !c.minesSelectionLocked {
		c.minesSelectionLocked = true
		c.ui.MinesClickable = false
	}

	c.beginSelectionDelay()

	if c.live() {
		c.send(relay.TypeManualSelection, relay.SelectionPayload{
			Row: relay.Int(p.Row),
			Col: relay.Int(p.Col),
		})
		return
	}

	c.selectionPending = false
	c.orch.RevealSelected(c.assignment[p])
}

func (c *Coordinator) handleStateChange(st scratch.RulesState) {
	c.lastState = st
	if !c.ui.RoundActive {
		return
	}
	c.applyRoundInteractiveState(st)
}

func (c *Coordinator) handleRoundFinished(s scratch.RoundSummary) {
	if !c.ui.RoundActive {
		return
	}
	c.logger.Debug("round finished", "result", s.Outcome.BetResult, "won", s.Won, "revealed", s.Revealed)
	c.finalizeRound(SettleFinished)
	if c.ui.Mode == core.ModeAuto && (c.ui.AutoRunActive || c.autoRoundInProgress) {
		c.handleAutoRoundCompleted()
	}
}

func (c *Coordinator) recordRound(reason SettleReason) {
	r := c.round
	if r == nil {
		return
	}
	if r.runID != "" && c.run != nil && c.run.id == r.runID {
		c.run.played++
	}
	if c.recorder == nil {
		return
	}
	rec := RoundRecord{
		ID:         r.id,
		RunID:      r.runID,
		Mode:       r.mode,
		Source:     r.source,
		Bet:        r.bet,
		Mines:      r.mines,
		Result:     c.betResult,
		WinningKey: r.winningKey,
		Revealed:   c.orch.State().Revealed,
		Reason:     reason,
		Entries:    c.assignment.Entries(),
		CreatedAt:  c.sched.Clock().Now(),
	}
	if err := c.recorder.SaveRound(rec); err != nil {
		c.logger.Error("failed to save round", "round", rec.ID, "err", err)
	}
}

func (c *Coordinator) closeRun() {
	run := c.run
	c.run = nil
	if run == nil || c.recorder == nil {
		return
	}
	rec := AutoRunRecord{
		ID:            run.id,
		RequestedBets: run.requested,
		RoundsPlayed:  run.played,
		StopReason:    run.reason,
		Completed:     run.completed,
		StartedAt:     run.startedAt,
		EndedAt:       c.sched.Clock().Now(),
	}
	if err := c.recorder.SaveAutoRun(rec); err != nil {
		c.logger.Error("failed to save auto run", "run", rec.ID, "err", err)
	}
}

type orchestratorListener struct{ c *Coordinator }

func (l orchestratorListener) StateChanged(st scratch.RulesState) {
	l.c.handleStateChange(st)
	l.c.publish()
}

func (l orchestratorListener) TileSelected(p core.Position) {
	l.c.handleCardSelected(p)
	l.c.publish()
}

func (l orchestratorListener) RoundFinished(s scratch.RoundSummary) {
	l.c.handleRoundFinished(s)
	l.c.publish()
}

type silentAudio struct{}

func (silentAudio) Play(scratch.Cue, float64) {}
