package scratch

import (
	"math/rand"
	"sync"
	"time"

	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/schedule"
)

// DefaultRevealInterval staggers the reveals of a sweep.
const DefaultRevealInterval = 40 * time.Millisecond

// RevealRequest asks the sink to show one tile face.
type RevealRequest struct {
	Pos      core.Position
	Face     core.ContentKey
	ByPlayer bool   // false for sweep reveals
	Done     func() // signals the reveal finished; extra calls are ignored
}

// Sink renders the board. RevealTile reports whether a reveal animation
// started; Done must eventually be called for every started reveal.
type Sink interface {
	ResetBoard()
	SetAssignments(a Assignment, o Outcome)
	RevealTile(req RevealRequest) bool
	ShowWinFrames(tiles []core.Position)
	HighlightWin(tiles []core.Position)
}

// MatchMarker is implemented by sinks that mark matching pairs found by hand.
type MatchMarker interface {
	MarkMatch(tiles []core.Position)
}

// Audio plays fire-and-forget sound cues. speed is the playback rate (1 = normal).
type Audio interface {
	Play(cue Cue, speed float64)
}

// Listener observes the orchestrator.
type Listener interface {
	StateChanged(st RulesState)
	TileSelected(p core.Position)
	RoundFinished(s RoundSummary)
}

// OrchestratorConfig wires an Orchestrator. Scheduler is required.
type OrchestratorConfig struct {
	GridSize       int
	Sink           Sink
	Audio          Audio
	Listener       Listener
	Scheduler      *schedule.Scheduler
	Rand           *rand.Rand
	RevealInterval time.Duration
	Animations     bool
	AutoMode       func() bool // taps and match tracking are off while true
}

type matchTrack struct {
	tiles     []core.Position
	triggered bool
}

// Orchestrator sequences reveals against the sink. It tracks the winning
// threshold, sweeps the remaining tiles once a win is guaranteed and reports
// when the whole round has settled.
type Orchestrator struct {
	rules      *Rules
	sink       Sink
	audio      Audio
	listener   Listener
	sched      *schedule.Scheduler
	sweep      *schedule.Group
	rng        *rand.Rand
	interval   time.Duration
	animations bool
	autoMode   func() bool

	epoch      uint64
	assignment Assignment
	outcome    Outcome

	revealedWinning     int
	pendingWinning      int
	pendingReveals      int
	autoRevealTriggered bool
	winFramesShown      bool
	feedbackPlayed      bool

	inFlight  map[core.Position]bool // value: reveal counts toward the win
	scheduled map[core.Position]*schedule.Task
	winning   []core.Position

	matches    map[core.ContentKey]*matchTrack
	matchPairs int
}

// NewOrchestrator creates an orchestrator with an empty round.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Sink == nil {
		cfg.Sink = nopSink{}
	}
	if cfg.Audio == nil {
		cfg.Audio = nopAudio{}
	}
	if cfg.Listener == nil {
		cfg.Listener = nopListener{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.RevealInterval < 0 {
		cfg.RevealInterval = 0
	}
	if cfg.AutoMode == nil {
		cfg.AutoMode = func() bool { return false }
	}

	o := &Orchestrator{
		rules:      NewRules(cfg.GridSize),
		sink:       cfg.Sink,
		audio:      cfg.Audio,
		listener:   cfg.Listener,
		sched:      cfg.Scheduler,
		sweep:      cfg.Scheduler.NewGroup(),
		rng:        cfg.Rand,
		interval:   cfg.RevealInterval,
		animations: cfg.Animations,
		autoMode:   cfg.AutoMode,
		assignment: Assignment{},
	}
	o.resetOutcome()
	return o
}

// Reset clears the round and the board.
func (o *Orchestrator) Reset() {
	o.rules.Reset()
	o.assignment = Assignment{}
	o.resetOutcome()
	o.sink.ResetBoard()
	o.notify()
}

// SetRound installs the assignment and outcome of a new round.
func (o *Orchestrator) SetRound(a Assignment, meta Outcome) {
	o.resetOutcome()
	o.outcome = meta
	o.assignment = make(Assignment, len(a))
	for p, k := range a {
		if p.InBounds(o.rules.GridSize()) {
			o.assignment[p] = k
		}
	}
	o.rules.SetAssignments(o.assignment)
	o.sink.SetAssignments(o.assignment.Clone(), meta)
	o.notify()
}

// SetAnimationsEnabled toggles sweep staggering.
func (o *Orchestrator) SetAnimationsEnabled(enabled bool) {
	o.animations = enabled
}

// SelectTile enters the waiting state for a tapped tile and notifies the
// listener. It refuses revealed, animating or scheduled tiles, a finished
// round, auto mode and a second tap while a choice is pending.
func (o *Orchestrator) SelectTile(p core.Position) bool {
	if !o.available(p) || o.rules.GameOver() || o.autoMode() || o.rules.WaitingForChoice() {
		return false
	}
	o.rules.SelectTile(p.Row, p.Col)
	o.listener.TileSelected(p)
	o.notify()
	return true
}

// SelectRandom taps a uniformly chosen hidden tile.
func (o *Orchestrator) SelectRandom() (core.Position, bool) {
	p, ok := o.RandomCandidate()
	if !ok || !o.SelectTile(p) {
		return core.Position{}, false
	}
	return p, true
}

// RandomCandidate picks a hidden, idle tile other than the pending selection.
func (o *Orchestrator) RandomCandidate() (core.Position, bool) {
	sel, hasSel := o.rules.SelectedTile()
	var candidates []core.Position
	for _, p := range core.Positions(o.rules.GridSize()) {
		if !o.available(p) || (hasSel && p == sel) {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return core.Position{}, false
	}
	return candidates[o.rng.Intn(len(candidates))], true
}

// RevealSelected reveals the pending selection with content, falling back
// to the assigned content when content is empty.
func (o *Orchestrator) RevealSelected(content core.ContentKey) bool {
	sel, ok := o.rules.SelectedTile()
	if !ok {
		return false
	}
	if o.rules.IsRevealed(sel) {
		o.rules.ClearSelection()
		o.notify()
		return false
	}
	if content.IsNone() {
		content = o.assignment[sel]
	}
	out := o.rules.RevealResult(sel, content)
	o.issue(sel, out.Face, true)
	o.rules.ClearSelection()
	o.notify()
	return true
}

// RevealTile requests the reveal of p with content (empty: use the assignment).
func (o *Orchestrator) RevealTile(p core.Position, content core.ContentKey) bool {
	if !o.reveal(p, content) {
		return false
	}
	o.notify()
	return true
}

// RevealAutoSelections reveals server-chosen tiles in the given order.
func (o *Orchestrator) RevealAutoSelections(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if o.reveal(e.Pos, e.Content) {
			n++
		}
	}
	o.notify()
	return n
}

func (o *Orchestrator) reveal(p core.Position, content core.ContentKey) bool {
	if !p.InBounds(o.rules.GridSize()) || o.rules.IsRevealed(p) || o.rules.GameOver() {
		return false
	}
	if content.IsNone() {
		content = o.assignment[p]
	}
	out := o.rules.RevealResult(p, content)
	o.issue(p, out.Face, true)
	return true
}

// RevealRemaining schedules the reveal of every hidden, idle tile in
// row-major order, staggered by the reveal interval. Without an exclude list
// it is a no-op while a sweep is already pending. It returns the number of
// reveals scheduled.
func (o *Orchestrator) RevealRemaining(exclude ...core.Position) int {
	o.autoRevealTriggered = true
	if len(exclude) == 0 && o.SweepInProgress() {
		return 0
	}

	skip := make(map[core.Position]bool, len(exclude))
	for _, p := range exclude {
		skip[p] = true
	}

	epoch := o.epoch
	scheduled := 0
	for _, p := range core.Positions(o.rules.GridSize()) {
		if skip[p] || !o.available(p) {
			continue
		}
		var delay time.Duration
		if o.animations {
			delay = o.interval * time.Duration(scheduled)
		}
		o.scheduled[p] = o.sweep.After(delay, func() { o.sweepReveal(epoch, p) })
		scheduled++
	}
	return scheduled
}

func (o *Orchestrator) sweepReveal(epoch uint64, p core.Position) {
	if epoch != o.epoch {
		return
	}
	delete(o.scheduled, p)
	if o.rules.IsRevealed(p) || o.inFlight[p] {
		return
	}
	out := o.rules.RevealResult(p, o.assignment[p])
	o.issue(p, out.Face, false)
	o.notify()
}

// SweepInProgress reports whether sweep reveals are still scheduled.
func (o *Orchestrator) SweepInProgress() bool {
	return o.sweep.Len() > 0
}

func (o *Orchestrator) available(p core.Position) bool {
	if !p.InBounds(o.rules.GridSize()) || o.rules.IsRevealed(p) {
		return false
	}
	if _, busy := o.inFlight[p]; busy {
		return false
	}
	_, queued := o.scheduled[p]
	return !queued
}

// issue hands a revealed tile to the sink. The win threshold is checked here,
// at issue time, counting reveals still in flight.
func (o *Orchestrator) issue(p core.Position, face core.ContentKey, byPlayer bool) {
	if t, ok := o.scheduled[p]; ok {
		t.Stop()
		delete(o.scheduled, p)
	}

	o.audio.Play(CueFlip, 0.9+o.rng.Float64()*0.2)

	winning := o.outcome.IsWinning(face)
	engagedBefore := o.revealedWinning + o.pendingWinning

	o.inFlight[p] = winning
	o.pendingReveals++
	if winning {
		o.pendingWinning++
	}

	epoch := o.epoch
	var once sync.Once
	done := func() {
		once.Do(func() {
			o.sched.Post(func() { o.complete(epoch, p) })
		})
	}

	if started := o.sink.RevealTile(RevealRequest{Pos: p, Face: face, ByPlayer: byPlayer, Done: done}); !started {
		done()
	}

	required := o.outcome.WinningCountRequired
	if winning && !o.autoRevealTriggered && required > 0 && engagedBefore+1 >= required {
		o.autoRevealTriggered = true
		o.RevealRemaining(p)
	}
}

func (o *Orchestrator) complete(epoch uint64, p core.Position) {
	if epoch != o.epoch {
		return
	}
	winning, ok := o.inFlight[p]
	if !ok {
		return
	}
	delete(o.inFlight, p)
	o.pendingReveals = max(0, o.pendingReveals-1)

	if winning {
		o.revealedWinning++
		o.pendingWinning = max(0, o.pendingWinning-1)
		o.winning = append(o.winning, p)
	}

	reached := o.thresholdReached()
	if reached && !o.winFramesShown && len(o.winning) > 0 {
		o.winFramesShown = true
		o.sink.ShowWinFrames(o.winningTiles())
	}

	st := o.rules.State()
	rec, _ := o.rules.Revealed(p)
	o.trackMatch(p, rec.Face, st)

	if reached && !o.autoRevealTriggered && st.Revealed < st.TotalTiles {
		o.autoRevealTriggered = true
		o.RevealRemaining()
	}

	if !o.feedbackPlayed && st.Revealed >= st.TotalTiles && o.pendingReveals == 0 {
		o.feedbackPlayed = true
		tiles := o.winningTiles()
		if o.outcome.BetResult == core.ResultWin && len(tiles) > 0 {
			o.sink.HighlightWin(tiles)
		}
		if cue, ok := o.outcome.finishCue(); ok {
			o.audio.Play(cue, 1)
		}
		o.listener.RoundFinished(RoundSummary{
			Outcome:      o.outcome,
			Revealed:     st.Revealed,
			WinningTiles: tiles,
			Won:          reached,
		})
	}
}

func (o *Orchestrator) thresholdReached() bool {
	required := o.outcome.WinningCountRequired
	return o.outcome.BetResult == core.ResultWin && required > 0 && o.revealedWinning >= required
}

// trackMatch plays a rising cue the first time each content type shows up
// twice in a manual round while tiles are still hidden.
func (o *Orchestrator) trackMatch(p core.Position, face core.ContentKey, st RulesState) {
	if o.autoMode() {
		o.matches = make(map[core.ContentKey]*matchTrack)
		o.matchPairs = 0
		return
	}
	if face.IsNone() {
		return
	}
	tr, ok := o.matches[face]
	if !ok {
		tr = &matchTrack{}
		o.matches[face] = tr
	}
	tr.tiles = append(tr.tiles, p)
	if len(tr.tiles) < 2 || st.Revealed >= st.TotalTiles {
		return
	}
	if !tr.triggered {
		tr.triggered = true
		o.matchPairs++
		o.audio.Play(CueTwoMatch, 1+float64(o.matchPairs-1)*0.05)
	}
	if m, ok := o.sink.(MatchMarker); ok {
		m.MarkMatch(append([]core.Position(nil), tr.tiles...))
	}
}

func (o *Orchestrator) resetOutcome() {
	o.epoch++
	o.outcome = Outcome{}
	o.revealedWinning = 0
	o.pendingWinning = 0
	o.pendingReveals = 0
	o.autoRevealTriggered = false
	o.winFramesShown = false
	o.feedbackPlayed = false
	o.sweep.Stop()
	o.scheduled = make(map[core.Position]*schedule.Task)
	o.inFlight = make(map[core.Position]bool)
	o.winning = nil
	o.matches = make(map[core.ContentKey]*matchTrack)
	o.matchPairs = 0
}

func (o *Orchestrator) winningTiles() []core.Position {
	return append([]core.Position(nil), o.winning...)
}

func (o *Orchestrator) notify() {
	o.listener.StateChanged(o.rules.State())
}

// State returns the rules snapshot.
func (o *Orchestrator) State() RulesState { return o.rules.State() }

// Outcome returns the current round meta.
func (o *Orchestrator) Outcome() Outcome { return o.outcome }

// Assignment returns a copy of the current assignment.
func (o *Orchestrator) Assignment() Assignment { return o.assignment.Clone() }

// IsRevealed reports whether p was revealed this round.
func (o *Orchestrator) IsRevealed(p core.Position) bool { return o.rules.IsRevealed(p) }

// PendingReveals returns the number of reveals awaiting completion.
func (o *Orchestrator) PendingReveals() int { return o.pendingReveals }

// AutoRevealTriggered reports whether this round already swept or asked to.
func (o *Orchestrator) AutoRevealTriggered() bool { return o.autoRevealTriggered }

// Settled reports whether the round-finished feedback already fired.
func (o *Orchestrator) Settled() bool { return o.feedbackPlayed }

// GridSize returns tiles per row.
func (o *Orchestrator) GridSize() int { return o.rules.GridSize() }

type nopSink struct{}

func (nopSink) ResetBoard()                        {}
func (nopSink) SetAssignments(Assignment, Outcome) {}
func (nopSink) RevealTile(RevealRequest) bool      { return false }
func (nopSink) ShowWinFrames([]core.Position)      {}
func (nopSink) HighlightWin([]core.Position)       {}

type nopAudio struct{}

func (nopAudio) Play(Cue, float64) {}

type nopListener struct{}

func (nopListener) StateChanged(RulesState)    {}
func (nopListener) TileSelected(core.Position) {}
func (nopListener) RoundFinished(RoundSummary) {}
