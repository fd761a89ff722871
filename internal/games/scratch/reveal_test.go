package scratch

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/schedule"
)

type fakeSink struct {
	hold       bool // keep reveals running until Done is called by the test
	resets     int
	requests   []RevealRequest
	pending    map[core.Position]func()
	winFrames  [][]core.Position
	highlights [][]core.Position
	matches    [][]core.Position
}

func (s *fakeSink) ResetBoard()                        { s.resets++ }
func (s *fakeSink) SetAssignments(Assignment, Outcome) {}
func (s *fakeSink) ShowWinFrames(t []core.Position)    { s.winFrames = append(s.winFrames, t) }
func (s *fakeSink) HighlightWin(t []core.Position)     { s.highlights = append(s.highlights, t) }
func (s *fakeSink) MarkMatch(t []core.Position)        { s.matches = append(s.matches, t) }

func (s *fakeSink) RevealTile(req RevealRequest) bool {
	s.requests = append(s.requests, req)
	if !s.hold {
		return false
	}
	if s.pending == nil {
		s.pending = map[core.Position]func(){}
	}
	s.pending[req.Pos] = req.Done
	return true
}

func (s *fakeSink) positions() []core.Position {
	out := make([]core.Position, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r.Pos)
	}
	return out
}

type playedCue struct {
	cue   Cue
	speed float64
}

type fakeAudio struct{ played []playedCue }

func (a *fakeAudio) Play(c Cue, speed float64) { a.played = append(a.played, playedCue{c, speed}) }

func (a *fakeAudio) count(c Cue) int {
	n := 0
	for _, p := range a.played {
		if p.cue == c {
			n++
		}
	}
	return n
}

type fakeListener struct {
	states   int
	selected []core.Position
	finished []RoundSummary
}

func (l *fakeListener) StateChanged(RulesState)      { l.states++ }
func (l *fakeListener) TileSelected(p core.Position) { l.selected = append(l.selected, p) }
func (l *fakeListener) RoundFinished(s RoundSummary) { l.finished = append(l.finished, s) }

type harness struct {
	o        *Orchestrator
	sink     *fakeSink
	audio    *fakeAudio
	listener *fakeListener
	clock    *quartz.Mock
	queue    *schedule.Queue
	auto     bool
}

func newHarness(t *testing.T, animations bool) *harness {
	t.Helper()
	h := &harness{
		sink:     &fakeSink{},
		audio:    &fakeAudio{},
		listener: &fakeListener{},
		clock:    quartz.NewMock(t),
		queue:    schedule.NewQueue(nil),
	}
	h.o = NewOrchestrator(OrchestratorConfig{
		GridSize:       3,
		Sink:           h.sink,
		Audio:          h.audio,
		Listener:       h.listener,
		Scheduler:      schedule.New(h.clock, h.queue),
		Rand:           rand.New(rand.NewSource(7)),
		RevealInterval: DefaultRevealInterval,
		Animations:     animations,
		AutoMode:       func() bool { return h.auto },
	})
	return h
}

func (h *harness) advance(t *testing.T, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.clock.Advance(d).MustWait(ctx)
	h.queue.Drain()
}

// diagonalWin places A on the diagonal and B everywhere else.
func diagonalWin() (Assignment, Outcome) {
	a := fullAssignment(3, "B")
	diag := []core.Position{core.Pos(0, 0), core.Pos(1, 1), core.Pos(2, 2)}
	for _, p := range diag {
		a[p] = "A"
	}
	return a, NewOutcome(core.ResultWin, "A", a, 0)
}

func distinctLoss() (Assignment, Outcome) {
	keys := []core.ContentKey{"A", "A", "C", "B", "B", "D", "E", "F", "G"}
	a := Assignment{}
	for i, p := range core.Positions(3) {
		a[p] = keys[i]
	}
	return a, NewOutcome(core.ResultLost, "", a, 0)
}

func TestOrchestratorSweepsAfterThirdWinningReveal(t *testing.T) {
	h := newHarness(t, false)
	h.o.SetRound(diagonalWin())

	require.True(t, h.o.RevealTile(core.Pos(0, 0), ""))
	h.queue.Drain()
	require.True(t, h.o.RevealTile(core.Pos(1, 1), ""))
	h.queue.Drain()
	assert.False(t, h.o.AutoRevealTriggered())

	require.True(t, h.o.RevealTile(core.Pos(2, 2), ""))
	assert.True(t, h.o.AutoRevealTriggered())
	assert.True(t, h.o.SweepInProgress())
	h.queue.Drain()

	want := []core.Position{
		core.Pos(0, 0), core.Pos(1, 1), core.Pos(2, 2),
		core.Pos(0, 1), core.Pos(0, 2), core.Pos(1, 0), core.Pos(1, 2), core.Pos(2, 0), core.Pos(2, 1),
	}
	assert.Equal(t, want, h.sink.positions())
	for _, r := range h.sink.requests[3:] {
		assert.False(t, r.ByPlayer, "sweep reveals are not player reveals")
	}

	require.Len(t, h.sink.winFrames, 1)
	assert.ElementsMatch(t, want[:3], h.sink.winFrames[0])
	require.Len(t, h.sink.highlights, 1)
	require.Len(t, h.listener.finished, 1)

	summary := h.listener.finished[0]
	assert.True(t, summary.Won)
	assert.Equal(t, 9, summary.Revealed)
	assert.Equal(t, 9, h.audio.count(CueFlip))
	assert.Equal(t, 1, h.audio.count(CueRoundWin))
	assert.Zero(t, h.o.PendingReveals())
	assert.True(t, h.o.Settled())
}

func TestOrchestratorSweepsGeneratedTwoTypeCard(t *testing.T) {
	catalog := []core.ContentKey{"A", "B"}
	for seed := int64(0); seed < 20; seed++ {
		h := newHarness(t, true)
		round := Generate(rand.New(rand.NewSource(seed)), core.ResultWin, catalog, 3)
		outcome := NewOutcome(core.ResultWin, round.WinningKey, round.Assignment, round.TotalWinningCards)
		require.GreaterOrEqual(t, round.Assignment.Count(round.WinningKey), MatchThreshold)
		require.Equal(t, MatchThreshold, outcome.WinningCountRequired, "seed %d", seed)
		h.o.SetRound(round.Assignment, outcome)

		var winners []core.Position
		for _, p := range core.Positions(3) {
			if round.Assignment[p] == round.WinningKey {
				winners = append(winners, p)
			}
		}
		for _, p := range winners[:MatchThreshold] {
			require.True(t, h.o.RevealTile(p, ""), "seed %d tap %v", seed, p)
			h.queue.Drain()
		}
		require.True(t, h.o.AutoRevealTriggered(), "seed %d", seed)

		for range 8 {
			h.advance(t, DefaultRevealInterval)
		}

		tapped := map[core.Position]bool{}
		for _, p := range winners[:MatchThreshold] {
			tapped[p] = true
		}
		var want []core.Position
		for _, p := range core.Positions(3) {
			if !tapped[p] {
				want = append(want, p)
			}
		}
		require.Len(t, h.sink.requests, 9, "seed %d", seed)
		assert.Equal(t, want, h.sink.positions()[MatchThreshold:], "seed %d sweep order", seed)
		require.Len(t, h.listener.finished, 1, "seed %d", seed)
		assert.True(t, h.listener.finished[0].Won)
	}
}

func TestOrchestratorThresholdCountsRevealsInFlight(t *testing.T) {
	h := newHarness(t, false)
	h.sink.hold = true
	h.o.SetRound(diagonalWin())

	h.o.RevealTile(core.Pos(0, 0), "")
	h.o.RevealTile(core.Pos(1, 1), "")
	h.o.RevealTile(core.Pos(2, 2), "")
	assert.True(t, h.o.AutoRevealTriggered(), "third winning reveal triggers before any completes")

	h.queue.Drain()
	assert.Len(t, h.sink.requests, 9)
	assert.Equal(t, 9, h.o.PendingReveals())
	assert.Empty(t, h.listener.finished)
}

func TestOrchestratorStaggersSweep(t *testing.T) {
	h := newHarness(t, true)
	h.o.SetRound(distinctLoss())

	require.Equal(t, 9, h.o.RevealRemaining())
	h.queue.Drain()
	assert.Len(t, h.sink.requests, 1, "first sweep reveal has no delay")

	for i := 2; i <= 9; i++ {
		h.advance(t, DefaultRevealInterval)
		assert.Len(t, h.sink.requests, i)
	}

	assert.Equal(t, core.Positions(3), h.sink.positions())
	assert.False(t, h.o.SweepInProgress())
	require.Len(t, h.listener.finished, 1)
	assert.False(t, h.listener.finished[0].Won)
	assert.Equal(t, 1, h.audio.count(CueRoundLost))
	assert.Empty(t, h.sink.highlights)
}

func TestOrchestratorRevealRemainingIsIdempotent(t *testing.T) {
	h := newHarness(t, true)
	h.o.SetRound(distinctLoss())

	assert.Equal(t, 9, h.o.RevealRemaining())
	assert.Zero(t, h.o.RevealRemaining(), "a pending sweep is not rescheduled")

	h.queue.Drain()
	for i := 0; i < 8; i++ {
		h.advance(t, DefaultRevealInterval)
	}
	assert.Len(t, h.sink.requests, 9, "every tile revealed exactly once")
	assert.Zero(t, h.o.RevealRemaining())
}

func TestOrchestratorResetCancelsSweepAndStaleCompletions(t *testing.T) {
	h := newHarness(t, true)
	h.sink.hold = true
	h.o.SetRound(distinctLoss())

	h.o.RevealRemaining()
	h.queue.Drain()
	h.advance(t, DefaultRevealInterval)
	require.Len(t, h.sink.requests, 2)
	stale := h.sink.pending[core.Pos(0, 0)]

	h.o.Reset()
	assert.Equal(t, 1, h.sink.resets)
	assert.False(t, h.o.SweepInProgress())
	assert.Zero(t, h.o.PendingReveals())

	h.advance(t, time.Second)
	assert.Len(t, h.sink.requests, 2, "canceled sweep reveals nothing")

	stale()
	h.queue.Drain()
	assert.Zero(t, h.o.PendingReveals())
	assert.Empty(t, h.listener.finished)
}

func TestOrchestratorFinishesOnceAfterLastCompletion(t *testing.T) {
	h := newHarness(t, false)
	h.sink.hold = true
	h.o.SetRound(distinctLoss())

	for _, p := range core.Positions(3) {
		require.True(t, h.o.RevealTile(p, ""))
	}
	assert.True(t, h.o.State().GameOver)
	assert.False(t, h.o.RevealTile(core.Pos(0, 0), ""), "revealed tile is refused")

	last := h.sink.pending[core.Pos(2, 2)]
	for p, done := range h.sink.pending {
		if p != core.Pos(2, 2) {
			done()
		}
	}
	h.queue.Drain()
	assert.Empty(t, h.listener.finished, "round settles only when every reveal completed")

	last()
	last()
	h.queue.Drain()
	assert.Len(t, h.listener.finished, 1)
	assert.Equal(t, 1, h.audio.count(CueRoundLost))
}

func TestOrchestratorSelectAndRevealSelected(t *testing.T) {
	h := newHarness(t, false)
	h.o.SetRound(distinctLoss())

	require.True(t, h.o.SelectTile(core.Pos(1, 2)))
	assert.False(t, h.o.SelectTile(core.Pos(0, 0)), "second tap while waiting is refused")
	assert.Equal(t, []core.Position{core.Pos(1, 2)}, h.listener.selected)
	assert.True(t, h.o.State().WaitingForChoice)

	require.True(t, h.o.RevealSelected("Z"))
	require.Len(t, h.sink.requests, 1)
	assert.Equal(t, core.ContentKey("Z"), h.sink.requests[0].Face)
	assert.True(t, h.sink.requests[0].ByPlayer)
	assert.False(t, h.o.State().WaitingForChoice)

	assert.False(t, h.o.RevealSelected(""), "nothing selected")
	h.queue.Drain()
	assert.False(t, h.o.SelectTile(core.Pos(1, 2)), "revealed tile cannot be selected")
}

func TestOrchestratorRefusesTapsInAutoMode(t *testing.T) {
	h := newHarness(t, false)
	h.o.SetRound(distinctLoss())
	h.auto = true

	assert.False(t, h.o.SelectTile(core.Pos(0, 0)))
	assert.Empty(t, h.listener.selected)
}

func TestOrchestratorRandomCandidate(t *testing.T) {
	h := newHarness(t, false)
	h.o.SetRound(distinctLoss())

	for _, p := range core.Positions(3)[:8] {
		h.o.RevealTile(p, "")
	}
	h.queue.Drain()

	p, ok := h.o.RandomCandidate()
	require.True(t, ok)
	assert.Equal(t, core.Pos(2, 2), p)

	sel, ok := h.o.SelectRandom()
	require.True(t, ok)
	assert.Equal(t, core.Pos(2, 2), sel)

	_, ok = h.o.RandomCandidate()
	assert.False(t, ok, "pending selection is not a candidate")
}

func TestOrchestratorTwoMatchCueRises(t *testing.T) {
	h := newHarness(t, false)
	h.o.SetRound(distinctLoss())

	h.o.RevealTile(core.Pos(0, 0), "")
	h.o.RevealTile(core.Pos(0, 1), "")
	h.queue.Drain()
	h.o.RevealTile(core.Pos(1, 0), "")
	h.o.RevealTile(core.Pos(1, 1), "")
	h.queue.Drain()

	var speeds []float64
	for _, p := range h.audio.played {
		if p.cue == CueTwoMatch {
			speeds = append(speeds, p.speed)
		}
	}
	require.Len(t, speeds, 2)
	assert.InDelta(t, 1.0, speeds[0], 1e-9)
	assert.InDelta(t, 1.05, speeds[1], 1e-9)
	assert.Len(t, h.sink.matches, 2)
}

func TestOrchestratorNoMatchTrackingInAutoMode(t *testing.T) {
	h := newHarness(t, false)
	h.o.SetRound(distinctLoss())
	h.auto = true

	h.o.RevealTile(core.Pos(0, 0), "")
	h.o.RevealTile(core.Pos(0, 1), "")
	h.queue.Drain()

	assert.Zero(t, h.audio.count(CueTwoMatch))
	assert.Empty(t, h.sink.matches)
}
