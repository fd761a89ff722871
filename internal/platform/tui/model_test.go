package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-scratch/internal/betting"
	"github.com/vovakirdan/tui-scratch/internal/config"
	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/games/scratch"
	"github.com/vovakirdan/tui-scratch/internal/storage"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyMapActions(t *testing.T) {
	keys := DefaultKeyMap()
	tests := []struct {
		msg  tea.KeyMsg
		want core.Action
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, core.ActionUp},
		{runes("j"), core.ActionDown},
		{runes("h"), core.ActionLeft},
		{tea.KeyMsg{Type: tea.KeyRight}, core.ActionRight},
		{tea.KeyMsg{Type: tea.KeyEnter}, core.ActionReveal},
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}, core.ActionReveal},
		{runes("b"), core.ActionBet},
		{runes("c"), core.ActionCashout},
		{runes("r"), core.ActionRandom},
		{tea.KeyMsg{Type: tea.KeyTab}, core.ActionToggleMode},
		{runes("g"), core.ActionAutoBet},
		{runes("+"), core.ActionBetUp},
		{runes("-"), core.ActionBetDown},
		{runes("]"), core.ActionBetsUp},
		{runes("["), core.ActionBetsDown},
		{runes("f"), core.ActionToggleAnimations},
		{runes("o"), core.ActionToggleDemo},
		{runes("y"), core.ActionHistory},
		{runes("?"), core.ActionHelp},
		{runes("q"), core.ActionQuit},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, core.ActionQuit},
		{runes("z"), core.ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.msg.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, keys.Action(tt.msg))
		})
	}
}

func TestBoardFlipLifecycle(t *testing.T) {
	b := NewBoard(3, 300*time.Millisecond, true)
	done := 0
	p := core.Pos(1, 2)

	started := b.RevealTile(scratch.RevealRequest{Pos: p, Face: "seven", ByPlayer: true, Done: func() { done++ }})
	require.True(t, started)
	assert.Equal(t, 1, b.Flipping())
	assert.Len(t, b.TakeCmds(), 1)
	assert.Empty(t, b.TakeCmds(), "commands are handed out once")

	face, state := b.Face(p)
	assert.Equal(t, core.ContentKey("seven"), face)
	assert.Equal(t, tileFlipping, state)

	b.FinishFlip(1)
	b.FinishFlip(1)
	assert.Equal(t, 1, done)
	_, state = b.Face(p)
	assert.Equal(t, tileRevealed, state)
	assert.Zero(t, b.Flipping())
}

func TestBoardResetDropsFlips(t *testing.T) {
	b := NewBoard(3, 300*time.Millisecond, true)
	done := 0
	b.RevealTile(scratch.RevealRequest{Pos: core.Pos(0, 0), Face: "bell", Done: func() { done++ }})

	b.ResetBoard()
	b.FinishFlip(1)

	assert.Zero(t, done)
	_, state := b.Face(core.Pos(0, 0))
	assert.Equal(t, tileHidden, state)
}

func TestBoardInstantReveal(t *testing.T) {
	b := NewBoard(3, 300*time.Millisecond, false)

	started := b.RevealTile(scratch.RevealRequest{Pos: core.Pos(0, 0), Face: "bell"})
	assert.False(t, started)
	assert.Empty(t, b.TakeCmds())
	_, state := b.Face(core.Pos(0, 0))
	assert.Equal(t, tileRevealed, state)
}

func TestBoardDraw(t *testing.T) {
	b := NewBoard(2, 0, false)
	b.RevealTile(scratch.RevealRequest{Pos: core.Pos(0, 1), Face: "diamond"})

	w, h := b.Size()
	s := core.NewScreen(w, h)
	b.Draw(s, 0, 0, core.Pos(0, 0), true)

	assert.Contains(t, s.String(), "diamond")
	assert.Equal(t, '┌', s.Get(tileGap, tileGap))
	assert.Equal(t, core.ColorMagenta, s.GetCell(tileGap, tileGap).Color, "cursor tile is highlighted")
}

func newTestModel(t *testing.T, store *storage.Store) *Model {
	t.Helper()
	game := config.DefaultGameConfig()
	game.Demo.LoseProbability = 1
	game.Timing.Animations = false

	rt := core.DefaultConfig()
	rt.Seed = 42
	return NewModel(Options{Game: game, Runtime: rt, Store: store})
}

func press(m *Model, msgs ...tea.KeyMsg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func TestModelManualRound(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	m := newTestModel(t, store)
	c := m.Coordinator()

	press(m, runes("b"))
	ui := c.Controls()
	require.True(t, ui.RoundActive)
	assert.Equal(t, core.ResultLost, ui.BetResult)
	assert.Equal(t, betting.BetButtonScratch, ui.BetMode)

	press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 1, c.Board().Revealed)
	_, state := m.board.Face(core.Pos(1, 1))
	assert.Equal(t, tileRevealed, state)

	press(m, runes("b"))
	assert.False(t, c.Controls().RoundActive)
	assert.Equal(t, 9, c.Board().Revealed)

	rounds, err := store.RecentRounds(5)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, betting.SettleScratch, rounds[0].Reason)
	assert.Equal(t, core.ResultLost, rounds[0].Result)

	assert.Contains(t, m.View(), "SCRATCH CARDS")
}

func TestModelCursorStaysOnBoard(t *testing.T) {
	m := newTestModel(t, nil)
	for range 5 {
		press(m, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyLeft})
	}
	assert.Equal(t, core.Pos(0, 0), m.cursor)
	for range 5 {
		press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyRight})
	}
	assert.Equal(t, core.Pos(2, 2), m.cursor)
}

func TestModelPanelControls(t *testing.T) {
	m := newTestModel(t, nil)
	c := m.Coordinator()

	press(m, runes("+"), runes("+"))
	assert.InDelta(t, 1.2, c.Controls().BetValue, 1e-9)

	press(m, runes("m"))
	assert.Equal(t, core.ModeAuto, c.Controls().Mode)
	press(m, runes("]"), runes("]"), runes("]"), runes("["))
	assert.Equal(t, 2, c.Controls().NumberOfBets)
	assert.Contains(t, m.View(), "Start Autobet")

	press(m, runes("f"))
	assert.True(t, c.Controls().Animations)
	assert.True(t, m.board.animate)

	press(m, runes("?"))
	assert.True(t, m.help.ShowAll)
}

func TestModelHistoryScreen(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	m := newTestModel(t, store)
	press(m, runes("b"), tea.KeyMsg{Type: tea.KeyEnter}, runes("b"))

	press(m, runes("y"))
	require.NotNil(t, m.history)
	view := m.View()
	assert.Contains(t, view, "HISTORY - Rounds")
	assert.Contains(t, view, "1 rounds")

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, strings.Contains(m.View(), "No auto runs recorded yet."))

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.history)
	assert.Contains(t, m.View(), "SCRATCH CARDS")
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, nil)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
	m.Close()
}
