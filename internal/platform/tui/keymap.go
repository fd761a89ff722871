package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-scratch/internal/core"
)

// KeyMap holds the key bindings of the game screen.
// It translates Bubble Tea key messages to game actions.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Reveal     key.Binding
	Bet        key.Binding
	Cashout    key.Binding
	Random     key.Binding
	Mode       key.Binding
	AutoBet    key.Binding
	BetUp      key.Binding
	BetDown    key.Binding
	BetsUp     key.Binding
	BetsDown   key.Binding
	Animations key.Binding
	Demo       key.Binding
	History    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k", "w"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j", "s"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h", "a"),
			key.WithHelp("←/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l", "d"),
			key.WithHelp("→/l", "right"),
		),
		Reveal: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "scratch tile"),
		),
		Bet: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "bet/scratch"),
		),
		Cashout: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cash out"),
		),
		Random: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "random pick"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m", "tab"),
			key.WithHelp("m", "manual/auto"),
		),
		AutoBet: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "start/stop auto"),
		),
		BetUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+/-", "bet"),
		),
		BetDown: key.NewBinding(
			key.WithKeys("-", "_"),
		),
		BetsUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("[/]", "number of bets"),
		),
		BetsDown: key.NewBinding(
			key.WithKeys("["),
		),
		Animations: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "animations"),
		),
		Demo: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "demo/live"),
		),
		History: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "history"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Reveal, k.Bet, k.Cashout, k.Mode, k.AutoBet, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Reveal, k.Random, k.Bet, k.Cashout},
		{k.Mode, k.AutoBet, k.BetUp, k.BetsUp},
		{k.Animations, k.Demo, k.History, k.Quit},
	}
}

// Action maps a key message to a game action. Unbound keys map to ActionNone.
func (k KeyMap) Action(msg tea.KeyMsg) core.Action {
	bindings := []struct {
		binding key.Binding
		action  core.Action
	}{
		{k.Quit, core.ActionQuit},
		{k.Up, core.ActionUp},
		{k.Down, core.ActionDown},
		{k.Left, core.ActionLeft},
		{k.Right, core.ActionRight},
		{k.Reveal, core.ActionReveal},
		{k.Bet, core.ActionBet},
		{k.Cashout, core.ActionCashout},
		{k.Random, core.ActionRandom},
		{k.Mode, core.ActionToggleMode},
		{k.AutoBet, core.ActionAutoBet},
		{k.BetUp, core.ActionBetUp},
		{k.BetDown, core.ActionBetDown},
		{k.BetsUp, core.ActionBetsUp},
		{k.BetsDown, core.ActionBetsDown},
		{k.Animations, core.ActionToggleAnimations},
		{k.Demo, core.ActionToggleDemo},
		{k.History, core.ActionHistory},
		{k.Help, core.ActionHelp},
	}
	for _, b := range bindings {
		if key.Matches(msg, b.binding) {
			return b.action
		}
	}
	return core.ActionNone
}
