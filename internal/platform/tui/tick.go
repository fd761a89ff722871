// Package tui provides the Bubble Tea front end for the scratch card game.
// It renders the board and control panel, maps keys to coordinator intents
// and drives the game's serial queue from the Bubble Tea loop.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// wakeMsg is sent when work was posted to the game queue.
type wakeMsg struct{}

// flipDoneMsg is sent when a tile flip animation ends.
type flipDoneMsg struct {
	seq uint64
}

// waitForWake blocks until the queue signals new work.
func waitForWake(wake <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-wake; !ok {
			return nil
		}
		return wakeMsg{}
	}
}

// flipCmd ends the flip animation seq after d.
func flipCmd(d time.Duration, seq uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return flipDoneMsg{seq: seq}
	})
}
