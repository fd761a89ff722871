// Package core provides fundamental types and utilities shared by the scratch
// game, the betting coordinator and the platform layers. It contains no
// external dependencies (especially no Bubble Tea) to keep game logic pure
// and testable.
package core

import "strconv"

// Position is a tile coordinate on the square scratch grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Pos is shorthand for Position{Row: row, Col: col}.
func Pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

// Key returns the unique index of the position on a grid of the given size.
func (p Position) Key(gridSize int) int {
	return p.Row*gridSize + p.Col
}

// InBounds reports whether the position lies on a gridSize x gridSize board.
func (p Position) InBounds(gridSize int) bool {
	return p.Row >= 0 && p.Row < gridSize && p.Col >= 0 && p.Col < gridSize
}

// Less orders positions row-major: row ascending, then column ascending.
func (p Position) Less(other Position) bool {
	if p.Row == other.Row {
		return p.Col < other.Col
	}
	return p.Row < other.Row
}

// String returns the "row,col" form used in logs and relay payloads.
func (p Position) String() string {
	return strconv.Itoa(p.Row) + "," + strconv.Itoa(p.Col)
}

// Positions returns every position of the grid in row-major order.
func Positions(gridSize int) []Position {
	if gridSize <= 0 {
		return nil
	}
	out := make([]Position, 0, gridSize*gridSize)
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			out = append(out, Position{Row: row, Col: col})
		}
	}
	return out
}

// ContentKey names a prize card type.
type ContentKey string

// NoContent marks a tile without an assignment.
const NoContent ContentKey = ""

// IsNone reports whether the key is the empty sentinel.
func (k ContentKey) IsNone() bool {
	return k == NoContent
}

// BetResult is the decided outcome of a round.
type BetResult string

const (
	ResultNone BetResult = ""
	ResultWin  BetResult = "win"
	ResultLost BetResult = "lost"
)

// ParseBetResult maps a wire string to a BetResult. Unknown values become ResultNone.
func ParseBetResult(s string) BetResult {
	switch BetResult(s) {
	case ResultWin:
		return ResultWin
	case ResultLost:
		return ResultLost
	default:
		return ResultNone
	}
}

// Mode is the betting mode selected on the control panel.
type Mode string

const (
	ModeManual Mode = "manual"
	ModeAuto   Mode = "auto"
)

// ParseMode maps a string to a Mode; anything but "auto" is manual.
func ParseMode(s string) Mode {
	if Mode(s) == ModeAuto {
		return ModeAuto
	}
	return ModeManual
}
