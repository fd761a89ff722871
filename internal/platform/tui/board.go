package tui

import (
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/games/scratch"
)

// Tile layout in screen cells.
const (
	tileW   = 9
	tileH   = 3
	tileGap = 1
)

// tileState is what the board shows for one tile.
type tileState int

const (
	tileHidden tileState = iota
	tileFlipping
	tileRevealed
)

type flip struct {
	req scratch.RevealRequest
}

// Board is the reveal sink of the game screen. It keeps the visual state of
// every tile and turns reveal requests into flip animations.
type Board struct {
	grid         int
	flipDuration time.Duration
	animate      bool

	outcome  scratch.Outcome
	faces    map[core.Position]core.ContentKey
	state    map[core.Position]tileState
	framed   map[core.Position]bool
	won      map[core.Position]bool
	matched  map[core.Position]bool
	selected *core.Position

	seq   uint64
	flips map[uint64]flip
	cmds  []tea.Cmd
}

var (
	_ scratch.Sink        = (*Board)(nil)
	_ scratch.MatchMarker = (*Board)(nil)
)

// NewBoard creates an empty board. A zero flipDuration reveals instantly.
func NewBoard(grid int, flipDuration time.Duration, animate bool) *Board {
	b := &Board{
		grid:         max(1, grid),
		flipDuration: flipDuration,
		animate:      animate,
	}
	b.clear()
	return b
}

func (b *Board) clear() {
	b.outcome = scratch.Outcome{}
	b.faces = make(map[core.Position]core.ContentKey)
	b.state = make(map[core.Position]tileState)
	b.framed = make(map[core.Position]bool)
	b.won = make(map[core.Position]bool)
	b.matched = make(map[core.Position]bool)
	b.flips = make(map[uint64]flip)
	b.selected = nil
}

// SetAnimations toggles flip animations for future reveals.
func (b *Board) SetAnimations(enabled bool) {
	b.animate = enabled
}

// ResetBoard hides every tile. Pending flips are dropped.
func (b *Board) ResetBoard() {
	b.clear()
}

// SetAssignments starts a new card.
func (b *Board) SetAssignments(_ scratch.Assignment, o scratch.Outcome) {
	b.clear()
	b.outcome = o
}

// RevealTile shows a face, animating it when flips are enabled.
func (b *Board) RevealTile(req scratch.RevealRequest) bool {
	b.faces[req.Pos] = req.Face
	if !b.animate || b.flipDuration <= 0 {
		b.state[req.Pos] = tileRevealed
		return false
	}

	b.seq++
	b.flips[b.seq] = flip{req: req}
	b.state[req.Pos] = tileFlipping
	b.cmds = append(b.cmds, flipCmd(b.flipDuration, b.seq))
	return true
}

// FinishFlip ends the flip animation seq. Unknown or dropped flips are ignored.
func (b *Board) FinishFlip(seq uint64) {
	f, ok := b.flips[seq]
	if !ok {
		return
	}
	delete(b.flips, seq)
	b.state[f.req.Pos] = tileRevealed
	if f.req.Done != nil {
		f.req.Done()
	}
}

// ShowWinFrames frames the tiles that made the win.
func (b *Board) ShowWinFrames(tiles []core.Position) {
	for _, p := range tiles {
		b.framed[p] = true
	}
}

// HighlightWin lights the winning tiles once the round settled.
func (b *Board) HighlightWin(tiles []core.Position) {
	for _, p := range tiles {
		b.won[p] = true
	}
}

// MarkMatch marks a matching pair found by hand.
func (b *Board) MarkMatch(tiles []core.Position) {
	for _, p := range tiles {
		b.matched[p] = true
	}
}

// SetSelected tracks the tile waiting for its server reveal.
func (b *Board) SetSelected(p *core.Position) {
	b.selected = p
}

// Flipping returns the number of running flip animations.
func (b *Board) Flipping() int {
	return len(b.flips)
}

// Face returns the face and visual state of a tile.
func (b *Board) Face(p core.Position) (core.ContentKey, tileState) {
	return b.faces[p], b.state[p]
}

// TakeCmds returns and clears the commands queued by reveals.
func (b *Board) TakeCmds() []tea.Cmd {
	cmds := b.cmds
	b.cmds = nil
	return cmds
}

// Size returns the board dimensions in screen cells.
func (b *Board) Size() (w, h int) {
	return b.grid*(tileW+tileGap) + tileGap, b.grid*(tileH+tileGap) + tileGap
}

// Draw renders the board into s with its top-left corner at (x, y).
func (b *Board) Draw(s *core.Screen, x, y int, cursor core.Position, focused bool) {
	for _, p := range core.Positions(b.grid) {
		r := core.NewRect(
			x+tileGap+p.Col*(tileW+tileGap),
			y+tileGap+p.Row*(tileH+tileGap),
			tileW, tileH,
		)
		b.drawTile(s, r, p, focused && p == cursor)
	}
}

func (b *Board) drawTile(s *core.Screen, r core.Rect, p core.Position, underCursor bool) {
	state := b.state[p]
	frame := core.ColorGray
	label, labelColor := "░░░░░", core.ColorGray

	switch state {
	case tileFlipping:
		label, labelColor = "▒▒▒▒▒", core.ColorWhite
	case tileRevealed:
		label, labelColor = faceLabel(b.faces[p]), core.ColorWhite
		frame = core.ColorWhite
		if b.outcome.IsWinning(b.faces[p]) {
			labelColor = core.ColorYellow
		}
	}
	if b.selected != nil && *b.selected == p && state == tileHidden {
		label, labelColor = " ... ", core.ColorCyan
	}

	switch {
	case b.won[p]:
		frame = core.ColorBrightGreen
	case b.framed[p]:
		frame = core.ColorBrightYellow
	case b.matched[p]:
		frame = core.ColorCyan
	}
	if underCursor {
		frame = core.ColorMagenta
	}

	s.DrawBox(r, frame)
	cx, cy := r.Center()
	s.DrawTextColor(cx-utf8.RuneCountInString(label)/2, cy, label, labelColor)
}

// faceLabel fits a content key into a tile.
func faceLabel(k core.ContentKey) string {
	if k.IsNone() {
		return "?"
	}
	label := string(k)
	if utf8.RuneCountInString(label) > tileW-2 {
		label = string([]rune(label)[:tileW-2])
	}
	return label
}
