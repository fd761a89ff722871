// Package scratch implements the scratch-card round: per-round bookkeeping,
// outcome-constrained grid generation and the reveal orchestration that drives
// a rendering sink. It knows nothing about betting modes or transports.
package scratch

import (
	"sort"

	"github.com/vovakirdan/tui-scratch/internal/core"
)

// Assignment maps every tile of the grid to the content it reveals.
type Assignment map[core.Position]core.ContentKey

// Count returns how many tiles carry key.
func (a Assignment) Count(key core.ContentKey) int {
	n := 0
	for _, k := range a {
		if k == key {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for p, k := range a {
		out[p] = k
	}
	return out
}

// Entries returns the assignment as row-major entries.
func (a Assignment) Entries() []Entry {
	out := make([]Entry, 0, len(a))
	for p, k := range a {
		out = append(out, Entry{Pos: p, Content: k})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos.Less(out[j].Pos) })
	return out
}

// Entry is one placed tile.
type Entry struct {
	Pos     core.Position   `json:"pos"`
	Content core.ContentKey `json:"content"`
}

// RevealOutcome is the memoized result of revealing one tile.
// Win is always false here; the orchestrator judges wins against the round outcome.
type RevealOutcome struct {
	Face     core.ContentKey
	GameOver bool
	Win      bool
}

// RulesState is a snapshot of the round bookkeeping.
type RulesState struct {
	Grid             int
	TotalTiles       int
	Revealed         int
	GameOver         bool
	WaitingForChoice bool
	SelectedTile     *core.Position
}

// Rules tracks which tiles are revealed, what they revealed to and whether
// the round is complete. It has no notion of timing or rendering.
type Rules struct {
	grid     int
	total    int
	assigned Assignment
	revealed map[core.Position]RevealOutcome
	count    int
	gameOver bool
	waiting  bool
	selected *core.Position
}

// NewRules creates bookkeeping for a gridSize x gridSize board.
func NewRules(gridSize int) *Rules {
	r := &Rules{grid: max(gridSize, 0)}
	r.total = r.grid * r.grid
	r.Reset()
	return r
}

// Reset clears all per-round state, including the assignment.
func (r *Rules) Reset() {
	r.assigned = Assignment{}
	r.revealed = make(map[core.Position]RevealOutcome)
	r.count = 0
	r.gameOver = false
	r.waiting = false
	r.selected = nil
}

// SetAssignments replaces the assignment and starts reveal bookkeeping over.
// Entries outside the grid are dropped.
func (r *Rules) SetAssignments(a Assignment) {
	r.assigned = make(Assignment, len(a))
	for p, k := range a {
		if p.InBounds(r.grid) {
			r.assigned[p] = k
		}
	}
	r.revealed = make(map[core.Position]RevealOutcome)
	r.count = 0
	r.gameOver = false
}

// SelectTile records a tapped, not yet confirmed tile.
func (r *Rules) SelectTile(row, col int) {
	p := core.Pos(row, col)
	r.selected = &p
	r.waiting = true
}

// ClearSelection drops any pending selection.
func (r *Rules) ClearSelection() {
	r.selected = nil
	r.waiting = false
}

// RevealResult reveals the tile at p. A non-empty override wins over the
// stored assignment. Revealing the same tile again replays the recorded
// outcome; reveals of fresh tiles after game over are ignored.
func (r *Rules) RevealResult(p core.Position, override core.ContentKey) RevealOutcome {
	if rec, ok := r.revealed[p]; ok {
		return rec
	}
	if r.gameOver || !p.InBounds(r.grid) {
		return RevealOutcome{GameOver: r.gameOver}
	}

	face := override
	if face.IsNone() {
		face = r.assigned[p]
	}

	r.count++
	if r.count >= r.total {
		r.gameOver = true
	}

	rec := RevealOutcome{Face: face, GameOver: r.gameOver}
	r.revealed[p] = rec
	return rec
}

// State returns a snapshot of the bookkeeping.
func (r *Rules) State() RulesState {
	st := RulesState{
		Grid:             r.grid,
		TotalTiles:       r.total,
		Revealed:         r.count,
		GameOver:         r.gameOver,
		WaitingForChoice: r.waiting,
	}
	if r.selected != nil {
		sel := *r.selected
		st.SelectedTile = &sel
	}
	return st
}

// IsRevealed reports whether p has been revealed this round.
func (r *Rules) IsRevealed(p core.Position) bool {
	_, ok := r.revealed[p]
	return ok
}

// Revealed returns the recorded outcome for p, if any.
func (r *Rules) Revealed(p core.Position) (RevealOutcome, bool) {
	rec, ok := r.revealed[p]
	return rec, ok
}

// Assigned returns the content stored for p.
func (r *Rules) Assigned(p core.Position) core.ContentKey {
	return r.assigned[p]
}

// SelectedTile returns the pending selection.
func (r *Rules) SelectedTile() (core.Position, bool) {
	if r.selected == nil {
		return core.Position{}, false
	}
	return *r.selected, true
}

func (r *Rules) WaitingForChoice() bool { return r.waiting }
func (r *Rules) GameOver() bool         { return r.gameOver }
func (r *Rules) TotalTiles() int        { return r.total }
func (r *Rules) GridSize() int          { return r.grid }
