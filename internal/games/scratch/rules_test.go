package scratch

import (
	"testing"

	"github.com/vovakirdan/tui-scratch/internal/core"
)

func fullAssignment(grid int, k core.ContentKey) Assignment {
	a := Assignment{}
	for _, p := range core.Positions(grid) {
		a[p] = k
	}
	return a
}

func TestRulesRevealIsIdempotent(t *testing.T) {
	r := NewRules(3)
	r.SetAssignments(fullAssignment(3, "A"))

	first := r.RevealResult(core.Pos(0, 0), "")
	second := r.RevealResult(core.Pos(0, 0), "B")

	if first.Face != "A" {
		t.Errorf("expected face A, got %q", first.Face)
	}
	if second != first {
		t.Errorf("second reveal should replay %+v, got %+v", first, second)
	}
	if got := r.State().Revealed; got != 1 {
		t.Errorf("expected 1 revealed, got %d", got)
	}
}

func TestRulesOverrideWinsOverAssignment(t *testing.T) {
	r := NewRules(2)
	r.SetAssignments(fullAssignment(2, "A"))

	out := r.RevealResult(core.Pos(1, 1), "Z")
	if out.Face != "Z" {
		t.Errorf("expected override face Z, got %q", out.Face)
	}
	if out.Win {
		t.Error("rules never judge a win")
	}
}

func TestRulesGameOverIsMonotonic(t *testing.T) {
	r := NewRules(2)
	r.SetAssignments(fullAssignment(2, "A"))

	var last RevealOutcome
	for _, p := range core.Positions(2) {
		last = r.RevealResult(p, "")
	}
	if !last.GameOver || !r.GameOver() {
		t.Fatal("expected game over after revealing every tile")
	}

	// Replaying a revealed tile keeps game over; nothing resets it short of a new round.
	r.RevealResult(core.Pos(0, 0), "")
	if !r.GameOver() {
		t.Error("game over must not flip back")
	}

	r.SetAssignments(fullAssignment(2, "B"))
	if r.GameOver() || r.State().Revealed != 0 {
		t.Error("new assignments start a fresh round")
	}
}

func TestRulesReplayAfterGameOverReturnsStoredRecord(t *testing.T) {
	r := NewRules(2)
	r.SetAssignments(fullAssignment(2, "A"))

	tiles := core.Positions(2)
	first := r.RevealResult(tiles[0], "")
	var last RevealOutcome
	for _, p := range tiles[1:] {
		last = r.RevealResult(p, "")
	}

	if got := r.RevealResult(tiles[len(tiles)-1], "Z"); got != last {
		t.Errorf("final tile should replay %+v, got %+v", last, got)
	}
	if got := r.RevealResult(tiles[0], ""); got != first || got.GameOver {
		t.Errorf("first tile should replay %+v, got %+v", first, got)
	}
	if got := r.State().Revealed; got != len(tiles) {
		t.Errorf("expected %d revealed, got %d", len(tiles), got)
	}
}

func TestRulesOutOfBoundsIsIgnored(t *testing.T) {
	r := NewRules(3)
	a := fullAssignment(3, "A")
	a[core.Pos(5, 5)] = "X"
	r.SetAssignments(a)

	out := r.RevealResult(core.Pos(5, 5), "")
	if out.Face != core.NoContent {
		t.Errorf("out of bounds reveal returned face %q", out.Face)
	}
	if r.IsRevealed(core.Pos(5, 5)) {
		t.Error("out of bounds tile must not be recorded")
	}
	if got := r.Assigned(core.Pos(5, 5)); got != core.NoContent {
		t.Errorf("out of bounds assignment kept: %q", got)
	}
}

func TestRulesSelection(t *testing.T) {
	r := NewRules(3)

	if _, ok := r.SelectedTile(); ok {
		t.Fatal("fresh rules have no selection")
	}

	r.SelectTile(1, 2)
	st := r.State()
	if !st.WaitingForChoice || st.SelectedTile == nil || *st.SelectedTile != core.Pos(1, 2) {
		t.Fatalf("unexpected state after select: %+v", st)
	}

	// The snapshot owns its copy of the selection.
	st.SelectedTile.Row = 0
	if sel, _ := r.SelectedTile(); sel != core.Pos(1, 2) {
		t.Errorf("snapshot mutation leaked into rules: %v", sel)
	}

	r.ClearSelection()
	if r.WaitingForChoice() {
		t.Error("clear selection should stop waiting")
	}
}

func TestRulesResetClearsEverything(t *testing.T) {
	r := NewRules(2)
	r.SetAssignments(fullAssignment(2, "A"))
	r.RevealResult(core.Pos(0, 0), "")
	r.SelectTile(1, 1)

	r.Reset()

	st := r.State()
	if st.Revealed != 0 || st.GameOver || st.WaitingForChoice || st.SelectedTile != nil {
		t.Errorf("reset left state behind: %+v", st)
	}
	if r.Assigned(core.Pos(0, 0)) != core.NoContent {
		t.Error("reset should drop the assignment")
	}
	if st.TotalTiles != 4 {
		t.Errorf("expected 4 tiles, got %d", st.TotalTiles)
	}
}
