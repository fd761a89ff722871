package relay

import (
	"encoding/json"

	"github.com/vovakirdan/tui-scratch/internal/core"
)

// BetPayload is sent with action:bet.
type BetPayload struct {
	Bet    Value `json:"bet"`
	Mines  Value `json:"mines"`
	Result Value `json:"result"`
}

// SelectionPayload is sent with game:manual-selection.
type SelectionPayload struct {
	Row Value `json:"row"`
	Col Value `json:"col"`
}

// AutobetPayload is sent with control:start-autobet and action:start-autobet.
type AutobetPayload struct {
	NumberOfBets Value `json:"numberOfBets"`
}

// StopAutobetPayload travels both ways: action:stop-autobet and stop-autobet.
type StopAutobetPayload struct {
	Reason    Value `json:"reason"`
	Completed Value `json:"completed"`
}

// BetValuePayload is sent with control:bet-value.
type BetValuePayload struct {
	Value        Value `json:"value"`
	NumericValue Value `json:"numericValue"`
}

// MinesPayload is sent with control:mines.
type MinesPayload struct {
	Value      Value `json:"value"`
	TotalTiles Value `json:"totalTiles"`
	Gems       Value `json:"gems"`
}

// StrategyPayload is sent with control:strategy-mode and control:strategy-value.
type StrategyPayload struct {
	Key   Value `json:"key"`
	Mode  Value `json:"mode,omitzero"`
	Value Value `json:"value,omitzero"`
}

// ValuePayload carries a single value: control:number-of-bets,
// control:stop-on-profit, control:stop-on-loss and the profit updates.
type ValuePayload struct {
	Value        Value `json:"value"`
	NumericValue Value `json:"numericValue,omitzero"`
}

// Effective returns numericValue when present, else value.
func (p ValuePayload) Effective() Value {
	return First(p.NumericValue, p.Value)
}

// TileResult is one revealed tile: bet-result and the entries of
// auto-bet-result and start-bet assignments.
type TileResult struct {
	Row        Value `json:"row"`
	Col        Value `json:"col"`
	ContentKey Value `json:"contentKey,omitzero"`
	Result     Value `json:"result,omitzero"`
}

// NewTileResult builds a result for p.
func NewTileResult(p core.Position, content core.ContentKey) TileResult {
	tr := TileResult{Row: Int(p.Row), Col: Int(p.Col)}
	if !content.IsNone() {
		tr.ContentKey = Str(string(content))
	}
	return tr
}

// Position returns the tile coordinates when both are integral numbers.
func (t TileResult) Position() (core.Position, bool) {
	row, ok := t.Row.Integer()
	if !ok {
		return core.Position{}, false
	}
	col, ok := t.Col.Integer()
	if !ok {
		return core.Position{}, false
	}
	return core.Pos(row, col), true
}

// Content returns contentKey, falling back to result.
func (t TileResult) Content() core.ContentKey {
	if s, ok := First(t.ContentKey, t.Result).Text(); ok {
		return core.ContentKey(s)
	}
	return core.NoContent
}

// TileResults decodes leniently: anything but an array yields no results and
// malformed entries are skipped.
type TileResults []TileResult

func (r *TileResults) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		*r = nil
		return nil
	}
	out := make(TileResults, 0, len(raw))
	for _, item := range raw {
		var tr TileResult
		if err := json.Unmarshal(item, &tr); err != nil {
			continue
		}
		out = append(out, tr)
	}
	*r = out
	return nil
}

// AutoBetResultPayload is received with auto-bet-result.
type AutoBetResultPayload struct {
	Results TileResults `json:"results"`
}

// StartBetPayload is received with start-bet. The round fields are optional;
// when present the backend dictates the card.
type StartBetPayload struct {
	BetResult         Value       `json:"betResult,omitzero"`
	WinningKey        Value       `json:"winningKey,omitzero"`
	TotalWinningCards Value       `json:"totalWinningCards,omitzero"`
	Assignments       TileResults `json:"assignments,omitempty"`
}

// HasRound reports whether the payload carries a card.
func (p StartBetPayload) HasRound() bool {
	return len(p.Assignments) > 0
}
