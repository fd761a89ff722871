package scratch

import "github.com/vovakirdan/tui-scratch/internal/core"

// Outcome is the round meta the orchestrator judges reveals against.
type Outcome struct {
	BetResult            core.BetResult
	WinningKey           core.ContentKey
	WinningCountRequired int
}

// NewOutcome derives the meta for an assignment. A winning round needs
// MatchThreshold matches, or fewer when the card holds fewer. A positive
// explicitCount (a server-reported total) replaces the card count but never
// raises the requirement above MatchThreshold.
func NewOutcome(result core.BetResult, winningKey core.ContentKey, a Assignment, explicitCount int) Outcome {
	o := Outcome{BetResult: result}
	if result != core.ResultWin || winningKey.IsNone() {
		return o
	}
	o.WinningKey = winningKey
	count := a.Count(winningKey)
	if explicitCount > 0 {
		count = explicitCount
	}
	o.WinningCountRequired = min(MatchThreshold, count)
	return o
}

// IsWinning reports whether face counts toward this round's win.
func (o Outcome) IsWinning(face core.ContentKey) bool {
	return o.BetResult == core.ResultWin && !o.WinningKey.IsNone() && face == o.WinningKey
}

// Cue names a sound effect.
type Cue string

const (
	CueGameStart Cue = "game-start"
	CueFlip      Cue = "tile-flip"
	CueTwoMatch  Cue = "two-match"
	CueRoundWin  Cue = "round-win"
	CueRoundLost Cue = "round-lost"
)

func (o Outcome) finishCue() (Cue, bool) {
	switch o.BetResult {
	case core.ResultWin:
		return CueRoundWin, true
	case core.ResultLost:
		return CueRoundLost, true
	default:
		return "", false
	}
}

// RoundSummary is reported once when every tile is revealed and settled.
type RoundSummary struct {
	Outcome      Outcome
	Revealed     int
	WinningTiles []core.Position
	Won          bool
}
