package betting

import (
	"time"

	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/games/scratch"
)

// SettleReason says why a round was settled.
type SettleReason string

const (
	SettleFinished   SettleReason = "finished"
	SettleScratch    SettleReason = "scratch"
	SettleCashout    SettleReason = "cashout"
	SettleStop       SettleReason = "stop"
	SettleModeChange SettleReason = "mode-change"
	SettleRelay      SettleReason = "relay"
)

// Round sources.
const (
	SourceDemo = "demo"
	SourceLive = "live"
)

// Recorder persists settled rounds and finished auto runs.
// This allows the coordinator to save history without depending on the storage package.
type Recorder interface {
	SaveRound(r RoundRecord) error
	SaveAutoRun(r AutoRunRecord) error
}

// RoundRecord describes one settled round.
type RoundRecord struct {
	ID         string
	RunID      string // empty for manual rounds
	Mode       core.Mode
	Source     string
	Bet        float64
	Mines      int
	Result     core.BetResult
	WinningKey core.ContentKey
	Revealed   int
	Reason     SettleReason
	Entries    []scratch.Entry
	CreatedAt  time.Time
}

// AutoRunRecord describes one auto-bet run from start to stop.
type AutoRunRecord struct {
	ID            string
	RequestedBets int // 0 means unlimited
	RoundsPlayed  int
	StopReason    string
	Completed     bool
	StartedAt     time.Time
	EndedAt       time.Time
}
