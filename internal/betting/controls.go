package betting

import (
	"math"
	"strconv"
	"strings"

	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/relay"
)

// BetButtonMode is what the main panel button does when pressed.
type BetButtonMode string

const (
	BetButtonBet     BetButtonMode = "bet"
	BetButtonScratch BetButtonMode = "scratch"
	BetButtonCashout BetButtonMode = "cashout"
)

// AutoButtonMode is the label state of the auto-bet start button.
type AutoButtonMode string

const (
	AutoButtonStart  AutoButtonMode = "start"
	AutoButtonStop   AutoButtonMode = "stop"
	AutoButtonFinish AutoButtonMode = "finish"
)

// StrategyKey selects the on-win or on-loss strategy.
type StrategyKey string

const (
	StrategyOnWin  StrategyKey = "win"
	StrategyOnLoss StrategyKey = "loss"
)

// ParseStrategyKey maps anything but "win" to the on-loss strategy.
func ParseStrategyKey(s string) StrategyKey {
	if StrategyKey(s) == StrategyOnWin {
		return StrategyOnWin
	}
	return StrategyOnLoss
}

// StrategyMode is what happens to the bet after a win or a loss.
type StrategyMode string

const (
	StrategyReset    StrategyMode = "reset"
	StrategyIncrease StrategyMode = "increase"
)

// Strategy is one advanced auto-bet rule.
type Strategy struct {
	Mode  StrategyMode
	Value float64 // percent increase when Mode is StrategyIncrease
}

// Controls is a snapshot of every panel affordance.
type Controls struct {
	Mode core.Mode
	Demo bool

	BetMode          BetButtonMode
	BetClickable     bool
	RandomClickable  bool
	CashoutAvailable bool

	AutoMode      AutoButtonMode
	AutoClickable bool

	ModeToggleClickable   bool
	BetControlsClickable  bool
	MinesClickable        bool
	NumberOfBetsClickable bool
	AdvancedClickable     bool // strategy and stop-on-profit/loss inputs
	BoardInteractive      bool

	BetValue     float64
	Mines        int
	MaxMines     int
	NumberOfBets int
	OnWin        Strategy
	OnLoss       Strategy
	StopOnProfit float64
	StopOnLoss   float64
	Animations   bool

	RoundActive     bool
	AutoRunActive   bool
	AutoStopPending bool
	RemainingBets   int
	BetResult       core.BetResult

	ProfitMultiplier float64
	TotalProfit      string
}

// FormatAmount renders an amount with 8 decimals.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

// NormalizeBetValue clamps a bet to zero and rounds it to 8 decimals.
func NormalizeBetValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return math.Round(v*1e8) / 1e8
}

// NormalizeMines floors v and clamps it to [1, maxMines]. A maxMines below
// one means no upper bound.
func NormalizeMines(v float64, maxMines int) int {
	mines := 1
	if !math.IsNaN(v) && !math.IsInf(v, 0) {
		mines = int(math.Floor(v))
	}
	mines = max(1, mines)
	if maxMines >= 1 {
		mines = min(mines, maxMines)
	}
	return mines
}

// MaxMines returns the largest mines value for a board of totalTiles.
func MaxMines(totalTiles int) int {
	return max(1, totalTiles-1)
}

// NormalizeMultiplier returns a positive multiplier, defaulting to 1.
func NormalizeMultiplier(v relay.Value) float64 {
	if f, ok := v.Float(); ok && f > 0 {
		return f
	}
	return 1
}

// NormalizeTotalProfit renders a total profit value: numbers are clamped to
// zero with 8 decimals, other strings are kept trimmed.
func NormalizeTotalProfit(v relay.Value) string {
	if f, ok := v.Float(); ok {
		return FormatAmount(math.Max(0, f))
	}
	if s, ok := v.Text(); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return FormatAmount(0)
}

func clampNonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
