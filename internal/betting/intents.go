package betting

import (
	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/relay"
)

// PressBet handles the main panel button: bet, scratch-all or cashout
// depending on its current mode.
func (c *Coordinator) PressBet() {
	defer c.publish()
	if !c.ui.BetClickable && c.ui.BetMode != BetButtonCashout {
		return
	}

	switch c.ui.BetMode {
	case BetButtonCashout:
		c.cashout()
	case BetButtonScratch:
		if c.ui.Mode != core.ModeManual {
			return
		}
		c.revealRemainingAndFinalize()
	default:
		if c.ui.RoundActive || c.ui.Mode == core.ModeAuto {
			return
		}
		result := core.ResultLost
		if !c.live() {
			result = c.demoBetResult()
		}
		c.handleBet(result)
	}
}

// Cashout settles the manual round early when cashout is available.
func (c *Coordinator) Cashout() {
	defer c.publish()
	c.cashout()
}

// TapTile selects a tile of the active manual round.
func (c *Coordinator) TapTile(p core.Position) bool {
	defer c.publish()
	if !c.ui.RoundActive || !c.ui.BoardInteractive || c.selectionPending || c.ui.Mode == core.ModeAuto {
		return false
	}
	return c.orch.SelectTile(p)
}

// RandomPick selects a random hidden tile of the active manual round.
func (c *Coordinator) RandomPick() bool {
	defer c.publish()
	if !c.ui.RoundActive || c.selectionPending || !c.ui.RandomClickable {
		return false
	}
	_, ok := c.orch.SelectRandom()
	return ok
}

// SetMode switches between manual and auto. A round in flight is finalized
// first, and a running auto run is stopped.
func (c *Coordinator) SetMode(mode core.Mode) {
	defer c.publish()
	if mode != core.ModeAuto {
		mode = core.ModeManual
	}
	prev := c.ui.Mode
	if mode == prev {
		return
	}

	if c.ui.AutoRunActive && mode != core.ModeAuto {
		c.stopAuto("user", false)
	}
	if c.ui.RoundActive {
		c.finalizeRound(SettleModeChange)
	}

	c.ui.Mode = mode
	if mode == core.ModeAuto {
		if c.manualRoundNeedsReset {
			c.orch.Reset()
			c.manualRoundNeedsReset = false
		}
		c.ui.RandomClickable = false
		c.ui.BoardInteractive = false
		if !c.ui.AutoRunActive {
			c.ui.AutoClickable = true
		}
		return
	}

	c.ui.AutoClickable = false
	c.orch.Reset()
	c.manualRoundNeedsReset = false
	c.ui.BoardInteractive = false
	c.ui.RandomClickable = false
	c.ui.BetClickable = true
}

// ToggleAutoBet starts an auto run, or stops the running one.
func (c *Coordinator) ToggleAutoBet() {
	if c.ui.AutoRunActive {
		c.StopAutoBet("user", false)
		return
	}
	c.StartAutoBet()
}

// StartAutoBet starts an auto run in auto mode.
func (c *Coordinator) StartAutoBet() {
	defer c.publish()
	if c.ui.AutoStopPending {
		return
	}
	c.startAuto()
}

// StopAutoBet stops the auto run. A round in flight is revealed and
// settled before the run ends unless completed is set.
func (c *Coordinator) StopAutoBet(reason string, completed bool) {
	defer c.publish()
	c.stopAuto(reason, completed)
}

// SetBetValue updates the bet amount.
func (c *Coordinator) SetBetValue(v float64) {
	defer c.publish()
	if !c.ui.BetControlsClickable {
		return
	}
	c.ui.BetValue = NormalizeBetValue(v)
	c.send(relay.TypeControlBetValue, relay.BetValuePayload{
		Value:        relay.Str(FormatAmount(c.ui.BetValue)),
		NumericValue: relay.Num(c.ui.BetValue),
	})
}

// SetMines updates the mines option, clamped to the board.
func (c *Coordinator) SetMines(v int) {
	defer c.publish()
	if !c.ui.MinesClickable {
		return
	}
	c.ui.Mines = NormalizeMines(float64(v), c.ui.MaxMines)
	c.send(relay.TypeControlMines, relay.MinesPayload{
		Value:      relay.Int(c.ui.Mines),
		TotalTiles: relay.Int(c.totalTiles()),
		Gems:       relay.Int(c.totalTiles() - c.ui.Mines),
	})
}

// SetNumberOfBets sets the auto run length; 0 means unlimited.
func (c *Coordinator) SetNumberOfBets(n int) {
	defer c.publish()
	if !c.ui.NumberOfBetsClickable {
		return
	}
	c.ui.NumberOfBets = max(0, n)
	if !c.ui.AutoRunActive {
		c.autoRemainingBets = c.ui.NumberOfBets
	}
	c.send(relay.TypeControlNumberOfBets, relay.ValuePayload{Value: relay.Int(c.ui.NumberOfBets)})
}

// SetStrategyMode sets what happens to the bet after a win or a loss.
func (c *Coordinator) SetStrategyMode(key StrategyKey, mode StrategyMode) {
	defer c.publish()
	if !c.ui.AdvancedClickable {
		return
	}
	if mode != StrategyIncrease {
		mode = StrategyReset
	}
	c.strategy(key).Mode = mode
	c.send(relay.TypeControlStrategyMode, relay.StrategyPayload{
		Key:  relay.Str(string(key)),
		Mode: relay.Str(string(mode)),
	})
}

// SetStrategyValue sets the increase percentage of a strategy.
func (c *Coordinator) SetStrategyValue(key StrategyKey, v float64) {
	defer c.publish()
	if !c.ui.AdvancedClickable {
		return
	}
	v = clampNonNegative(v)
	c.strategy(key).Value = v
	c.send(relay.TypeControlStrategyValue, relay.StrategyPayload{
		Key:   relay.Str(string(key)),
		Value: relay.Num(v),
	})
}

func (c *Coordinator) strategy(key StrategyKey) *Strategy {
	if key == StrategyOnWin {
		return &c.ui.OnWin
	}
	return &c.ui.OnLoss
}

// SetStopOnProfit sets the auto run profit limit.
func (c *Coordinator) SetStopOnProfit(v float64) {
	defer c.publish()
	if !c.ui.AdvancedClickable {
		return
	}
	c.ui.StopOnProfit = clampNonNegative(v)
	c.send(relay.TypeControlStopOnProfit, relay.ValuePayload{Value: relay.Num(c.ui.StopOnProfit)})
}

// SetStopOnLoss sets the auto run loss limit.
func (c *Coordinator) SetStopOnLoss(v float64) {
	defer c.publish()
	if !c.ui.AdvancedClickable {
		return
	}
	c.ui.StopOnLoss = clampNonNegative(v)
	c.send(relay.TypeControlStopOnLoss, relay.ValuePayload{Value: relay.Num(c.ui.StopOnLoss)})
}

// SetAnimationsEnabled toggles reveal staggering.
func (c *Coordinator) SetAnimationsEnabled(enabled bool) {
	defer c.publish()
	c.ui.Animations = enabled
	c.orch.SetAnimationsEnabled(enabled)
}

// DemoModeSetter is implemented by outbound transports that track demo mode.
type DemoModeSetter interface {
	SetDemoMode(demo bool)
}

// SetDemoMode switches between local resolution and the backend.
func (c *Coordinator) SetDemoMode(demo bool) {
	defer c.publish()
	if s, ok := c.outbound.(DemoModeSetter); ok {
		s.SetDemoMode(demo)
	}
	c.syncDemoMode(demo)
}

// syncDemoMode follows a demo mode change without propagating it.
func (c *Coordinator) syncDemoMode(demo bool) {
	if c.ui.Demo == demo {
		return
	}
	c.ui.Demo = demo
	c.logger.Info("demo mode", "demo", demo)
	if demo {
		c.clearSelectionDelay()
	}
}
