package betting

import (
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/relay"
)

func (c *Coordinator) setAutoRunUIState(active bool) {
	if active {
		c.ui.AutoMode = AutoButtonStop
		c.ui.AutoClickable = true
	} else {
		c.ui.AutoMode = AutoButtonStart
		c.ui.AutoClickable = c.ui.Mode == core.ModeAuto
	}
	c.ui.ModeToggleClickable = !active
	c.ui.BetControlsClickable = !active
	c.ui.MinesClickable = !active
	c.ui.NumberOfBetsClickable = !active
	c.ui.AdvancedClickable = !active
}

func (c *Coordinator) setAutoRunFinishingState() {
	c.ui.AutoMode = AutoButtonFinish
	c.ui.AutoClickable = false
	c.ui.ModeToggleClickable = false
	c.ui.BetControlsClickable = false
	c.ui.MinesClickable = false
	c.ui.NumberOfBetsClickable = false
	c.ui.AdvancedClickable = false
}

func (c *Coordinator) clearAutoRoundTimer() {
	c.autoTimer.Stop()
	c.autoTimer = nil
}

func (c *Coordinator) startAuto() {
	if c.ui.AutoRunActive || c.ui.Mode != core.ModeAuto {
		return
	}

	c.ui.AutoRunActive = true
	c.autoRoundInProgress = false
	c.ui.AutoStopPending = false
	c.autoRemainingBets = max(0, c.ui.NumberOfBets)
	c.run = &runInfo{
		id:        uuid.NewString(),
		requested: c.autoRemainingBets,
		startedAt: c.sched.Clock().Now(),
	}
	c.logger.Info("auto run started", "run", c.run.id, "bets", c.autoRemainingBets)

	if c.live() {
		payload := relay.AutobetPayload{NumberOfBets: relay.Int(c.autoRemainingBets)}
		c.send(relay.TypeControlStartAutobet, payload)
		c.send(relay.TypeStartAutobet, payload)
	}

	c.setAutoRunUIState(true)
	c.executeAutoBetRound()
}

func (c *Coordinator) executeAutoBetRound() {
	if !c.ui.AutoRunActive {
		return
	}
	c.autoRoundInProgress = true

	if c.live() {
		c.send(relay.TypeAutoRoundRequest, struct{}{})
		return
	}

	c.handleBet(c.demoBetResult())
	c.revealKick = c.sched.After(0, func() {
		c.revealKick = nil
		if !c.ui.AutoRunActive {
			return
		}
		c.orch.RevealRemaining()
		c.publish()
	})
}

func (c *Coordinator) scheduleNextAutoBetRound() {
	if !c.ui.AutoRunActive {
		return
	}
	c.clearAutoRoundTimer()
	c.autoTimer = c.sched.After(c.cfg.AutoResetDelay, func() {
		c.autoTimer = nil
		if !c.ui.AutoRunActive {
			return
		}
		c.executeAutoBetRound()
		c.publish()
	})
}

func (c *Coordinator) stopAuto(reason string, completed bool) {
	if reason == "" {
		reason = "user"
	}
	c.clearAutoRoundTimer()
	if !c.ui.AutoRunActive {
		// No run to stop. A manual round is left alone, and a stop already
		// waiting on its last round keeps waiting.
		if !c.ui.RoundActive {
			c.ui.AutoStopPending = false
		}
		return
	}
	c.clearSelectionDelay()

	c.ui.AutoRunActive = false
	c.autoRoundInProgress = false

	if c.live() {
		c.send(relay.TypeStopAutobetRequest, relay.StopAutobetPayload{
			Reason:    relay.Str(reason),
			Completed: relay.Bool(completed),
		})
	}
	if c.run != nil {
		c.run.reason = reason
		c.run.completed = completed
		c.logger.Info("auto run stopping", "run", c.run.id, "reason", reason, "completed", completed)
	}

	if c.ui.RoundActive && !completed {
		c.ui.AutoStopPending = true
		c.setAutoRunFinishingState()
		if !c.orch.SweepInProgress() {
			c.orch.RevealRemaining()
		}
		return
	}

	c.ui.AutoStopPending = false
	if c.ui.RoundActive {
		c.finalizeRound(SettleStop)
	}
	c.setAutoRunUIState(false)
	c.closeRun()
}

func (c *Coordinator) handleAutoRoundCompleted() {
	hadFiniteLimit := c.autoRemainingBets > 0
	if hadFiniteLimit {
		c.autoRemainingBets = max(0, c.autoRemainingBets-1)
	}
	c.autoRoundInProgress = false

	if !c.ui.AutoRunActive {
		return
	}
	if hadFiniteLimit && c.autoRemainingBets == 0 {
		c.stopAuto("completed", true)
		return
	}
	c.scheduleNextAutoBetRound()
}
