package betting

import (
	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/games/scratch"
	"github.com/vovakirdan/tui-scratch/internal/relay"
)

// HandleInbound applies a backend message. Transitions it triggers never
// send outbound traffic. Unknown types and malformed payloads are ignored.
func (c *Coordinator) HandleInbound(msg relay.Message) {
	defer c.publish()
	c.withRelaySuppressed(func() {
		switch msg.Type {
		case relay.TypeStartBet:
			var p relay.StartBetPayload
			msg.Decode(&p)
			c.applyStartBet(p)

		case relay.TypeBetResult:
			var p relay.TileResult
			msg.Decode(&p)
			c.applyServerReveal(p)

		case relay.TypeAutoBetResult:
			var p relay.AutoBetResultPayload
			msg.Decode(&p)
			c.applyAutoResults(p.Results)

		case relay.TypeStopAutobet:
			var p relay.StopAutobetPayload
			msg.Decode(&p)
			reason, ok := p.Reason.Text()
			if !ok {
				reason = "user"
			}
			c.stopAuto(reason, p.Completed.Truthy())

		case relay.TypeFinalizeBet:
			c.finalizeRound(SettleRelay)

		case relay.TypeCashout:
			if c.ui.RoundActive && c.ui.CashoutAvailable {
				c.cashout()
			}

		case relay.TypeProfitMultiplier:
			var p relay.ValuePayload
			msg.Decode(&p)
			c.ui.ProfitMultiplier = NormalizeMultiplier(p.Effective())

		case relay.TypeProfitTotal:
			var p relay.ValuePayload
			msg.Decode(&p)
			c.ui.TotalProfit = NormalizeTotalProfit(p.Effective())

		default:
			c.logger.Debug("ignoring relay message", "type", msg.Type)
		}
	})
}

func (c *Coordinator) applyStartBet(p relay.StartBetPayload) {
	c.performBet()
	c.orch.Reset()
	c.ui.RandomClickable = c.ui.Mode == core.ModeManual

	result := core.ResultNone
	if s, ok := p.BetResult.Text(); ok {
		result = core.ParseBetResult(s)
	}
	var winningKey core.ContentKey
	if s, ok := p.WinningKey.Text(); ok {
		winningKey = core.ContentKey(s)
	}
	total, _ := p.TotalWinningCards.Integer()

	a := scratch.Assignment{}
	for _, tr := range p.Assignments {
		if pos, ok := tr.Position(); ok && pos.InBounds(c.cfg.GridSize) {
			a[pos] = tr.Content()
		}
	}
	c.installRound(a, scratch.NewOutcome(result, winningKey, a, total))
}

func (c *Coordinator) applyServerReveal(tr relay.TileResult) {
	c.clearSelectionDelay()
	content := tr.Content()
	pos, hasPos := tr.Position()
	if hasPos && pos.InBounds(c.cfg.GridSize) {
		c.assignment[pos] = content
	} else {
		hasPos = false
	}

	if c.orch.RevealSelected(content) {
		return
	}
	if hasPos {
		c.orch.RevealTile(pos, content)
	}
}

func (c *Coordinator) applyAutoResults(results relay.TileResults) {
	c.clearSelectionDelay()
	if len(results) == 0 {
		return
	}
	entries := make([]scratch.Entry, 0, len(results))
	for _, tr := range results {
		pos, ok := tr.Position()
		if !ok || !pos.InBounds(c.cfg.GridSize) {
			continue
		}
		content := tr.Content()
		c.assignment[pos] = content
		entries = append(entries, scratch.Entry{Pos: pos, Content: content})
	}
	c.orch.RevealAutoSelections(entries)
}
