package relay

import (
	"context"
	"io"
	"math/rand"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/games/scratch"
)

// DefaultMultiplier pays a win whose key is missing from the paytable.
const DefaultMultiplier = 2.0

// HouseConfig configures an automated backend.
type HouseConfig struct {
	GridSize        int
	Catalog         []core.ContentKey
	Paytable        map[core.ContentKey]float64
	LoseProbability float64
	Rand            *rand.Rand
	Logger          *log.Logger
}

type houseRound struct {
	result   core.BetResult
	key      core.ContentKey
	required int
	bet      float64
	card     scratch.Assignment
	revealed map[core.Position]bool
	matched  int
	settled  bool
}

// House answers game traffic for one player. It decides outcomes, deals
// cards and keeps the running profit. It is not safe for concurrent use.
type House struct {
	cfg    HouseConfig
	logger *log.Logger
	rng    *rand.Rand

	baseBet      float64
	bet          float64
	onWin        strategyRule
	onLoss       strategyRule
	stopOnProfit float64
	stopOnLoss   float64

	autoActive bool
	autoProfit float64
	total      float64
	round      *houseRound
}

type strategyRule struct {
	increase bool
	percent  float64
}

// NewHouse creates a house with zero profit.
func NewHouse(cfg HouseConfig) *House {
	if cfg.GridSize <= 0 {
		cfg.GridSize = 3
	}
	if cfg.LoseProbability < 0 || cfg.LoseProbability > 1 {
		cfg.LoseProbability = 0.4
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	return &House{
		cfg:    cfg,
		logger: cfg.Logger.WithPrefix("house"),
		rng:    cfg.Rand,
	}
}

// Handle answers one game message. Replies are returned in delivery order.
func (h *House) Handle(msg Message) []Message {
	switch msg.Type {
	case TypeBet:
		var p BetPayload
		msg.Decode(&p)
		if f, ok := p.Bet.Float(); ok && f >= 0 {
			h.bet = f
		}
		out := h.settle()
		return append(out, h.deal())

	case TypeManualSelection:
		var p SelectionPayload
		msg.Decode(&p)
		return h.reveal(TileResult{Row: p.Row, Col: p.Col})

	case TypeAutoRoundRequest:
		out := h.settle()
		out = append(out, h.deal())
		results := make(TileResults, 0, len(h.round.card))
		for _, e := range h.round.card.Entries() {
			results = append(results, NewTileResult(e.Pos, e.Content))
		}
		out = append(out, NewMessage(TypeAutoBetResult, AutoBetResultPayload{Results: results}))
		out = append(out, h.settle()...)
		return append(out, h.autoLimits()...)

	case TypeCashoutRequest:
		if h.round == nil || h.round.settled {
			return nil
		}
		out := []Message{NewMessage(TypeCashout, nil)}
		out = append(out, h.settle()...)
		return append(out, NewMessage(TypeFinalizeBet, nil))

	case TypeStartAutobet:
		h.autoActive = true
		h.autoProfit = 0
		if h.baseBet == 0 {
			h.baseBet = h.bet
		}
		h.bet = h.baseBet
		return nil

	case TypeStopAutobetRequest:
		h.autoActive = false
		h.bet = h.baseBet
		return nil

	default:
		h.control(msg)
		return nil
	}
}

func (h *House) control(msg Message) {
	var p ValuePayload
	switch msg.Type {
	case TypeControlBetValue:
		msg.Decode(&p)
		if f, ok := p.Effective().Float(); ok && f >= 0 {
			h.baseBet = f
			h.bet = f
		}
	case TypeControlStrategyMode, TypeControlStrategyValue:
		var s StrategyPayload
		msg.Decode(&s)
		key, _ := s.Key.Text()
		rule := &h.onLoss
		if key == "win" {
			rule = &h.onWin
		}
		if mode, ok := s.Mode.Text(); ok {
			rule.increase = mode == "increase"
		}
		if f, ok := s.Value.Float(); ok && f >= 0 {
			rule.percent = f
		}
	case TypeControlStopOnProfit:
		msg.Decode(&p)
		h.stopOnProfit, _ = p.Effective().Float()
	case TypeControlStopOnLoss:
		msg.Decode(&p)
		h.stopOnLoss, _ = p.Effective().Float()
	default:
		h.logger.Debug("telemetry", "type", msg.Type, "payload", string(msg.Payload))
	}
}

func (h *House) deal() Message {
	result := core.ResultWin
	if h.rng.Float64() < h.cfg.LoseProbability {
		result = core.ResultLost
	}
	gen := scratch.Generate(h.rng, result, h.cfg.Catalog, h.cfg.GridSize)
	outcome := scratch.NewOutcome(result, gen.WinningKey, gen.Assignment, 0)
	h.round = &houseRound{
		result:   result,
		key:      gen.WinningKey,
		required: outcome.WinningCountRequired,
		bet:      h.bet,
		card:     gen.Assignment,
		revealed: make(map[core.Position]bool),
	}
	h.logger.Debug("dealt round", "result", result, "key", gen.WinningKey, "bet", h.bet)

	assignments := make(TileResults, 0, len(gen.Entries))
	for _, e := range gen.Entries {
		assignments = append(assignments, NewTileResult(e.Pos, e.Content))
	}
	p := StartBetPayload{
		BetResult:   Str(string(result)),
		Assignments: assignments,
	}
	if !gen.WinningKey.IsNone() {
		p.WinningKey = Str(string(gen.WinningKey))
		p.TotalWinningCards = Int(outcome.WinningCountRequired)
	}
	return NewMessage(TypeStartBet, p)
}

func (h *House) reveal(tr TileResult) []Message {
	r := h.round
	if r == nil {
		return nil
	}
	pos, ok := tr.Position()
	if !ok || !pos.InBounds(h.cfg.GridSize) {
		h.logger.Warn("ignoring selection outside the card")
		return nil
	}
	content := r.card[pos]
	out := []Message{NewMessage(TypeBetResult, NewTileResult(pos, content))}
	if r.revealed[pos] {
		return out
	}
	r.revealed[pos] = true
	if r.result == core.ResultWin && content == r.key {
		r.matched++
	}
	if len(r.revealed) >= len(r.card) || (r.required > 0 && r.matched >= r.required) {
		out = append(out, h.settle()...)
	}
	return out
}

// settle books the current round once and reports the new profit figures.
func (h *House) settle() []Message {
	r := h.round
	if r == nil || r.settled {
		return nil
	}
	r.settled = true

	mult := 0.0
	delta := -r.bet
	if r.result == core.ResultWin {
		mult = DefaultMultiplier
		if m, ok := h.cfg.Paytable[r.key]; ok && m > 0 {
			mult = m
		}
		delta = r.bet * (mult - 1)
	}
	h.total += delta
	if h.autoActive {
		h.autoProfit += delta
		h.applyStrategy(r.result == core.ResultWin)
	}
	h.logger.Info("round settled", "result", r.result, "bet", r.bet, "multiplier", mult, "total", h.total)

	return []Message{
		NewMessage(TypeProfitMultiplier, ValuePayload{Value: Num(mult), NumericValue: Num(mult)}),
		NewMessage(TypeProfitTotal, ValuePayload{Value: Str(formatAmount(h.total)), NumericValue: Num(h.total)}),
	}
}

func (h *House) applyStrategy(won bool) {
	rule := h.onLoss
	if won {
		rule = h.onWin
	}
	if rule.increase {
		h.bet *= 1 + rule.percent/100
		return
	}
	h.bet = h.baseBet
}

func (h *House) autoLimits() []Message {
	if !h.autoActive {
		return nil
	}
	var reason string
	switch {
	case h.stopOnProfit > 0 && h.autoProfit >= h.stopOnProfit:
		reason = "profit"
	case h.stopOnLoss > 0 && -h.autoProfit >= h.stopOnLoss:
		reason = "loss"
	default:
		return nil
	}
	h.autoActive = false
	h.bet = h.baseBet
	h.logger.Info("auto run limit reached", "reason", reason, "profit", h.autoProfit)
	return []Message{NewMessage(TypeStopAutobet, StopAutobetPayload{Reason: Str(reason), Completed: Bool(false)})}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

// Total returns the running profit.
func (h *House) Total() float64 { return h.total }

// Serve answers hub traffic with house until ctx is done or the hub closes.
func Serve(ctx context.Context, hub *Hub, house *House) error {
	sub, err := hub.Outgoing(0)
	if err != nil {
		return err
	}
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.C():
			if !ok {
				return nil
			}
			for _, reply := range house.Handle(msg) {
				hub.Deliver(reply)
			}
		}
	}
}
