// Package relay carries the typed {type, payload} envelopes exchanged between
// a game instance and its backend: an in-process hub, a WebSocket transport
// and the automated house backend that answers them.
package relay

import (
	"encoding/json"
	"strings"
)

// Message is the wire envelope.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outbound (game to backend) message types.
const (
	TypeBet                  = "action:bet"
	TypeManualSelection      = "game:manual-selection"
	TypeAutoRoundRequest     = "game:auto-round-request"
	TypeCashoutRequest       = "action:cashout"
	TypeStartAutobet         = "action:start-autobet"
	TypeStopAutobetRequest   = "action:stop-autobet"
	TypeControlStartAutobet  = "control:start-autobet"
	TypeControlMines         = "control:mines"
	TypeControlBetValue      = "control:bet-value"
	TypeControlNumberOfBets  = "control:number-of-bets"
	TypeControlStrategyMode  = "control:strategy-mode"
	TypeControlStrategyValue = "control:strategy-value"
	TypeControlStopOnProfit  = "control:stop-on-profit"
	TypeControlStopOnLoss    = "control:stop-on-loss"
)

// Inbound (backend to game) message types.
const (
	TypeStartBet         = "start-bet"
	TypeBetResult        = "bet-result"
	TypeAutoBetResult    = "auto-bet-result"
	TypeStopAutobet      = "stop-autobet"
	TypeFinalizeBet      = "finalize-bet"
	TypeCashout          = "cashout"
	TypeProfitMultiplier = "profit:update-multiplier"
	TypeProfitTotal      = "profit:update-total"
)

// NewMessage wraps payload in an envelope. A payload that cannot be encoded
// is sent as an empty object.
func NewMessage(typ string, payload any) Message {
	if payload == nil {
		return Message{Type: typ, Payload: json.RawMessage("{}")}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		data = json.RawMessage("{}")
	}
	return Message{Type: typ, Payload: data}
}

// Decode unmarshals the payload into v. It reports false for a missing or
// malformed payload; v keeps whatever fields decoded before the failure.
func (m Message) Decode(v any) bool {
	if len(m.Payload) == 0 {
		return false
	}
	return json.Unmarshal(m.Payload, v) == nil
}

// IsInbound reports whether typ is sent by the backend.
func IsInbound(typ string) bool {
	switch typ {
	case TypeStartBet, TypeBetResult, TypeAutoBetResult, TypeStopAutobet,
		TypeFinalizeBet, TypeCashout, TypeProfitMultiplier, TypeProfitTotal:
		return true
	}
	return false
}

// IsControl reports whether typ mirrors a control change. Control messages
// are telemetry and may be dropped under load.
func IsControl(typ string) bool {
	return strings.HasPrefix(typ, "control:")
}
