package core

// Action represents a semantic player intent, abstracted from physical key presses.
type Action int

const (
	ActionNone             Action = iota
	ActionUp                      // move tile cursor up
	ActionDown                    // move tile cursor down
	ActionLeft                    // move tile cursor left
	ActionRight                   // move tile cursor right
	ActionReveal                  // tap the tile under the cursor
	ActionBet                     // bet / scratch button
	ActionCashout                 // cash out the current manual round
	ActionRandom                  // random pick
	ActionToggleMode              // manual <-> auto
	ActionAutoBet                 // start or stop auto betting
	ActionBetUp                   // raise bet value
	ActionBetDown                 // lower bet value
	ActionBetsUp                  // raise number of auto bets
	ActionBetsDown                // lower number of auto bets
	ActionToggleAnimations        // animations on/off
	ActionToggleDemo              // demo <-> relayed server
	ActionHistory                 // show round history
	ActionHelp                    // toggle full help
	ActionQuit                    // Q, Ctrl+C - exit session
)

var actionNames = map[Action]string{
	ActionNone:             "None",
	ActionUp:               "Up",
	ActionDown:             "Down",
	ActionLeft:             "Left",
	ActionRight:            "Right",
	ActionReveal:           "Reveal",
	ActionBet:              "Bet",
	ActionCashout:          "Cashout",
	ActionRandom:           "Random",
	ActionToggleMode:       "ToggleMode",
	ActionAutoBet:          "AutoBet",
	ActionBetUp:            "BetUp",
	ActionBetDown:          "BetDown",
	ActionBetsUp:           "BetsUp",
	ActionBetsDown:         "BetsDown",
	ActionToggleAnimations: "ToggleAnimations",
	ActionToggleDemo:       "ToggleDemo",
	ActionHistory:          "History",
	ActionHelp:             "Help",
	ActionQuit:             "Quit",
}

// String returns a human-readable name for the action.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "Unknown"
}
