package config

import (
	_ "embed"
)

//go:embed defaults/scratch.yaml
var defaultGameYAML []byte

// DefaultGameConfig returns the default scratch card configuration.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		GridSize: 3,
		Catalog:  []string{"cherry", "bell", "seven", "lemon", "star", "diamond"},
		Paytable: map[string]float64{
			"cherry":  1.5,
			"bell":    2,
			"seven":   5,
			"lemon":   1.2,
			"star":    3,
			"diamond": 10,
		},
		Demo: DemoConfig{
			LoseProbability: 0.4,
		},
		Timing: TimingConfig{
			AutoResetDelayMs: 1000,
			RevealIntervalMs: 40,
			FlipDurationMs:   300,
			Animations:       true,
		},
		Betting: BettingConfig{
			DefaultBet:   1,
			NumberOfBets: 0,
			Mines:        1,
		},
		Relay: RelayConfig{
			DemoMode: true,
		},
	}
}
