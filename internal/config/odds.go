package config

import (
	"fmt"
	"strings"
)

// OddsPreset is a named demo lose probability.
type OddsPreset string

const (
	OddsGenerous OddsPreset = "generous"
	OddsNormal   OddsPreset = "normal"
	OddsTight    OddsPreset = "tight"
	OddsConfig   OddsPreset = "config" // keep the configured probability
)

// ParseOddsPreset parses a preset name. The empty string means OddsConfig.
func ParseOddsPreset(s string) (OddsPreset, error) {
	switch p := OddsPreset(strings.ToLower(strings.TrimSpace(s))); p {
	case "", OddsConfig:
		return OddsConfig, nil
	case OddsGenerous, OddsNormal, OddsTight:
		return p, nil
	default:
		return OddsConfig, fmt.Errorf("unknown odds preset %q (want generous, normal, tight or config)", s)
	}
}

// LoseProbabilityForPreset returns the lose probability of a preset.
func LoseProbabilityForPreset(preset OddsPreset) (float64, bool) {
	switch preset {
	case OddsGenerous:
		return 0.2, true
	case OddsNormal:
		return 0.4, true
	case OddsTight:
		return 0.7, true
	default:
		return 0, false
	}
}

// ApplyOddsPreset modifies the config based on an odds preset.
func ApplyOddsPreset(cfg *GameConfig, preset OddsPreset) {
	if p, ok := LoseProbabilityForPreset(preset); ok {
		cfg.Demo.LoseProbability = p
	}
}
