// Package config provides YAML-based configuration loading and odds presets
// for the scratch card game.
package config

import (
	"math"
	"time"

	"github.com/vovakirdan/tui-scratch/internal/core"
)

// GameConfig contains all configuration for the scratch card game.
type GameConfig struct {
	GridSize int                `yaml:"grid_size"`
	Catalog  []string           `yaml:"catalog"`
	Paytable map[string]float64 `yaml:"paytable"`
	Demo     DemoConfig         `yaml:"demo"`
	Timing   TimingConfig       `yaml:"timing"`
	Betting  BettingConfig      `yaml:"betting"`
	Relay    RelayConfig        `yaml:"relay"`
}

// DemoConfig defines how demo rounds are resolved locally.
type DemoConfig struct {
	LoseProbability float64 `yaml:"lose_probability"`
}

// TimingConfig defines delays and animation switches.
type TimingConfig struct {
	AutoResetDelayMs int  `yaml:"auto_reset_delay_ms"` // pause between auto rounds
	RevealIntervalMs int  `yaml:"reveal_interval_ms"`  // stagger between sweep reveals
	FlipDurationMs   int  `yaml:"flip_duration_ms"`    // tile flip animation length
	Animations       bool `yaml:"animations"`
}

// BettingConfig defines the initial control panel values.
type BettingConfig struct {
	DefaultBet   float64 `yaml:"default_bet"`
	NumberOfBets int     `yaml:"number_of_bets"` // 0 = unlimited
	Mines        int     `yaml:"mines"`
}

// RelayConfig defines the backend connection.
type RelayConfig struct {
	URL      string `yaml:"url"`
	DemoMode bool   `yaml:"demo_mode"`
}

const maxGridSize = 8

// Normalize clamps out-of-range values to usable ones.
func (c *GameConfig) Normalize() {
	if c.GridSize < 1 || c.GridSize > maxGridSize {
		c.GridSize = DefaultGameConfig().GridSize
	}

	seen := make(map[string]bool, len(c.Catalog))
	catalog := c.Catalog[:0]
	for _, k := range c.Catalog {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		catalog = append(catalog, k)
	}
	c.Catalog = catalog
	if len(c.Catalog) == 0 {
		c.Catalog = DefaultGameConfig().Catalog
	}

	for k, m := range c.Paytable {
		if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			delete(c.Paytable, k)
		}
	}

	if math.IsNaN(c.Demo.LoseProbability) {
		c.Demo.LoseProbability = DefaultGameConfig().Demo.LoseProbability
	}
	c.Demo.LoseProbability = core.Clamp(c.Demo.LoseProbability, 0, 1)

	c.Timing.AutoResetDelayMs = max(c.Timing.AutoResetDelayMs, 0)
	c.Timing.RevealIntervalMs = max(c.Timing.RevealIntervalMs, 0)
	c.Timing.FlipDurationMs = max(c.Timing.FlipDurationMs, 0)

	if c.Betting.DefaultBet < 0 || math.IsNaN(c.Betting.DefaultBet) {
		c.Betting.DefaultBet = 0
	}
	c.Betting.NumberOfBets = max(c.Betting.NumberOfBets, 0)
	maxMines := max(1, c.GridSize*c.GridSize-1)
	c.Betting.Mines = core.Clamp(c.Betting.Mines, 1, maxMines)
}

// CatalogKeys returns the catalog as content keys.
func (c GameConfig) CatalogKeys() []core.ContentKey {
	out := make([]core.ContentKey, 0, len(c.Catalog))
	for _, k := range c.Catalog {
		out = append(out, core.ContentKey(k))
	}
	return out
}

// PaytableKeys returns the paytable keyed by content key.
func (c GameConfig) PaytableKeys() map[core.ContentKey]float64 {
	out := make(map[core.ContentKey]float64, len(c.Paytable))
	for k, m := range c.Paytable {
		out[core.ContentKey(k)] = m
	}
	return out
}

func (t TimingConfig) AutoResetDelay() time.Duration {
	return time.Duration(t.AutoResetDelayMs) * time.Millisecond
}

func (t TimingConfig) RevealInterval() time.Duration {
	return time.Duration(t.RevealIntervalMs) * time.Millisecond
}

func (t TimingConfig) FlipDuration() time.Duration {
	return time.Duration(t.FlipDurationMs) * time.Millisecond
}
