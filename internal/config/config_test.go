package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scratch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	var cfg GameConfig
	if err := yaml.Unmarshal(defaultGameYAML, &cfg); err != nil {
		t.Fatalf("embedded defaults do not parse: %v", err)
	}
	if want := DefaultGameConfig(); !reflect.DeepEqual(cfg, want) {
		t.Errorf("embedded defaults = %+v, want %+v", cfg, want)
	}
}

func TestLoadGameCustomPath(t *testing.T) {
	path := writeConfig(t, `
grid_size: 4
catalog: [a, b, a, "", c]
demo:
  lose_probability: 0.9
timing:
  reveal_interval_ms: 10
`)

	cfg, err := LoadGame(path)
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if cfg.GridSize != 4 {
		t.Errorf("GridSize = %d, want 4", cfg.GridSize)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(cfg.Catalog, want) {
		t.Errorf("Catalog = %v, want %v", cfg.Catalog, want)
	}
	if cfg.Demo.LoseProbability != 0.9 {
		t.Errorf("LoseProbability = %v, want 0.9", cfg.Demo.LoseProbability)
	}
	if cfg.Timing.RevealInterval() != 10*time.Millisecond {
		t.Errorf("RevealInterval = %v, want 10ms", cfg.Timing.RevealInterval())
	}
	// Keys missing from the file keep their defaults.
	if cfg.Timing.AutoResetDelay() != time.Second {
		t.Errorf("AutoResetDelay = %v, want 1s", cfg.Timing.AutoResetDelay())
	}
	if !cfg.Timing.Animations {
		t.Error("Animations should default to true")
	}
	if cfg.Paytable["seven"] != 5 {
		t.Errorf("Paytable[seven] = %v, want 5", cfg.Paytable["seven"])
	}
}

func TestLoadGameErrors(t *testing.T) {
	if _, err := LoadGame(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing custom config")
	}
	if _, err := LoadGame(writeConfig(t, "grid_size: [")); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestNormalize(t *testing.T) {
	cfg := GameConfig{
		GridSize: 20,
		Paytable: map[string]float64{"a": -1, "b": 0, "c": 2},
		Demo:     DemoConfig{LoseProbability: 3},
		Timing:   TimingConfig{AutoResetDelayMs: -5, RevealIntervalMs: -1},
		Betting:  BettingConfig{DefaultBet: -2, NumberOfBets: -3, Mines: 50},
	}
	cfg.Normalize()

	if cfg.GridSize != 3 {
		t.Errorf("GridSize = %d, want 3", cfg.GridSize)
	}
	if len(cfg.Catalog) == 0 {
		t.Error("empty catalog should fall back to defaults")
	}
	if want := map[string]float64{"c": 2}; !reflect.DeepEqual(cfg.Paytable, want) {
		t.Errorf("Paytable = %v, want %v", cfg.Paytable, want)
	}
	if cfg.Demo.LoseProbability != 1 {
		t.Errorf("LoseProbability = %v, want 1", cfg.Demo.LoseProbability)
	}
	if cfg.Timing.AutoResetDelayMs != 0 || cfg.Timing.RevealIntervalMs != 0 {
		t.Errorf("negative timings not clamped: %+v", cfg.Timing)
	}
	if cfg.Betting.DefaultBet != 0 || cfg.Betting.NumberOfBets != 0 {
		t.Errorf("negative betting values not clamped: %+v", cfg.Betting)
	}
	if cfg.Betting.Mines != 8 {
		t.Errorf("Mines = %d, want 8", cfg.Betting.Mines)
	}
}

func TestCatalogAndPaytableKeys(t *testing.T) {
	cfg := DefaultGameConfig()
	keys := cfg.CatalogKeys()
	if len(keys) != len(cfg.Catalog) || string(keys[0]) != cfg.Catalog[0] {
		t.Errorf("CatalogKeys = %v", keys)
	}
	if cfg.PaytableKeys()["diamond"] != 10 {
		t.Errorf("PaytableKeys[diamond] = %v, want 10", cfg.PaytableKeys()["diamond"])
	}
}

func TestOddsPresets(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"generous", 0.2},
		{" Normal ", 0.4},
		{"tight", 0.7},
		{"", 0.55},
		{"config", 0.55},
	}
	for _, tt := range tests {
		preset, err := ParseOddsPreset(tt.in)
		if err != nil {
			t.Fatalf("ParseOddsPreset(%q): %v", tt.in, err)
		}
		cfg := GameConfig{Demo: DemoConfig{LoseProbability: 0.55}}
		ApplyOddsPreset(&cfg, preset)
		if cfg.Demo.LoseProbability != tt.want {
			t.Errorf("preset %q: LoseProbability = %v, want %v", tt.in, cfg.Demo.LoseProbability, tt.want)
		}
	}

	if _, err := ParseOddsPreset("rigged"); err == nil {
		t.Error("expected error for unknown preset")
	}
}
