package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadGame loads the scratch card configuration and normalizes it.
// Search order: customPath -> ~/.scratch/configs/scratch.yaml -> ./configs/scratch.yaml -> embedded default
// Keys missing from a file keep their default values.
func LoadGame(customPath string) (GameConfig, error) {
	cfg, err := loadGame(customPath)
	if err != nil {
		return cfg, err
	}
	cfg.Normalize()
	return cfg, nil
}

func loadGame(customPath string) (GameConfig, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return GameConfig{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg := DefaultGameConfig()
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return GameConfig{}, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("scratch.yaml"); userCfgPath != "" {
		if cfg, ok := parseFile(userCfgPath); ok {
			return cfg, nil
		}
	}

	// Try local configs directory
	if cfg, ok := parseFile(filepath.Join("configs", "scratch.yaml")); ok {
		return cfg, nil
	}

	// Use embedded default YAML
	cfg := DefaultGameConfig()
	if err := yaml.Unmarshal(defaultGameYAML, &cfg); err != nil {
		return DefaultGameConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

func parseFile(path string) (GameConfig, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GameConfig{}, false
	}
	cfg := DefaultGameConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return GameConfig{}, false
	}
	return cfg, true
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".scratch", "configs", filename)
}
