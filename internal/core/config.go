package core

// RuntimeConfig contains per-session settings the platform layer passes to a game.
type RuntimeConfig struct {
	ScreenW int   // Screen width in characters
	ScreenH int   // Screen height in characters
	Seed    int64 // RNG seed for deterministic rounds
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW: 80,
		ScreenH: 24,
		Seed:    0, // 0 means use current time in platform layer
	}
}
