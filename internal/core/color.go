package core

// Color is the foreground of a screen cell. The platform layer maps each
// value to a terminal color.
type Color uint8

const (
	ColorDefault Color = iota

	// Tile faces and frames.
	ColorGray
	ColorWhite
	ColorYellow

	// Matched and pending tiles.
	ColorCyan

	// Cursor.
	ColorMagenta

	// Round won, and the win frame animation.
	ColorBrightGreen
	ColorBrightYellow
)
