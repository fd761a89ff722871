package core

import "strings"

// Cell is one character position of a Screen.
type Cell struct {
	Rune  rune
	Color Color
}

var blank = Cell{Rune: ' '}

// Screen is a character buffer the board is drawn into. The platform layer
// turns it into styled terminal output.
type Screen struct {
	width, height int
	cells         []Cell // row-major
}

// NewScreen creates a blank screen. Negative sizes are treated as zero.
func NewScreen(width, height int) *Screen {
	s := &Screen{}
	s.Resize(width, height)
	return s
}

func (s *Screen) Width() int  { return s.width }
func (s *Screen) Height() int { return s.height }

// Resize changes the dimensions and blanks the buffer.
func (s *Screen) Resize(width, height int) {
	s.width, s.height = max(width, 0), max(height, 0)
	if n := s.width * s.height; cap(s.cells) >= n {
		s.cells = s.cells[:n]
	} else {
		s.cells = make([]Cell, n)
	}
	s.Clear()
}

// Clear resets every cell to an uncolored space.
func (s *Screen) Clear() {
	for i := range s.cells {
		s.cells[i] = blank
	}
}

func (s *Screen) index(x, y int) (int, bool) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return 0, false
	}
	return y*s.width + x, true
}

// SetColor places a colored rune. Out-of-bounds writes are dropped.
func (s *Screen) SetColor(x, y int, r rune, c Color) {
	if i, ok := s.index(x, y); ok {
		s.cells[i] = Cell{Rune: r, Color: c}
	}
}

// GetCell returns the cell at (x, y), or a blank cell when out of bounds.
func (s *Screen) GetCell(x, y int) Cell {
	if i, ok := s.index(x, y); ok {
		return s.cells[i]
	}
	return blank
}

func (s *Screen) Get(x, y int) rune { return s.GetCell(x, y).Rune }

// DrawTextColor writes text from (x, y) to the right, clipped to the screen.
func (s *Screen) DrawTextColor(x, y int, text string, c Color) {
	for _, r := range text {
		s.SetColor(x, y, r, c)
		x++
	}
}

// DrawBox draws the outline of r with box-drawing characters.
func (s *Screen) DrawBox(r Rect, c Color) {
	if r.W < 2 || r.H < 2 {
		return
	}
	right, bottom := r.Right()-1, r.Bottom()-1
	for x := r.X + 1; x < right; x++ {
		s.SetColor(x, r.Y, '─', c)
		s.SetColor(x, bottom, '─', c)
	}
	for y := r.Y + 1; y < bottom; y++ {
		s.SetColor(r.X, y, '│', c)
		s.SetColor(right, y, '│', c)
	}
	s.SetColor(r.X, r.Y, '┌', c)
	s.SetColor(right, r.Y, '┐', c)
	s.SetColor(r.X, bottom, '└', c)
	s.SetColor(right, bottom, '┘', c)
}

// String returns the buffer as plain text, rows joined with newlines.
func (s *Screen) String() string {
	var sb strings.Builder
	sb.Grow(len(s.cells)*2 + s.height)
	for i, cell := range s.cells {
		if i > 0 && i%s.width == 0 {
			sb.WriteByte('\n')
		}
		sb.WriteRune(cell.Rune)
	}
	return sb.String()
}
