package core

import (
	"strings"
	"testing"
)

func TestNewScreenIsBlank(t *testing.T) {
	s := NewScreen(4, 2)
	if s.Width() != 4 || s.Height() != 2 {
		t.Fatalf("size = %dx%d, expected 4x2", s.Width(), s.Height())
	}
	if got := s.String(); got != "    \n    " {
		t.Errorf("String() = %q", got)
	}

	neg := NewScreen(-3, 5)
	if neg.Width() != 0 || neg.String() != "" {
		t.Errorf("negative width should give an empty screen, got %q", neg.String())
	}
}

func TestScreenSetColorClips(t *testing.T) {
	s := NewScreen(3, 3)
	s.SetColor(1, 2, '*', ColorCyan)

	if cell := s.GetCell(1, 2); cell.Rune != '*' || cell.Color != ColorCyan {
		t.Errorf("GetCell(1, 2) = %+v, expected cyan *", cell)
	}

	s.SetColor(-1, 0, 'x', ColorGray)
	s.SetColor(3, 0, 'x', ColorGray)
	s.SetColor(0, 3, 'x', ColorGray)
	if strings.ContainsRune(s.String(), 'x') {
		t.Error("out-of-bounds writes should be dropped")
	}
	if s.Get(10, 10) != ' ' {
		t.Error("out-of-bounds reads should be blank")
	}
}

func TestScreenDrawTextColorClips(t *testing.T) {
	s := NewScreen(6, 1)
	s.DrawTextColor(3, 0, "seven", ColorWhite)

	if got := s.String(); got != "   sev" {
		t.Errorf("String() = %q, expected %q", got, "   sev")
	}
	if s.GetCell(3, 0).Color != ColorWhite {
		t.Error("text should carry its color")
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(5, 3)
	s.DrawBox(NewRect(0, 0, 5, 3), ColorMagenta)

	want := "┌───┐\n│   │\n└───┘"
	if got := s.String(); got != want {
		t.Errorf("box:\n%s\nexpected:\n%s", got, want)
	}
	if s.GetCell(4, 2).Color != ColorMagenta {
		t.Error("corner should carry the box color")
	}

	small := NewScreen(2, 2)
	small.DrawBox(NewRect(0, 0, 1, 2), ColorGray)
	if strings.TrimSpace(small.String()) != "" {
		t.Error("a box narrower than 2 cells should draw nothing")
	}
}

func TestScreenResizeClears(t *testing.T) {
	s := NewScreen(2, 2)
	s.SetColor(0, 0, '#', ColorYellow)

	s.Resize(3, 1)
	if got := s.String(); got != "   " {
		t.Errorf("after resize String() = %q", got)
	}

	s.SetColor(2, 0, '#', ColorYellow)
	s.Clear()
	if s.GetCell(2, 0) != (Cell{Rune: ' '}) {
		t.Error("Clear should reset cells")
	}
}
