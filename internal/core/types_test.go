package core

import "testing"

func TestPositionKey(t *testing.T) {
	tests := []struct {
		pos      Position
		grid     int
		expected int
	}{
		{Pos(0, 0), 3, 0},
		{Pos(0, 2), 3, 2},
		{Pos(1, 0), 3, 3},
		{Pos(2, 2), 3, 8},
		{Pos(3, 1), 5, 16},
	}

	for _, tc := range tests {
		if got := tc.pos.Key(tc.grid); got != tc.expected {
			t.Errorf("%v.Key(%d) = %d, expected %d", tc.pos, tc.grid, got, tc.expected)
		}
	}
}

func TestPositionsRowMajor(t *testing.T) {
	positions := Positions(3)
	if len(positions) != 9 {
		t.Fatalf("Positions(3) returned %d entries, expected 9", len(positions))
	}
	for i := 1; i < len(positions); i++ {
		if !positions[i-1].Less(positions[i]) {
			t.Errorf("Positions not row-major at %d: %v before %v", i, positions[i-1], positions[i])
		}
		if positions[i].Key(3) != i {
			t.Errorf("Positions[%d].Key(3) = %d", i, positions[i].Key(3))
		}
	}

	if Positions(0) != nil {
		t.Error("Positions(0) should be nil")
	}
}

func TestPositionInBounds(t *testing.T) {
	tests := []struct {
		pos      Position
		expected bool
	}{
		{Pos(0, 0), true},
		{Pos(2, 2), true},
		{Pos(3, 0), false},
		{Pos(0, -1), false},
	}

	for _, tc := range tests {
		if got := tc.pos.InBounds(3); got != tc.expected {
			t.Errorf("%v.InBounds(3) = %v, expected %v", tc.pos, got, tc.expected)
		}
	}
}

func TestPositionString(t *testing.T) {
	if got := Pos(1, 2).String(); got != "1,2" {
		t.Errorf("String() = %q, expected \"1,2\"", got)
	}
}

func TestParseBetResult(t *testing.T) {
	tests := map[string]BetResult{
		"win":   ResultWin,
		"lost":  ResultLost,
		"":      ResultNone,
		"WIN":   ResultNone,
		"maybe": ResultNone,
	}
	for in, expected := range tests {
		if got := ParseBetResult(in); got != expected {
			t.Errorf("ParseBetResult(%q) = %q, expected %q", in, got, expected)
		}
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("auto") != ModeAuto {
		t.Error("ParseMode(\"auto\") should be auto")
	}
	if ParseMode("garbage") != ModeManual {
		t.Error("unknown modes fall back to manual")
	}
}

func TestActionString(t *testing.T) {
	if ActionReveal.String() != "Reveal" {
		t.Errorf("ActionReveal.String() = %q", ActionReveal.String())
	}
	if Action(999).String() != "Unknown" {
		t.Errorf("Action(999).String() = %q", Action(999).String())
	}
}
