package scratch

import (
	"math/rand"

	"github.com/vovakirdan/tui-scratch/internal/core"
)

// MatchThreshold is the number of equal cards that makes a win.
const MatchThreshold = 3

const (
	primaryCap = 3 // occurrences of the winning type on a winning card
	otherCap   = 2 // occurrences of any other type
)

// Round is a generated card: where everything goes and what wins.
type Round struct {
	Entries           []Entry // placement order
	Assignment        Assignment
	WinningKey        core.ContentKey
	TotalWinningCards int
}

// Generate builds the assignment for a round with the given outcome.
//
// A winning card places the winning type on the first MatchThreshold shuffled
// positions, then fills the rest from types still under their cap (3 for the
// winning type, 2 for others). A losing card caps every type at 2 so no type
// reaches three of a kind. When every type is capped the full catalog is used.
func Generate(rng *rand.Rand, result core.BetResult, catalog []core.ContentKey, gridSize int) Round {
	types := uniqueTypes(catalog)
	positions := core.Positions(gridSize)
	rng.Shuffle(len(positions), func(i, j int) {
		positions[i], positions[j] = positions[j], positions[i]
	})

	round := Round{
		Entries:    make([]Entry, 0, len(positions)),
		Assignment: make(Assignment, len(positions)),
	}
	counts := make(map[core.ContentKey]int, len(types))
	place := func(p core.Position, k core.ContentKey) {
		counts[k]++
		round.Entries = append(round.Entries, Entry{Pos: p, Content: k})
		round.Assignment[p] = k
	}

	var primary core.ContentKey
	hasPrimary := false
	if result == core.ResultWin {
		shuffled := append([]core.ContentKey(nil), types...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		primary = shuffled[0]
		hasPrimary = true
		round.WinningKey = primary

		slots := min(MatchThreshold, len(positions))
		for _, p := range positions[:slots] {
			place(p, primary)
		}
		positions = positions[slots:]
	}

	for _, p := range positions {
		pool := make([]core.ContentKey, 0, len(types))
		for _, k := range types {
			limit := otherCap
			if hasPrimary && k == primary {
				limit = primaryCap
			}
			if counts[k] < limit {
				pool = append(pool, k)
			}
		}
		if len(pool) == 0 {
			pool = types
		}
		place(p, pool[rng.Intn(len(pool))])
	}

	if hasPrimary && !primary.IsNone() {
		round.TotalWinningCards = round.Assignment.Count(primary)
	}
	return round
}

// uniqueTypes dedupes the catalog, keeping first occurrences. An empty
// catalog yields the single "no content" type.
func uniqueTypes(catalog []core.ContentKey) []core.ContentKey {
	seen := make(map[core.ContentKey]bool, len(catalog))
	out := make([]core.ContentKey, 0, len(catalog))
	for _, k := range catalog {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	if len(out) == 0 {
		out = append(out, core.NoContent)
	}
	return out
}
