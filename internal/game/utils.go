// internal/game/utils.go
package game

import (
	"github.com/google/uuid"

	"github.com/oh-hell/judgment/internal/deck"
)

// rotate returns ids reordered to begin at start, wrapping around. start is
// taken modulo len(ids), so a stale seat index is still safe after players
// leave. Used uniformly for prediction order, play order and next-trick
// order.
func rotate(ids []uuid.UUID, start int) []uuid.UUID {
	n := len(ids)
	if n == 0 {
		return nil
	}
	start = ((start % n) + n) % n
	out := make([]uuid.UUID, 0, n)
	out = append(out, ids[start:]...)
	out = append(out, ids[:start]...)
	return out
}

// handContainsSuit reports whether any card in hand matches the suit.
func handContainsSuit(hand []deck.Card, suit deck.Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

// beats reports whether candidate beats the current best card of a trick.
// best is always either trump or the lead suit. Equal ranks resolve in favor
// of the candidate, so the later-played card wins ties.
func beats(candidate, best deck.Card, trump, lead deck.Suit) bool {
	candidateTrump := candidate.Suit == trump
	bestTrump := best.Suit == trump

	switch {
	case candidateTrump && !bestTrump:
		return true
	case candidateTrump && bestTrump:
		return candidate.Value() >= best.Value()
	case bestTrump:
		return false
	case candidate.Suit != lead:
		return false
	case best.Suit != lead:
		return true
	default:
		return candidate.Value() >= best.Value()
	}
}

// sumValues totals an id-keyed counter map.
func sumValues(m map[uuid.UUID]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
