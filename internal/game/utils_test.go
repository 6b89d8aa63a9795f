package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/oh-hell/judgment/internal/deck"
)

func TestRotate(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	ids := []uuid.UUID{a, b, c}

	assert.Equal(t, []uuid.UUID{a, b, c}, rotate(ids, 0))
	assert.Equal(t, []uuid.UUID{b, c, a}, rotate(ids, 1))
	assert.Equal(t, []uuid.UUID{c, a, b}, rotate(ids, 2))
	assert.Equal(t, []uuid.UUID{a, b, c}, rotate(ids, 3), "start wraps around")
	assert.Equal(t, []uuid.UUID{b, c, a}, rotate(ids, 4))
	assert.Nil(t, rotate(nil, 2))
}

func TestBeats(t *testing.T) {
	trump := deck.Spades
	lead := deck.Hearts

	tests := []struct {
		name      string
		candidate deck.Card
		best      deck.Card
		want      bool
	}{
		{
			name:      "trump beats non-trump regardless of rank",
			candidate: deck.Card{Rank: "2", Suit: deck.Spades},
			best:      deck.Card{Rank: "A", Suit: deck.Hearts},
			want:      true,
		},
		{
			name:      "higher trump beats lower trump",
			candidate: deck.Card{Rank: "K", Suit: deck.Spades},
			best:      deck.Card{Rank: "Q", Suit: deck.Spades},
			want:      true,
		},
		{
			name:      "lower trump loses to higher trump",
			candidate: deck.Card{Rank: "3", Suit: deck.Spades},
			best:      deck.Card{Rank: "4", Suit: deck.Spades},
			want:      false,
		},
		{
			name:      "equal trump ranks favor the later play",
			candidate: deck.Card{Rank: "9", Suit: deck.Spades},
			best:      deck.Card{Rank: "9", Suit: deck.Spades},
			want:      true,
		},
		{
			name:      "non-trump never beats trump",
			candidate: deck.Card{Rank: "A", Suit: deck.Hearts},
			best:      deck.Card{Rank: "2", Suit: deck.Spades},
			want:      false,
		},
		{
			name:      "higher lead suit beats lower lead suit",
			candidate: deck.Card{Rank: "10", Suit: deck.Hearts},
			best:      deck.Card{Rank: "7", Suit: deck.Hearts},
			want:      true,
		},
		{
			name:      "equal lead suit ranks favor the later play",
			candidate: deck.Card{Rank: "J", Suit: deck.Hearts},
			best:      deck.Card{Rank: "J", Suit: deck.Hearts},
			want:      true,
		},
		{
			name:      "off-suit never wins regardless of rank",
			candidate: deck.Card{Rank: "A", Suit: deck.Clubs},
			best:      deck.Card{Rank: "2", Suit: deck.Hearts},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, beats(tt.candidate, tt.best, trump, lead))
		})
	}
}

func TestHandContainsSuit(t *testing.T) {
	hand := []deck.Card{
		{Rank: "2", Suit: deck.Hearts},
		{Rank: "K", Suit: deck.Clubs},
	}
	assert.True(t, handContainsSuit(hand, deck.Hearts))
	assert.False(t, handContainsSuit(hand, deck.Diamonds))
}
