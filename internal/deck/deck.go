// internal/deck/deck.go
package deck

import "math/rand"

// Suit identifies one of the four card suits.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lists all suits in a fixed order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Ranks lists all ranks in ascending trick-taking order.
var Ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

var rankValues = map[string]int{
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9,
	"10": 10, "J": 11, "Q": 12, "K": 13, "A": 14,
}

// Card is a single playing card.
type Card struct {
	Rank string `json:"rank"`
	Suit Suit   `json:"suit"`
}

// Value returns the trick ordering of the card's rank: 2-10 numeric,
// J=11, Q=12, K=13, A=14.
func (c Card) Value() int {
	return rankValues[c.Rank]
}

// New returns a freshly shuffled sequence of all cards across numberOfDecks
// standard 52-card decks.
func New(numberOfDecks int) []Card {
	cards := make([]Card, 0, 52*numberOfDecks)
	for d := 0; d < numberOfDecks; d++ {
		for _, suit := range Suits {
			for _, rank := range Ranks {
				cards = append(cards, Card{Rank: rank, Suit: suit})
			}
		}
	}
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}
