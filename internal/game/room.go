// internal/game/room.go
package game

import (
	"github.com/google/uuid"

	"github.com/oh-hell/judgment/internal/deck"
)

// RoomState is the phase of a room's round state machine.
type RoomState string

const (
	StateWaiting    RoomState = "WAITING"
	StatePredicting RoomState = "PREDICTING"
	StatePlaying    RoomState = "PLAYING"
	StateScoring    RoomState = "SCORING"
)

// trumpRotation is the fixed cyclic trump sequence, indexed by
// (currentRound - 1) mod 4.
var trumpRotation = [4]deck.Suit{deck.Spades, deck.Diamonds, deck.Clubs, deck.Hearts}

// Player is one seat in a room. Insertion order is the seating baseline.
type Player struct {
	ConnID uuid.UUID
	Name   string
}

// PlayedCard is one entry of the trick in progress.
type PlayedCard struct {
	ConnID     uuid.UUID
	PlayerName string
	Card       deck.Card
}

// Room holds the entire state for one active game. All access is serialized
// by the engine mutex; the struct itself carries no locking.
type Room struct {
	Code    string
	Players []*Player
	Host    uuid.UUID

	// Immutable config set at creation.
	MaxPlayers    int
	NumberOfDecks int
	MinRoundCards int
	MaxRoundCards int

	CurrentRound   int
	CardsThisRound int
	Ascending      bool
	TurnIndex      int
	State          RoomState

	Predictions     map[uuid.UUID]int
	PredictionOrder []uuid.UUID
	TricksWon       map[uuid.UUID]int
	Scores          map[uuid.UUID]int
	PlayerHands     map[uuid.UUID][]deck.Card

	CurrentTrick     []PlayedCard
	CurrentPlayOrder []uuid.UUID
	NextPlayerIndex  int

	// Epoch increments whenever the room's timeline is restarted (new round
	// or disconnect recovery) so stale deferred transitions can be detected.
	Epoch int
}

// TrumpSuit returns the trump for the current round.
func (r *Room) TrumpSuit() deck.Suit {
	return trumpRotation[(r.CurrentRound-1)%4]
}

// memberIndex returns the seat index of a connection, or -1.
func (r *Room) memberIndex(connID uuid.UUID) int {
	for i, p := range r.Players {
		if p.ConnID == connID {
			return i
		}
	}
	return -1
}

// playerName resolves a connection to its display name, or "" if absent.
func (r *Room) playerName(connID uuid.UUID) string {
	if i := r.memberIndex(connID); i >= 0 {
		return r.Players[i].Name
	}
	return ""
}

// playerIDs returns the connection IDs in seating order.
func (r *Room) playerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ConnID
	}
	return ids
}

// playerNames returns the display names in seating order.
func (r *Room) playerNames() []string {
	names := make([]string, len(r.Players))
	for i, p := range r.Players {
		names[i] = p.Name
	}
	return names
}

// clearTransientState drops everything scoped to the round in progress:
// predictions, tricks, the trick in progress and the play order. Cumulative
// scores and round counters are untouched.
func (r *Room) clearTransientState() {
	r.Predictions = make(map[uuid.UUID]int)
	r.PredictionOrder = nil
	r.TricksWon = make(map[uuid.UUID]int)
	r.PlayerHands = make(map[uuid.UUID][]deck.Card)
	r.CurrentTrick = nil
	r.CurrentPlayOrder = nil
	r.NextPlayerIndex = 0
}

// resetForNewGame rewinds the room to the fresh round-1 setup.
func (r *Room) resetForNewGame() {
	r.CurrentRound = 1
	r.CardsThisRound = r.MinRoundCards
	r.Ascending = true
	r.TurnIndex = 0
	r.clearTransientState()
}

// configPayload is the immutable room config, included in roster updates.
func (r *Room) configPayload() map[string]interface{} {
	return map[string]interface{}{
		"maxPlayers":    r.MaxPlayers,
		"numberOfDecks": r.NumberOfDecks,
		"minRoundCards": r.MinRoundCards,
		"maxRoundCards": r.MaxRoundCards,
	}
}
