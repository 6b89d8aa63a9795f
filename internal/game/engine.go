// internal/game/engine.go
package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oh-hell/judgment/internal/deck"
)

// Delays are the fixed pauses between phase transitions, injected so tests
// can shrink them.
type Delays struct {
	// PredictPrompt is the settle time between dealing and the first
	// prediction request, so clients can render hands first.
	PredictPrompt time.Duration
	// TurnNotify is the pause before the trick leader is told to play.
	TurnNotify time.Duration
	// TrickDisplay lets clients show a completed trick before it is cleared.
	TrickDisplay time.Duration
	// InterRound is the pause between scoring and the next round's deal.
	InterRound time.Duration
	// GameRestart is the pause before a finished game auto-restarts.
	GameRestart time.Duration
	// DisconnectRestart is the pause before a disrupted round restarts.
	DisconnectRestart time.Duration
}

// DefaultDelays matches the pacing clients are built against.
func DefaultDelays() Delays {
	return Delays{
		PredictPrompt:     1200 * time.Millisecond,
		TurnNotify:        500 * time.Millisecond,
		TrickDisplay:      2 * time.Second,
		InterRound:        3 * time.Second,
		GameRestart:       5 * time.Second,
		DisconnectRestart: 2 * time.Second,
	}
}

// Engine owns all room state and drives the round state machine. Every
// inbound intent and every deferred transition runs under the engine mutex,
// giving one logical timeline across all rooms.
type Engine struct {
	mu     sync.Mutex
	rooms  *RoomStore
	delays Delays
	log    *logrus.Logger

	// newDeck builds the shuffled deal for a round. Overridable in tests.
	newDeck func(numberOfDecks int) []deck.Card

	// SendFn delivers an event to a single connection. Broadcasts iterate
	// the room roster through the same function. If nil, events are dropped.
	SendFn func(connID uuid.UUID, ev Event)
}

func NewEngine(rooms *RoomStore, delays Delays, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		rooms:   rooms,
		delays:  delays,
		log:     logger,
		newDeck: deck.New,
	}
}

// unicast sends an event to one connection. Assumes the engine mutex is held.
func (e *Engine) unicast(connID uuid.UUID, ev Event) {
	if e.SendFn == nil {
		e.log.Warnf("SendFn is nil, dropping %s for %s", ev.Type, connID)
		return
	}
	e.SendFn(connID, ev)
}

// broadcast sends an event to every player in the room. Assumes the engine
// mutex is held.
func (e *Engine) broadcast(r *Room, ev Event) {
	for _, p := range r.Players {
		e.unicast(p.ConnID, ev)
	}
}

// schedule runs fn on the engine timeline after d. Deferred transitions are
// not cancellable, so the callback re-checks that the room still exists, is
// still in the expected state and that its timeline was not restarted in
// the meantime before touching anything.
func (e *Engine) schedule(d time.Duration, r *Room, want RoomState, fn func(r *Room)) {
	code, epoch := r.Code, r.Epoch
	time.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		room, exists := e.rooms.Get(code)
		if !exists || room.State != want || room.Epoch != epoch {
			e.log.Debugf("room %s: stale deferred transition (exists=%v, want=%s)", code, exists, want)
			return
		}
		fn(room)
	})
}

// CreateRoom validates the config and opens a new WAITING room with the
// creator as sole player and host.
func (e *Engine) CreateRoom(connID uuid.UUID, code, hostName string, maxPlayers, numberOfDecks, maxRoundCards, minRoundCards int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case numberOfDecks < 1:
		return validationErrorf("number of decks must be at least 1")
	case minRoundCards < 1:
		return validationErrorf("minimum round cards must be at least 1")
	case maxRoundCards < 1:
		return validationErrorf("maximum round cards must be at least 1")
	case minRoundCards > maxRoundCards:
		return validationErrorf("minimum round cards cannot exceed maximum round cards")
	case maxPlayers < 2:
		return validationErrorf("a room needs at least 2 players")
	case maxRoundCards*maxPlayers > 52*numberOfDecks:
		return validationErrorf(fmt.Sprintf("%d decks cannot deal %d cards to %d players", numberOfDecks, maxRoundCards, maxPlayers))
	}

	if _, exists := e.rooms.Get(code); exists {
		return ErrRoomExists
	}

	r := &Room{
		Code:          code,
		Players:       []*Player{{ConnID: connID, Name: hostName}},
		Host:          connID,
		MaxPlayers:    maxPlayers,
		NumberOfDecks: numberOfDecks,
		MinRoundCards: minRoundCards,
		MaxRoundCards: maxRoundCards,
		State:         StateWaiting,
		Scores:        make(map[uuid.UUID]int),
	}
	r.resetForNewGame()
	e.rooms.Add(r)

	e.log.WithFields(logrus.Fields{
		"room":    code,
		"host":    hostName,
		"players": maxPlayers,
		"decks":   numberOfDecks,
	}).Info("room created")

	e.unicast(connID, Event{Type: EventRoomCreated, Payload: map[string]interface{}{
		"roomCode": code,
		"config":   r.configPayload(),
	}})
	e.broadcastRoster(r)
	return nil
}

// JoinRoom appends a player to a WAITING room.
func (e *Engine) JoinRoom(connID uuid.UUID, code, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, exists := e.rooms.Get(code)
	if !exists {
		return ErrRoomNotFound
	}
	if r.memberIndex(connID) >= 0 {
		return ErrAlreadyJoined
	}
	if r.State != StateWaiting {
		return ErrGameInProgress
	}
	if len(r.Players) >= r.MaxPlayers {
		return ErrRoomFull
	}

	r.Players = append(r.Players, &Player{ConnID: connID, Name: name})
	e.log.WithFields(logrus.Fields{"room": code, "player": name}).Info("player joined")

	e.unicast(connID, Event{Type: EventJoinedRoom, Payload: map[string]interface{}{
		"roomCode": code,
		"config":   r.configPayload(),
	}})
	e.broadcastRoster(r)
	return nil
}

// StartGame begins round 1. Only the host may start, and only from WAITING.
func (e *Engine) StartGame(connID uuid.UUID, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, exists := e.rooms.Get(code)
	if !exists {
		return ErrRoomNotFound
	}
	if r.Host != connID {
		return ErrNotHost
	}
	if r.State != StateWaiting {
		return ErrGameInProgress
	}
	if len(r.Players) < 2 {
		return ErrNotEnoughPlayers
	}

	r.resetForNewGame()
	r.Scores = make(map[uuid.UUID]int)
	for _, p := range r.Players {
		r.Scores[p.ConnID] = 0
	}

	e.log.WithFields(logrus.Fields{"room": code, "players": len(r.Players)}).Info("game started")
	e.startRound(r)
	return nil
}

// Disconnect handles a connection drop: the player is removed from any room
// it belongs to and the affected games are restructured or ended.
func (e *Engine) Disconnect(connID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, r := range e.rooms.Rooms() {
		idx := r.memberIndex(connID)
		if idx < 0 {
			continue
		}
		name := r.Players[idx].Name
		r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
		e.log.WithFields(logrus.Fields{"room": r.Code, "player": name}).Info("player disconnected")

		if len(r.Players) == 0 {
			e.rooms.Delete(r.Code)
			e.log.WithField("room", r.Code).Info("room deleted, no players left")
			continue
		}

		// The first remaining seat inherits host so the room stays usable.
		if r.Host == connID {
			r.Host = r.Players[0].ConnID
		}

		e.broadcastRoster(r)

		if r.State == StateWaiting {
			continue
		}

		if len(r.Players) >= 2 {
			e.restartDisruptedRound(r, connID, name, idx)
		} else {
			e.broadcast(r, Event{Type: EventGameEnded, Payload: map[string]interface{}{
				"message": fmt.Sprintf("%s left and too few players remain; the game has ended", name),
			}})
			r.State = StateWaiting
			r.Epoch++
			r.resetForNewGame()
			r.Scores = make(map[uuid.UUID]int)
		}
	}
}

// restartDisruptedRound purges the departed player from all per-round state
// and restarts the current round with the remaining players. Cumulative
// scores and round counters are preserved. The round is restarted with a
// fresh deal: the old hands no longer match the player count, so a bare
// state flip back to PREDICTING would leave the deal inconsistent.
func (e *Engine) restartDisruptedRound(r *Room, departed uuid.UUID, name string, seat int) {
	delete(r.Scores, departed)
	delete(r.Predictions, departed)
	delete(r.TricksWon, departed)
	delete(r.PlayerHands, departed)
	for i, id := range r.CurrentPlayOrder {
		if id == departed {
			r.CurrentPlayOrder = append(r.CurrentPlayOrder[:i], r.CurrentPlayOrder[i+1:]...)
			if r.NextPlayerIndex > i {
				r.NextPlayerIndex--
			}
			break
		}
	}
	if r.NextPlayerIndex >= len(r.CurrentPlayOrder) {
		r.NextPlayerIndex = 0
	}
	// Seats after the departed one shifted down; keep the lead on the same
	// remaining player.
	if seat < r.TurnIndex {
		r.TurnIndex--
	}
	r.TurnIndex %= len(r.Players)

	e.broadcast(r, Event{Type: EventErrorMessage, Payload: map[string]interface{}{
		"message": fmt.Sprintf("%s left the game; restarting round %d", name, r.CurrentRound),
	}})

	r.clearTransientState()
	r.State = StatePredicting
	r.Epoch++
	e.schedule(e.delays.DisconnectRestart, r, StatePredicting, func(room *Room) {
		if len(room.Players) < 2 {
			return
		}
		e.startRound(room)
	})
}

// broadcastRoster sends the current roster and config to the whole room.
// Assumes the engine mutex is held.
func (e *Engine) broadcastRoster(r *Room) {
	e.broadcast(r, Event{Type: EventPlayerList, Payload: map[string]interface{}{
		"players": r.playerNames(),
		"host":    r.playerName(r.Host),
		"config":  r.configPayload(),
	}})
}
