package game

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSender collects events instead of sending them over a websocket.
type mockSender struct {
	mu     sync.Mutex
	events map[uuid.UUID][]Event
}

func newMockSender() *mockSender {
	return &mockSender{events: make(map[uuid.UUID][]Event)}
}

func (m *mockSender) send(connID uuid.UUID, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[connID] = append(m.events[connID], ev)
}

func (m *mockSender) ofType(connID uuid.UUID, t EventType) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, ev := range m.events[connID] {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (m *mockSender) lastOfType(connID uuid.UUID, t EventType) *Event {
	evs := m.ofType(connID, t)
	if len(evs) == 0 {
		return nil
	}
	return &evs[len(evs)-1]
}

func (m *mockSender) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[uuid.UUID][]Event)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// fastDelays keeps deferred transitions short enough to await in tests.
func fastDelays() Delays {
	return Delays{
		PredictPrompt:     5 * time.Millisecond,
		TurnNotify:        5 * time.Millisecond,
		TrickDisplay:      5 * time.Millisecond,
		InterRound:        5 * time.Millisecond,
		GameRestart:       time.Hour,
		DisconnectRestart: 5 * time.Millisecond,
	}
}

// holdDelays pins every deferred transition so tests can drive the state
// machine by hand.
func holdDelays() Delays {
	return Delays{
		PredictPrompt:     time.Hour,
		TurnNotify:        time.Hour,
		TrickDisplay:      time.Hour,
		InterRound:        time.Hour,
		GameRestart:       time.Hour,
		DisconnectRestart: time.Hour,
	}
}

// snapshot runs fn on the engine timeline, for race-free reads while
// deferred transitions may be pending.
func (e *Engine) snapshot(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

func newTestEngine(d Delays) (*Engine, *mockSender) {
	ms := newMockSender()
	e := NewEngine(NewRoomStore(), d, testLogger())
	e.SendFn = ms.send
	return e, ms
}

// setupRoom creates a room with n joined players named player1..playerN.
func setupRoom(t *testing.T, e *Engine, code string, n, minCards, maxCards int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, n)
	ids[0] = uuid.New()
	require.NoError(t, e.CreateRoom(ids[0], code, "player1", 4, 1, maxCards, minCards))
	for i := 1; i < n; i++ {
		ids[i] = uuid.New()
		require.NoError(t, e.JoinRoom(ids[i], code, fmt.Sprintf("player%d", i+1)))
	}
	return ids
}

func TestCreateRoomValidation(t *testing.T) {
	e, _ := newTestEngine(holdDelays())
	connID := uuid.New()

	tests := []struct {
		name                                  string
		maxPlayers, decks, maxCards, minCards int
	}{
		{"decks below 1", 4, 0, 5, 1},
		{"min cards below 1", 4, 1, 5, 0},
		{"max cards below 1", 4, 1, 0, 0},
		{"min above max", 4, 1, 3, 5},
		{"max players below 2", 1, 1, 5, 1},
		{"deck too small for config", 4, 1, 14, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.CreateRoom(connID, "bad", "host", tt.maxPlayers, tt.decks, tt.maxCards, tt.minCards)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}

	require.NoError(t, e.CreateRoom(connID, "taken", "host", 4, 1, 5, 1))
	assert.ErrorIs(t, e.CreateRoom(uuid.New(), "taken", "other", 4, 1, 5, 1), ErrRoomExists)
}

func TestJoinRoom(t *testing.T) {
	e, ms := newTestEngine(holdDelays())
	host := uuid.New()
	require.NoError(t, e.CreateRoom(host, "room", "host", 2, 1, 5, 1))

	assert.ErrorIs(t, e.JoinRoom(uuid.New(), "nope", "x"), ErrRoomNotFound)

	guest := uuid.New()
	require.NoError(t, e.JoinRoom(guest, "room", "guest"))

	ev := ms.lastOfType(host, EventPlayerList)
	require.NotNil(t, ev)
	assert.Equal(t, []string{"host", "guest"}, ev.Payload["players"])

	assert.ErrorIs(t, e.JoinRoom(uuid.New(), "room", "late"), ErrRoomFull)
}

func TestJoinRoomIdempotentRejection(t *testing.T) {
	e, _ := newTestEngine(holdDelays())
	ids := setupRoom(t, e, "room", 2, 1, 5)
	r, _ := e.rooms.Get("room")

	// Repeated joins by a member always fail the same way and never
	// duplicate the roster entry, in WAITING and mid-game alike.
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, e.JoinRoom(ids[1], "room", "player2"), ErrAlreadyJoined)
	}
	assert.Len(t, r.Players, 2)

	require.NoError(t, e.StartGame(ids[0], "room"))
	assert.ErrorIs(t, e.JoinRoom(ids[1], "room", "player2"), ErrAlreadyJoined)
	assert.ErrorIs(t, e.JoinRoom(uuid.New(), "room", "spectator"), ErrGameInProgress)
	assert.Len(t, r.Players, 2)
}

func TestStartGame(t *testing.T) {
	e, ms := newTestEngine(holdDelays())
	ids := setupRoom(t, e, "room", 2, 1, 5)

	assert.ErrorIs(t, e.StartGame(ids[0], "nope"), ErrRoomNotFound)
	assert.ErrorIs(t, e.StartGame(ids[1], "room"), ErrNotHost)

	solo := uuid.New()
	require.NoError(t, e.CreateRoom(solo, "solo", "loner", 4, 1, 5, 1))
	assert.ErrorIs(t, e.StartGame(solo, "solo"), ErrNotEnoughPlayers)

	require.NoError(t, e.StartGame(ids[0], "room"))
	r, _ := e.rooms.Get("room")
	assert.Equal(t, StatePredicting, r.State)
	assert.Equal(t, 1, r.CurrentRound)
	for _, id := range ids {
		assert.Equal(t, 0, r.Scores[id])
		assert.Len(t, r.PlayerHands[id], r.CardsThisRound)
		require.NotNil(t, ms.lastOfType(id, EventYourCards))
	}
	require.NotNil(t, ms.lastOfType(ids[0], EventRoundStart))

	assert.ErrorIs(t, e.StartGame(ids[0], "room"), ErrGameInProgress)
}

func TestDisconnectMidPlayingPreservesScores(t *testing.T) {
	e, ms := newTestEngine(fastDelays())
	ids := setupRoom(t, e, "room", 3, 1, 5)
	a, b, c := ids[0], ids[1], ids[2]
	require.NoError(t, e.StartGame(a, "room"))
	r, _ := e.rooms.Get("room")

	// Round 1, one card each: after 0,0 the last predictor may not bring
	// the total to 1, so player3 also predicts 0.
	require.NoError(t, e.MakePrediction(a, "room", 0))
	require.NoError(t, e.MakePrediction(b, "room", 0))
	require.NoError(t, e.MakePrediction(c, "room", 0))

	var round, cards int
	e.snapshot(func() {
		require.Equal(t, StatePlaying, r.State)
		r.Scores[a], r.Scores[b], r.Scores[c] = 10, 20, 30
		round = r.CurrentRound
		cards = r.CardsThisRound
	})
	ms.clear()

	e.Disconnect(c)

	e.snapshot(func() {
		assert.Len(t, r.Players, 2)
		assert.Equal(t, map[uuid.UUID]int{a: 10, b: 20}, r.Scores)
		assert.NotContains(t, r.Predictions, c)
		assert.NotContains(t, r.TricksWon, c)
		assert.NotContains(t, r.PlayerHands, c)
		assert.Equal(t, StatePredicting, r.State)
		assert.Equal(t, round, r.CurrentRound)
		assert.Equal(t, cards, r.CardsThisRound)
	})
	require.NotNil(t, ms.lastOfType(a, EventErrorMessage), "room should hear a disruption notice")

	// The same round restarts with a fresh two-player deal.
	time.Sleep(50 * time.Millisecond)
	e.snapshot(func() {
		assert.Equal(t, StatePredicting, r.State)
		assert.Equal(t, round, r.CurrentRound)
		assert.Len(t, r.PlayerHands, 2)
		assert.Len(t, r.PredictionOrder, 2)
		assert.Equal(t, map[uuid.UUID]int{a: 10, b: 20}, r.Scores, "cumulative scores survive the restart")
	})
}

func TestDisconnectBelowTwoPlayersEndsGame(t *testing.T) {
	e, ms := newTestEngine(holdDelays())
	ids := setupRoom(t, e, "room", 2, 1, 5)
	require.NoError(t, e.StartGame(ids[0], "room"))
	r, _ := e.rooms.Get("room")

	e.Disconnect(ids[1])

	assert.Equal(t, StateWaiting, r.State)
	assert.Len(t, r.Players, 1)
	require.NotNil(t, ms.lastOfType(ids[0], EventGameEnded))
}

func TestDisconnectDeletesEmptyRoom(t *testing.T) {
	e, _ := newTestEngine(holdDelays())
	ids := setupRoom(t, e, "room", 2, 1, 5)

	e.Disconnect(ids[0])
	e.Disconnect(ids[1])

	assert.Equal(t, 0, e.rooms.Len())
}

func TestHostHandoffOnDisconnect(t *testing.T) {
	e, _ := newTestEngine(holdDelays())
	ids := setupRoom(t, e, "room", 3, 1, 5)
	r, _ := e.rooms.Get("room")

	e.Disconnect(ids[0])
	assert.Equal(t, ids[1], r.Host)
	require.NoError(t, e.StartGame(ids[1], "room"), "new host can start the game")
}

func TestDisconnectKeepsLeadSeat(t *testing.T) {
	e, _ := newTestEngine(holdDelays())
	ids := setupRoom(t, e, "room", 4, 1, 5)
	a, b, d := ids[0], ids[1], ids[3]
	require.NoError(t, e.StartGame(a, "room"))
	r, _ := e.rooms.Get("room")

	e.endRound(r)
	require.Equal(t, 1, r.TurnIndex, "player2 leads round 2")

	// A departure from an earlier seat shifts everyone down one; the lead
	// stays with the same player.
	e.Disconnect(a)
	assert.Equal(t, b, r.Players[r.TurnIndex].ConnID)

	// A departure from a later seat leaves the lead untouched.
	e.Disconnect(d)
	assert.Equal(t, b, r.Players[r.TurnIndex].ConnID)

	// The leader itself departing from the last seat wraps back to the
	// first remaining one.
	ids2 := setupRoom(t, e, "wrap", 3, 1, 5)
	require.NoError(t, e.StartGame(ids2[0], "wrap"))
	r2, _ := e.rooms.Get("wrap")
	e.endRound(r2)
	e.endRound(r2)
	require.Equal(t, 2, r2.TurnIndex)

	e.Disconnect(ids2[2])
	assert.Equal(t, ids2[0], r2.Players[r2.TurnIndex].ConnID)
}

func TestStaleDeferredTransitionIsDropped(t *testing.T) {
	e, _ := newTestEngine(fastDelays())
	ids := setupRoom(t, e, "room", 2, 1, 5)
	require.NoError(t, e.StartGame(ids[0], "room"))

	// Empty the room before the prediction prompt fires. The deferred
	// callback must notice the room is gone and do nothing.
	e.Disconnect(ids[0])
	e.Disconnect(ids[1])
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, e.rooms.Len())
}
