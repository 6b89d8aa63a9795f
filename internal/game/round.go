// internal/game/round.go
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oh-hell/judgment/internal/deck"
)

// startRound deals a fresh hand to every player and opens the prediction
// phase. The state flips to PREDICTING before anything is broadcast so a
// premature play is rejected cleanly. Assumes the engine mutex is held.
func (e *Engine) startRound(r *Room) {
	r.Epoch++
	r.State = StatePredicting
	r.clearTransientState()

	cards := e.newDeck(r.NumberOfDecks)
	for i, p := range r.Players {
		start := i * r.CardsThisRound
		hand := make([]deck.Card, r.CardsThisRound)
		copy(hand, cards[start:start+r.CardsThisRound])
		r.PlayerHands[p.ConnID] = hand
		r.TricksWon[p.ConnID] = 0
	}
	r.PredictionOrder = rotate(r.playerIDs(), r.TurnIndex)

	trump := r.TrumpSuit()
	e.log.WithFields(logrus.Fields{
		"room":  r.Code,
		"round": r.CurrentRound,
		"cards": r.CardsThisRound,
		"trump": trump,
	}).Info("round started")

	e.broadcast(r, Event{Type: EventRoundStart, Payload: map[string]interface{}{
		"round":          r.CurrentRound,
		"cardsThisRound": r.CardsThisRound,
		"trumpSuit":      trump,
	}})
	for _, p := range r.Players {
		e.sendHand(r, p.ConnID)
	}

	// Give clients a moment to render their hands before prompting.
	e.schedule(e.delays.PredictPrompt, r, StatePredicting, func(room *Room) {
		if len(room.PredictionOrder) == 0 {
			return
		}
		e.broadcast(room, Event{Type: EventRequestPrediction, Payload: predictionPromptPayload(room)})
	})
}

// sendHand unicasts a player's current hand. Assumes the engine mutex is held.
func (e *Engine) sendHand(r *Room, connID uuid.UUID) {
	e.unicast(connID, Event{Type: EventYourCards, Payload: map[string]interface{}{
		"cards": r.PlayerHands[connID],
	}})
}

// predictionPromptPayload names the next predictor and, when only one
// predictor remains, the value they are forbidden to pick. The hint is
// advisory; submission is re-validated.
func predictionPromptPayload(r *Room) map[string]interface{} {
	payload := map[string]interface{}{
		"player":         r.playerName(r.PredictionOrder[0]),
		"cardsThisRound": r.CardsThisRound,
	}
	if v, ok := forbiddenPrediction(r); ok {
		payload["forbidden"] = v
	}
	return payload
}

// forbiddenPrediction computes the disallowed value for the last remaining
// predictor: the one that would make all predictions sum to cardsThisRound.
func forbiddenPrediction(r *Room) (int, bool) {
	if len(r.PredictionOrder) != 1 {
		return 0, false
	}
	v := r.CardsThisRound - sumValues(r.Predictions)
	if v < 0 || v > r.CardsThisRound {
		return 0, false
	}
	return v, true
}

// MakePrediction records a player's predicted trick count for the round.
func (e *Engine) MakePrediction(connID uuid.UUID, code string, prediction int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, exists := e.rooms.Get(code)
	if !exists {
		return ErrRoomNotFound
	}
	if r.State != StatePredicting {
		return validationErrorf("predictions are not being accepted right now")
	}
	if r.memberIndex(connID) < 0 {
		return validationErrorf("you are not in this room")
	}
	if prediction < 0 || prediction > r.CardsThisRound {
		return validationErrorf(fmt.Sprintf("prediction must be between 0 and %d", r.CardsThisRound))
	}
	if len(r.PredictionOrder) == 0 || r.PredictionOrder[0] != connID {
		return validationErrorf("it is not your turn to predict")
	}
	// At least one player must be wrong every round: the last predictor may
	// not bring the prediction total to exactly cardsThisRound.
	if len(r.PredictionOrder) == 1 && prediction+sumValues(r.Predictions) == r.CardsThisRound {
		return validationErrorf(fmt.Sprintf("predictions cannot add up to %d; pick another value", r.CardsThisRound))
	}

	r.Predictions[connID] = prediction
	r.PredictionOrder = r.PredictionOrder[1:]

	e.broadcast(r, Event{Type: EventPredictionMade, Payload: map[string]interface{}{
		"player":     r.playerName(connID),
		"prediction": prediction,
	}})

	if len(r.Predictions) == len(r.Players) {
		predictions := make(map[string]int, len(r.Players))
		for _, p := range r.Players {
			predictions[p.Name] = r.Predictions[p.ConnID]
		}
		e.broadcast(r, Event{Type: EventAllPredictionsMade, Payload: map[string]interface{}{
			"predictions": predictions,
		}})
		e.startPlayPhase(r)
		return nil
	}

	e.broadcast(r, Event{Type: EventNextPlayerPredict, Payload: predictionPromptPayload(r)})
	return nil
}

// startPlayPhase opens the trick cycle with the seat at TurnIndex leading.
// Assumes the engine mutex is held.
func (e *Engine) startPlayPhase(r *Room) {
	r.State = StatePlaying
	r.CurrentPlayOrder = rotate(r.playerIDs(), r.TurnIndex)
	r.NextPlayerIndex = 0
	r.CurrentTrick = nil

	order := make([]string, len(r.CurrentPlayOrder))
	for i, id := range r.CurrentPlayOrder {
		order[i] = r.playerName(id)
	}
	e.broadcast(r, Event{Type: EventPlayPhaseStart, Payload: map[string]interface{}{
		"playOrder": order,
		"trumpSuit": r.TrumpSuit(),
	}})

	e.schedule(e.delays.TurnNotify, r, StatePlaying, func(room *Room) {
		// Only prompt if the leader has not already played.
		if len(room.CurrentTrick) > 0 || room.NextPlayerIndex != 0 || len(room.CurrentPlayOrder) == 0 {
			return
		}
		e.notifyTurn(room, room.CurrentPlayOrder[0])
	})
}

// notifyTurn privately signals a player that it is their turn, including the
// trick so far so the client can render the table. Assumes the engine mutex
// is held.
func (e *Engine) notifyTurn(r *Room, connID uuid.UUID) {
	e.unicast(connID, Event{Type: EventYourTurnToPlay, Payload: map[string]interface{}{
		"trick":     trickPayload(r.CurrentTrick),
		"trumpSuit": r.TrumpSuit(),
	}})
}

func trickPayload(trick []PlayedCard) []map[string]interface{} {
	out := make([]map[string]interface{}, len(trick))
	for i, pc := range trick {
		out[i] = map[string]interface{}{
			"player": pc.PlayerName,
			"card":   pc.Card,
		}
	}
	return out
}

// PlayCard plays the card at cardIndex from the requester's hand into the
// current trick.
func (e *Engine) PlayCard(connID uuid.UUID, code string, cardIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, exists := e.rooms.Get(code)
	if !exists {
		return ErrRoomNotFound
	}
	if r.State != StatePlaying {
		return validationErrorf("cards cannot be played right now")
	}
	if r.memberIndex(connID) < 0 {
		return validationErrorf("you are not in this room")
	}
	if r.NextPlayerIndex >= len(r.CurrentPlayOrder) || r.CurrentPlayOrder[r.NextPlayerIndex] != connID {
		return validationErrorf("it is not your turn to play")
	}
	hand := r.PlayerHands[connID]
	if cardIndex < 0 || cardIndex >= len(hand) {
		return validationErrorf("invalid card")
	}
	card := hand[cardIndex]
	if len(r.CurrentTrick) > 0 {
		lead := r.CurrentTrick[0].Card.Suit
		if card.Suit != lead && handContainsSuit(hand, lead) {
			return validationErrorf(fmt.Sprintf("you must follow suit (%s)", lead))
		}
	}

	r.PlayerHands[connID] = append(hand[:cardIndex], hand[cardIndex+1:]...)
	r.CurrentTrick = append(r.CurrentTrick, PlayedCard{
		ConnID:     connID,
		PlayerName: r.playerName(connID),
		Card:       card,
	})
	r.NextPlayerIndex++

	e.sendHand(r, connID)
	e.broadcast(r, Event{Type: EventCardPlayed, Payload: map[string]interface{}{
		"player": r.playerName(connID),
		"card":   card,
		"trick":  trickPayload(r.CurrentTrick),
	}})

	if len(r.CurrentTrick) == len(r.Players) {
		e.resolveTrick(r)
	} else {
		e.notifyTurn(r, r.CurrentPlayOrder[r.NextPlayerIndex])
	}
	return nil
}

// resolveTrick determines the trick winner, credits them, and either ends
// the round or lines up the next trick with the winner leading. Assumes the
// engine mutex is held.
func (e *Engine) resolveTrick(r *Room) {
	trump := r.TrumpSuit()
	lead := r.CurrentTrick[0].Card.Suit
	winner := r.CurrentTrick[0]
	for _, pc := range r.CurrentTrick[1:] {
		if beats(pc.Card, winner.Card, trump, lead) {
			winner = pc
		}
	}

	r.TricksWon[winner.ConnID]++
	r.CurrentTrick = nil

	e.log.WithFields(logrus.Fields{
		"room":   r.Code,
		"winner": winner.PlayerName,
		"card":   fmt.Sprintf("%s of %s", winner.Card.Rank, winner.Card.Suit),
	}).Info("trick won")

	e.broadcast(r, Event{Type: EventTrickWon, Payload: map[string]interface{}{
		"player": winner.PlayerName,
		"card":   winner.Card,
	}})

	if sumValues(r.TricksWon) == r.CardsThisRound {
		e.schedule(e.delays.TrickDisplay, r, StatePlaying, func(room *Room) {
			e.endRound(room)
		})
		return
	}

	// Winner leads the next trick.
	r.CurrentPlayOrder = rotate(r.playerIDs(), r.memberIndex(winner.ConnID))
	r.NextPlayerIndex = 0
	leader := winner.ConnID
	tricksDone := sumValues(r.TricksWon)
	e.schedule(e.delays.TrickDisplay, r, StatePlaying, func(room *Room) {
		// The tricks-done count pins this callback to its own trick: if the
		// players raced ahead and resolved another trick within the display
		// delay, the leader captured here is no longer the one to prompt.
		if sumValues(room.TricksWon) != tricksDone || len(room.CurrentTrick) > 0 || room.NextPlayerIndex != 0 {
			return
		}
		e.broadcast(room, Event{Type: EventNextTrick, Payload: map[string]interface{}{
			"leader": room.playerName(leader),
		}})
		e.notifyTurn(room, leader)
	})
}

// endRound scores every player, advances the round counters, and either
// schedules the next round or finishes the game. Assumes the engine mutex
// is held.
func (e *Engine) endRound(r *Room) {
	r.State = StateScoring

	results := make([]map[string]interface{}, 0, len(r.Players))
	for _, p := range r.Players {
		predicted := r.Predictions[p.ConnID]
		actual := r.TricksWon[p.ConnID]
		delta := 0
		if predicted == actual {
			delta = 10 + actual*11
		} else {
			delta = -abs(predicted - actual)
		}
		r.Scores[p.ConnID] += delta
		results = append(results, map[string]interface{}{
			"player":     p.Name,
			"prediction": predicted,
			"actual":     actual,
			"delta":      delta,
			"score":      r.Scores[p.ConnID],
		})
	}

	e.broadcast(r, Event{Type: EventRoundEnd, Payload: map[string]interface{}{
		"round":   r.CurrentRound,
		"results": results,
		"scores":  e.scoreboard(r),
	}})

	r.TurnIndex = (r.TurnIndex + 1) % len(r.Players)

	gameOver := false
	if r.Ascending {
		if r.CardsThisRound < r.MaxRoundCards {
			r.CardsThisRound++
		} else {
			r.Ascending = false
			if r.CardsThisRound == r.MinRoundCards {
				gameOver = true
			} else {
				r.CardsThisRound--
			}
		}
	} else {
		if r.CardsThisRound == r.MinRoundCards {
			gameOver = true
		} else {
			r.CardsThisRound--
		}
	}

	if gameOver {
		e.finishGame(r)
		return
	}

	r.CurrentRound++
	e.schedule(e.delays.InterRound, r, StateScoring, func(room *Room) {
		e.startRound(room)
	})
}

// finishGame broadcasts final scores, rewinds the room to a fresh WAITING
// setup, and schedules an automatic new game. Assumes the engine mutex is
// held.
func (e *Engine) finishGame(r *Room) {
	e.log.WithField("room", r.Code).Info("game over")
	e.broadcast(r, Event{Type: EventGameOver, Payload: map[string]interface{}{
		"scores": e.scoreboard(r),
	}})

	r.resetForNewGame()
	r.State = StateWaiting
	r.Epoch++

	e.schedule(e.delays.GameRestart, r, StateWaiting, func(room *Room) {
		if len(room.Players) < 2 {
			return
		}
		room.Scores = make(map[uuid.UUID]int)
		for _, p := range room.Players {
			room.Scores[p.ConnID] = 0
		}
		e.startRound(room)
	})
}

// scoreboard maps player names to cumulative scores. Assumes the engine
// mutex is held.
func (e *Engine) scoreboard(r *Room) map[string]int {
	scores := make(map[string]int, len(r.Players))
	for _, p := range r.Players {
		scores[p.Name] = r.Scores[p.ConnID]
	}
	return scores
}
