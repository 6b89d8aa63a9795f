// internal/game/events.go
package game

// EventType is an enum-like type for the events the engine emits to clients.
type EventType string

const (
	EventRoomCreated        EventType = "roomCreated"
	EventPlayerList         EventType = "playerList"
	EventJoinedRoom         EventType = "joinedRoom"
	EventErrorMessage       EventType = "errorMessage"
	EventRoundStart         EventType = "roundStart"
	EventYourCards          EventType = "yourCards" // unicast
	EventRequestPrediction  EventType = "requestPrediction"
	EventNextPlayerPredict  EventType = "nextPlayerPredict"
	EventPredictionMade     EventType = "predictionMade"
	EventAllPredictionsMade EventType = "allPredictionsMade"
	EventPlayPhaseStart     EventType = "playPhaseStart"
	EventYourTurnToPlay     EventType = "yourTurnToPlay" // unicast
	EventCardPlayed         EventType = "cardPlayed"
	EventTrickWon           EventType = "trickWon"
	EventNextTrick          EventType = "nextTrick"
	EventRoundEnd           EventType = "roundEnd"
	EventGameOver           EventType = "gameOver"
	EventGameEnded          EventType = "gameEnded"
)

// Event is the outbound wire envelope. Payload keys are per event type and
// consumed directly by the rendering layer.
type Event struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}
