// internal/game/errors.go
package game

import "errors"

// Rejection classes for room membership and lifecycle operations. Every one
// of these is a user error: the websocket layer reports it back to the
// offending connection and the room state is left untouched.
var (
	ErrRoomExists       = errors.New("a room with that code already exists")
	ErrRoomNotFound     = errors.New("room not found")
	ErrAlreadyJoined    = errors.New("you already joined this room")
	ErrGameInProgress   = errors.New("the game is already in progress")
	ErrRoomFull         = errors.New("the room is full")
	ErrNotHost          = errors.New("only the host can start the game")
	ErrNotEnoughPlayers = errors.New("at least 2 players are needed to start")
)

// ValidationError covers rejected game actions: bad room config, out-of-turn
// moves, illegal cards, forbidden predictions.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(reason string) error {
	return &ValidationError{Reason: reason}
}
