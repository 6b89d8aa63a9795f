// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oh-hell/judgment/internal/game"
	"github.com/oh-hell/judgment/internal/middleware"
)

// inboundMessage is the wire shape of every client intent. Type selects the
// operation; the remaining fields are read per type.
type inboundMessage struct {
	Type     string `json:"type"`
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`

	// createRoom config
	MaxPlayers    int `json:"maxPlayers"`
	NumberOfDecks int `json:"numberOfDecks"`
	MinRoundCards int `json:"minRoundCards"`
	MaxRoundCards int `json:"maxRoundCards"`

	// Pointers so an omitted field is distinguishable from zero.
	Prediction *int `json:"prediction"`
	CardIndex  *int `json:"cardIndex"`
}

// WSHandler accepts game websocket connections, runs the write pump and the
// read loop, and dispatches intents into the engine. Each connection gets a
// fresh uuid as its identity for the lifetime of the socket.
func WSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"judgment"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "judgment" {
			c.Close(BadSubprotocolError, "client must speak the judgment subprotocol")
			return
		}

		connID := uuid.New()
		ctx, cancel := context.WithCancel(r.Context())
		conn := &clientConn{
			ID:      connID,
			OutChan: make(chan game.Event, 16),
			Cancel:  cancel,
		}
		gs.register(conn)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, connID.String())

		go writePump(ctx, c, conn, logger)

		readErr := readPump(ctx, c, gs, conn, logger)

		gs.unregister(connID)
		gs.Engine.Disconnect(connID)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, connID.String(), readErr)
	}
}

// readPump decodes inbound intents until the connection closes, dispatching
// each into the engine. Engine rejections come back as errorMessage events
// to this connection only.
func readPump(ctx context.Context, c *websocket.Conn, gs *GameServer, conn *clientConn, logger *logrus.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		_, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			if strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("conn %s: malformed message: %v", conn.ID, err)
			conn.write(logger, errorEvent("malformed message"))
			continue
		}

		if err := dispatch(gs, conn.ID, msg); err != nil {
			conn.write(logger, errorEvent(err.Error()))
		}
	}
}

// dispatch routes one decoded intent into the engine.
func dispatch(gs *GameServer, connID uuid.UUID, msg inboundMessage) error {
	switch msg.Type {
	case "createRoom":
		return gs.Engine.CreateRoom(connID, msg.RoomCode, msg.Name,
			msg.MaxPlayers, msg.NumberOfDecks, msg.MaxRoundCards, msg.MinRoundCards)
	case "joinRoom":
		return gs.Engine.JoinRoom(connID, msg.RoomCode, msg.Name)
	case "startGame":
		return gs.Engine.StartGame(connID, msg.RoomCode)
	case "makePrediction":
		if msg.Prediction == nil {
			return &game.ValidationError{Reason: "missing prediction"}
		}
		return gs.Engine.MakePrediction(connID, msg.RoomCode, *msg.Prediction)
	case "playCard":
		if msg.CardIndex == nil {
			return &game.ValidationError{Reason: "missing card index"}
		}
		return gs.Engine.PlayCard(connID, msg.RoomCode, *msg.CardIndex)
	default:
		return &game.ValidationError{Reason: "unknown message type"}
	}
}

func errorEvent(message string) game.Event {
	return game.Event{
		Type:    game.EventErrorMessage,
		Payload: map[string]interface{}{"message": message},
	}
}

// writePump serializes outbound events onto the socket and pings
// periodically to detect dead peers.
func writePump(ctx context.Context, c *websocket.Conn, conn *clientConn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer c.Close(websocket.StatusGoingAway, "write pump stopping")

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("conn %s: failed to marshal %s: %v", conn.ID, ev.Type, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("conn %s: write failed: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("conn %s: ping failed, assuming disconnect: %v", conn.ID, err)
				return
			}
		}
	}
}
