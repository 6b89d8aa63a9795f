// internal/handlers/server.go
package handlers

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oh-hell/judgment/internal/game"
)

// clientConn is a single client's presence on the server.
type clientConn struct {
	ID      uuid.UUID
	OutChan chan game.Event
	Cancel  func()
}

// write pushes an event onto the client's outbound channel non-blockingly.
// A full or closed channel drops the event with a warning; the write pump
// owns actual delivery.
func (c *clientConn) write(logger *logrus.Logger, ev game.Event) {
	select {
	case c.OutChan <- ev:
	default:
		logger.Warnf("conn %s: outbound channel full or closed, dropped %s", c.ID, ev.Type)
	}
}

// GameServer wires the room engine to live websocket connections. It owns
// the connection registry; the engine addresses clients purely by their
// connection ID.
type GameServer struct {
	Engine *game.Engine

	log   *logrus.Logger
	mu    sync.Mutex
	conns map[uuid.UUID]*clientConn
}

func NewGameServer(engine *game.Engine, logger *logrus.Logger) *GameServer {
	gs := &GameServer{
		Engine: engine,
		log:    logger,
		conns:  make(map[uuid.UUID]*clientConn),
	}
	engine.SendFn = gs.send
	return gs
}

// send delivers an engine event to one connection, if it is still registered.
// The write is non-blocking, so holding the lock keeps it ordered against
// unregister closing the channel.
func (gs *GameServer) send(connID uuid.UUID, ev game.Event) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	conn, ok := gs.conns[connID]
	if !ok {
		return
	}
	conn.write(gs.log, ev)
}

// register adds a freshly accepted connection to the registry.
func (gs *GameServer) register(conn *clientConn) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.conns[conn.ID] = conn
}

// unregister removes a connection and tears down its outbound channel.
func (gs *GameServer) unregister(connID uuid.UUID) {
	gs.mu.Lock()
	conn, ok := gs.conns[connID]
	delete(gs.conns, connID)
	gs.mu.Unlock()
	if !ok {
		return
	}
	close(conn.OutChan)
	if conn.Cancel != nil {
		conn.Cancel()
	}
}

// PingHandler is a trivial health endpoint.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}
