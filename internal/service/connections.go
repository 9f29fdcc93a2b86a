package service

import (
	"sync"

	"github.com/benbeisheim/arenachess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
)

// client serializes writes to one socket; broadcasts and replies may come
// from different goroutines.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(msg ws.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// GameConnections holds the sockets attached to one game
type GameConnections struct {
	clients map[string]*client // playerID -> client
	mu      sync.RWMutex

	// state broadcasts go out one at a time in version order
	sendMu      sync.Mutex
	sentVersion uint64
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		clients: make(map[string]*client),
	}
}

// add registers conn for playerID. A player already holding a socket keeps
// it and the new one is refused.
func (gc *GameConnections) add(playerID string, conn *websocket.Conn) bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if _, exists := gc.clients[playerID]; exists {
		return false
	}
	gc.clients[playerID] = &client{conn: conn}
	return true
}

// remove drops playerID only while conn is still the registered socket.
func (gc *GameConnections) remove(playerID string, conn *websocket.Conn) bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	c, exists := gc.clients[playerID]
	if !exists || c.conn != conn {
		return false
	}
	delete(gc.clients, playerID)
	return true
}

func (gc *GameConnections) Count() int {
	gc.mu.RLock()
	defer gc.mu.RUnlock()
	return len(gc.clients)
}

func (gc *GameConnections) send(log zerolog.Logger, playerID string, msg ws.Message) {
	gc.mu.RLock()
	c, exists := gc.clients[playerID]
	gc.mu.RUnlock()
	if !exists {
		return
	}
	if err := c.write(msg); err != nil {
		log.Warn().Err(err).Str("player_id", playerID).Msg("failed to send message")
		gc.drop(playerID, c)
	}
}

// broadcast sends the state with the given version to every socket. It
// reports false and sends nothing when a newer state already went out.
func (gc *GameConnections) broadcast(log zerolog.Logger, version uint64, msg ws.Message) bool {
	gc.sendMu.Lock()
	defer gc.sendMu.Unlock()
	if version <= gc.sentVersion {
		return false
	}
	gc.sentVersion = version

	// snapshot so the client map is not locked while writing
	gc.mu.RLock()
	active := make(map[string]*client, len(gc.clients))
	for playerID, c := range gc.clients {
		active[playerID] = c
	}
	gc.mu.RUnlock()

	for playerID, c := range active {
		if err := c.write(msg); err != nil {
			log.Warn().Err(err).Str("player_id", playerID).Msg("failed to send state")
			gc.drop(playerID, c)
		}
	}
	return true
}

// sendState sends a state to a newly attached socket. A state older than the
// last broadcast is skipped, the socket was already registered when the newer
// one went out.
func (gc *GameConnections) sendState(log zerolog.Logger, playerID string, version uint64, msg ws.Message) bool {
	gc.sendMu.Lock()
	defer gc.sendMu.Unlock()
	if version < gc.sentVersion {
		return false
	}
	gc.send(log, playerID, msg)
	return true
}

func (gc *GameConnections) drop(playerID string, c *client) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.clients[playerID] == c {
		delete(gc.clients, playerID)
	}
}
