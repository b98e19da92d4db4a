package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/JockeTS/mazerunner/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending events per client and for the hub itself.
	sendBuffer      = 256
	broadcastBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one WebSocket connection subscribed to a game
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	gameID string
}

// Hub fans game events out to the clients subscribed to each game
type Hub struct {
	// Registered clients by game ID
	games map[string]map[*Client]bool
	mu    sync.RWMutex

	broadcast  chan service.GameEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		games:      make(map[string]map[*Client]bool),
		broadcast:  make(chan service.GameEvent, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's event loop and closes every client when ctx ends
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Publish queues an event for the game's subscribers. It never blocks; when
// the hub is saturated the event is dropped.
func (h *Hub) Publish(event service.GameEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Dropping game event, hub is saturated",
			zap.String("gameid", event.GameID),
			zap.String("event", event.Type))
	}
}

// ServeWS upgrades the request and subscribes the connection to gameID
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, gameID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		gameID: gameID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// ClientCount returns the number of clients subscribed to gameID
func (h *Hub) ClientCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.games[client.gameID] == nil {
		h.games[client.gameID] = make(map[*Client]bool)
	}
	h.games[client.gameID][client] = true

	h.logger.Debug("Client registered",
		zap.String("gameid", client.gameID),
		zap.Int("clients", len(h.games[client.gameID])))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked requires h.mu held for writing.
func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.games[client.gameID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.games, client.gameID)
	}

	h.logger.Debug("Client unregistered",
		zap.String("gameid", client.gameID),
		zap.Int("clients", len(clients)))
}

func (h *Hub) broadcastEvent(event service.GameEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal game event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.games[event.GameID] {
		select {
		case client.send <- data:
		default:
			// slow consumer
			h.removeLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.games {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// readPump drains the connection so control frames are processed
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket read error", zap.String("gameid", c.gameID), zap.Error(err))
			}
			return
		}
	}
}

// writePump sends one frame per event and keeps the connection alive
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
