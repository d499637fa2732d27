// Package realtime pushes JSON events to WebSocket clients grouped by user id.
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"blood-donation-backend/internal/metrics"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// Envelope is the frame written to sockets.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub tracks the open sockets of every user. Each user id is a room.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[uint]map[*Client]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewHub(allowedOrigins []string, logger *slog.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return &Hub{
		rooms: make(map[uint]map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
		logger:  logger,
		metrics: m,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.userID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.userID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.WSConnected()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.userID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.userID)
	}
	close(c.send)
	h.mu.Unlock()
	h.metrics.WSDisconnected()
}

// SendToUser writes an event to every socket of the user without blocking.
// It returns the number of sockets that accepted the frame.
func (h *Hub) SendToUser(userID uint, event string, data interface{}) int {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("marshal websocket event", "event", event, "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.rooms[userID] {
		select {
		case c.send <- payload:
			delivered++
		default:
			h.logger.Warn("websocket buffer full, dropping event", "user_id", userID, "event", event)
		}
	}
	return delivered
}

// Connections returns the number of open sockets of a user.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// Serve upgrades the request and blocks until the socket closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := newClient(h, conn, userID)
	h.register(c)
	h.logger.Debug("websocket connected", "user_id", userID)

	go c.writePump()
	c.readPump()
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	var clients []*Client
	for _, room := range h.rooms {
		for c := range room {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregister(c)
	}
}
