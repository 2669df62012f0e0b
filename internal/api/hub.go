package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is pushed to every connected client
type Message struct {
	Type     string        `json:"type"`
	Progress *ProgressView `json:"progress,omitempty"`
}

// Hub fans progress updates out to websocket clients
type Hub struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]struct{}
	initial     func() Message
	logger      *zap.Logger
}

// NewHub creates a hub; initial builds the message sent right after connecting
func NewHub(initial func() Message, logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]struct{}),
		initial:     initial,
		logger:      logger,
	}
}

// HandleWebSocket upgrades the request and keeps the connection until the client leaves
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.connections[conn] = struct{}{}
	if h.initial != nil {
		h.writeLocked(conn, h.initial())
	}
	total := len(h.connections)
	h.mu.Unlock()
	h.logger.Debug("WebSocket connected", zap.Int("total", total))

	go func() {
		defer h.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn.Close()
	delete(h.connections, conn)
	h.logger.Debug("WebSocket disconnected", zap.Int("total", len(h.connections)))
}

// writeLocked sends msg to one client; callers hold mu so writes never interleave
func (h *Hub) writeLocked(conn *websocket.Conn, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode message", zap.Error(err))
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Debug("WebSocket write failed", zap.Error(err))
		conn.Close()
		delete(h.connections, conn)
	}
}

// Broadcast sends msg to every client
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		h.writeLocked(conn, msg)
	}
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		conn.Close()
		delete(h.connections, conn)
	}
}
