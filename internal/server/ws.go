package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/app"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ProgressHub broadcasts job progress events to websocket subscribers.
type ProgressHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewProgressHub creates an empty ProgressHub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *ProgressHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast sends a progress event to all connected clients. It satisfies
// the runner's publisher callback. The exclusive lock keeps concurrent
// broadcasts from interleaving writes on one connection; gorilla/websocket
// allows at most one writer per conn.
func (h *ProgressHub) Broadcast(ev app.ProgressEvent) {
	msg, err := json.Marshal(map[string]any{
		"job_id":    ev.JobID,
		"status":    ev.Status,
		"percent":   ev.Percent,
		"message":   ev.Message,
		"timestamp": time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.WriteMessage(websocket.TextMessage, msg)
	}
}

// NumClients reports the number of connected subscribers.
func (h *ProgressHub) NumClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
