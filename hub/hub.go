package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub keeps the websocket clients of the admin booking feed.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

func New() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]string)}
}

// Register adds a connection with its role.
func (h *Hub) Register(conn *websocket.Conn, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = role
}

// Unregister removes and closes a connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Notify broadcasts a booking event to every connected client.
func (h *Hub) Notify(_ context.Context, event models.BookingEvent) error {
	h.Broadcast(Message{Event: event.Type, Data: event})
	return nil
}

// Broadcast writes msg to all clients and drops the ones that fail.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("Error marshaling message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, role := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Warnf("Error sending %s to %s client: %v", msg.Event, role, err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
	utils.InfoLogger.Debugf("Broadcast %s to %d clients", msg.Event, len(h.clients))
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
