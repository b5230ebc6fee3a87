package presence

import (
	"encoding/json"
	"log"
	"sync"
)

// Conn is the write side of a live socket connection. *websocket.Conn
// satisfies it; tests use an in-memory implementation.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// textMessage mirrors websocket.TextMessage so the hub does not depend
// on the transport package.
const textMessage = 1

// Client represents one connected socket. writeMu serializes writes:
// the transport allows at most one writer per connection, and a client
// can be written to by its own handler and a broadcast at the same time.
type Client struct {
	ID     string
	UserID string
	Conn   Conn

	writeMu sync.Mutex
}

// Send marshals one event frame and writes it to the connection.
func (c *Client) Send(event string, payload any) error {
	data, err := json.Marshal(frame{Event: event, Data: payload})
	if err != nil {
		return err
	}
	return c.write(data)
}

func (c *Client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(textMessage, data)
}

// frame is the wire shape of every server emission.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub groups live connections by user identity so a broadcast addressed
// to a user id reaches all of that user's connections. State is purely a
// function of currently open connections; nothing is persisted.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client         // clientID -> Client
	groups  map[string]map[string]bool // userID -> set of clientIDs
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]bool),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	log.Printf("[presence] Client %s registered for user %s", client.ID, client.UserID)
}

// Unregister removes a connection from the hub and from its group.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	if group, ok := h.groups[client.UserID]; ok {
		delete(group, client.ID)
		if len(group) == 0 {
			delete(h.groups, client.UserID)
		}
	}
	log.Printf("[presence] Client %s unregistered", client.ID)
}

// Join adds the connection to the group keyed by userID. Idempotent:
// joining twice has no duplicate-delivery effect.
func (h *Hub) Join(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[userID] == nil {
		h.groups[userID] = make(map[string]bool)
	}
	h.groups[userID][client.ID] = true
}

// Broadcast delivers an event to every connection currently in the
// user's group. Best effort: a failed write is logged and dropped, no
// acknowledgment, no retry.
func (h *Hub) Broadcast(userID, event string, payload any) {
	data, err := json.Marshal(frame{Event: event, Data: payload})
	if err != nil {
		log.Printf("[presence] Failed to marshal %s broadcast: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientID := range h.groups[userID] {
		client, ok := h.clients[clientID]
		if !ok {
			continue
		}
		if err := client.write(data); err != nil {
			log.Printf("[presence] Failed to send %s to client %s: %v", event, clientID, err)
		}
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GroupSize returns the number of connections in a user's group.
func (h *Hub) GroupSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[userID])
}

// CloseAll closes every connection and clears the hub.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.groups = make(map[string]map[string]bool)
}
