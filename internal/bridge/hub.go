// Package bridge exposes the state store to shell windows: a small
// HTTP surface for operations and a websocket feed that streams every
// state change. It plays the role the IPC preload layer plays in the
// packaged desktop app.
package bridge

import (
	"context"
	"sync"

	"foxden/pkg/logger"
)

// Hub maintains the set of connected shell windows and fans state
// events out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	log *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 256),
		log:        log.Named("hub"),
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled,
// closing every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case payload := <-h.broadcast:
			h.send(payload)
		}
	}
}

// Register adds a window connection to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a window connection.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues a payload for every connected window. Drops the
// payload when the hub queue is full; the shell re-reads full state
// on reconnect, so missed events are not fatal.
func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
		h.log.Warnf("event queue full, dropping broadcast")
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
	h.log.Infof("window %s connected", client.ID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.send)
	}
	h.mu.Unlock()
	h.log.Infof("window %s disconnected", client.ID)
}

func (h *Hub) send(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Slow window; skip rather than stall the fan-out.
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
}
