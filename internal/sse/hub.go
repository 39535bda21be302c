package sse

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/mkrencik/droppit/internal/store"
)

// Event is one frame pushed to stream clients. For store changes Type is
// the change kind and Data is the marshaled change; for admin feed events
// Type is the bus event type.
type Event struct {
	ID   string
	Type string
	Node string
	Data json.RawMessage
}

// Client represents a connected stream client, watching a single node.
type Client struct {
	ID           string
	Node         string
	EventChannel chan Event
}

// Hub manages stream client connections and change broadcasting
type Hub struct {
	clients    map[string]*Client
	broadcast  chan Event
	register   chan *Client
	unregister chan string
	mu         sync.RWMutex
	shutdown   chan struct{}
	wg         sync.WaitGroup
}

// NewHub creates a new stream Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan Event, BroadcastBufferSize),
		register:   make(chan *Client, ClientChannelBuffer),
		unregister: make(chan string, ClientChannelBuffer),
		shutdown:   make(chan struct{}),
	}
}

// Start starts the hub's broadcast loop
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.run()
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	close(h.shutdown)
	h.wg.Wait()

	h.mu.Lock()
	for _, client := range h.clients {
		close(client.EventChannel)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()
}

// run is the main broadcast loop
func (h *Hub) run() {
	defer h.wg.Done()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[clientID]; ok {
				close(client.EventChannel)
				delete(h.clients, clientID)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				if client.Node != event.Node {
					continue
				}
				// Non-blocking send: a slow client misses the frame and
				// catches up on its next snapshot.
				select {
				case client.EventChannel <- event:
				default:
				}
			}
			h.mu.RUnlock()

		case <-h.shutdown:
			return
		}
	}
}

// Register adds a new client watching node
func (h *Hub) Register(node string) *Client {
	client := &Client{
		ID:           uuid.New().String(),
		Node:         node,
		EventChannel: make(chan Event, ClientEventBuffer),
	}
	h.register <- client
	return client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	select {
	case h.unregister <- clientID:
	case <-h.shutdown:
	}
}

// BroadcastChange notifies node watchers of a store mutation. relPath is
// relative to the node ("/" for the whole node, "/<key>" for a child).
func (h *Hub) BroadcastChange(node string, kind store.ChangeKind, relPath string, data json.RawMessage) {
	change := store.Change{Kind: kind, Path: relPath, Data: data}
	payload, err := json.Marshal(change)
	if err != nil {
		return
	}
	h.send(Event{
		ID:   uuid.New().String(),
		Type: string(kind),
		Node: node,
		Data: payload,
	})
}

// BroadcastRaw pushes a non-change frame (admin feed events).
func (h *Hub) BroadcastRaw(node, eventType string, data json.RawMessage) {
	h.send(Event{
		ID:   uuid.New().String(),
		Type: eventType,
		Node: node,
		Data: data,
	})
}

func (h *Hub) send(event Event) {
	select {
	case h.broadcast <- event:
	default:
		// Buffer full, drop event
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// FormatSSEMessage formats a stream event for transmission
func FormatSSEMessage(event Event) []byte {
	msg := ""
	if event.ID != "" {
		msg += "id: " + event.ID + "\n"
	}
	msg += "event: " + event.Type + "\n"
	msg += "data: " + string(event.Data) + "\n\n"
	return []byte(msg)
}
