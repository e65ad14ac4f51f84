package http

import "sync"

// outboundMessage is the wire frame for every event pushed to clients.
type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub fans events out to connected websocket clients. It implements
// game.Notifier: broadcasts reach everyone, room sends reach the clients that
// joined the room (one room per player identity).
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	rooms   map[string]map[*wsClient]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		rooms:   make(map[string]map[*wsClient]struct{}),
	}
}

func (h *Hub) Broadcast(event string, payload any) {
	msg := outboundMessage{Type: event, Payload: payload}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.enqueue(msg)
	}
}

func (h *Hub) SendToRoom(room, event string, payload any) {
	msg := outboundMessage{Type: event, Payload: payload}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		c.enqueue(msg)
	}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) join(room string, c *wsClient) {
	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*wsClient]struct{})
	}
	h.rooms[room][c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
}

// enqueue is lossy for slow consumers: the oldest pending frame is dropped so
// one stalled client never blocks a broadcast.
func (c *wsClient) enqueue(msg outboundMessage) {
	select {
	case c.send <- msg:
	default:
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- msg:
		default:
		}
	}
}
