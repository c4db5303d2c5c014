package ws

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

type message struct {
	eventID uuid.UUID
	data    []byte
}

// Hub fans schedule updates out to the websocket clients subscribed to an
// event.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	logger     *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan message, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]bool)
			h.mutex.Unlock()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			set := h.clients[client.eventID]
			if set == nil {
				set = make(map[*Client]bool)
				h.clients[client.eventID] = set
			}
			set[client] = true
			total := len(set)
			h.mutex.Unlock()
			if h.logger != nil {
				h.logger.Printf("[WS] connected event_id=%s clients=%d", client.eventID, total)
			}

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.remove(client)

		case msg := <-h.broadcast:
			h.mutex.RLock()
			snapshot := make([]*Client, 0, len(h.clients[msg.eventID]))
			for c := range h.clients[msg.eventID] {
				snapshot = append(snapshot, c)
			}
			h.mutex.RUnlock()

			for _, client := range snapshot {
				select {
				case client.send <- msg.data:
				default:
					h.remove(client)
				}
			}
			if h.logger != nil {
				h.logger.Printf("[WS] broadcast event_id=%s clients=%d", msg.eventID, len(snapshot))
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	set := h.clients[client.eventID]
	if _, ok := set[client]; ok {
		delete(set, client)
		close(client.send)
		if len(set) == 0 {
			delete(h.clients, client.eventID)
		}
	}
	total := len(set)
	h.mutex.Unlock()
	if h.logger != nil {
		h.logger.Printf("[WS] disconnected event_id=%s clients=%d", client.eventID, total)
	}
}

func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	h.unregister <- client
}

func (h *Hub) Broadcast(eventID uuid.UUID, data []byte) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- message{eventID: eventID, data: data}:
	default:
		if h.logger != nil {
			h.logger.Printf("[WS] broadcast dropped event_id=%s reason=buffer_full", eventID)
		}
	}
}

func (h *Hub) ClientCount(eventID uuid.UUID) int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[eventID])
}
