package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/logger"
)

// Event is one notification pushed to a connected account.
type Event struct {
	Type      string    `json:"type"`
	ChannelID uuid.UUID `json:"channelId"`
	Payload   any       `json:"payload,omitempty"`
	SentAt    time.Time `json:"sentAt"`
}

type delivery struct {
	recipients []uuid.UUID
	data       []byte
}

// Hub tracks live connections per account and fans events out to them.
type Hub struct {
	clients map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	deliveries chan delivery
	done       chan struct{}

	mu  sync.RWMutex
	log *logger.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan delivery, 256),
		done:       make(chan struct{}),
		log:        logger.Default().WithComponent("websocket"),
	}
}

// Run owns the client set until ctx is cancelled, then closes every
// connection's send queue.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for accountID, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, accountID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.accountID] == nil {
				h.clients[client.accountID] = make(map[*Client]bool)
			}
			h.clients[client.accountID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case d := <-h.deliveries:
			h.mu.Lock()
			for _, accountID := range d.recipients {
				for client := range h.clients[accountID] {
					select {
					case client.send <- d.data:
					default:
						// slow consumer
						h.remove(client)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.accountID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.accountID)
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Send queues event for every connection of the given accounts. Events are
// dropped when the queue is full or the hub has stopped.
func (h *Hub) Send(recipients []uuid.UUID, event *Event) {
	if len(recipients) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.log.Warn(context.Background(), "failed to encode event", map[string]interface{}{
			"type":  event.Type,
			"error": err.Error(),
		})
		return
	}

	select {
	case h.deliveries <- delivery{recipients: recipients, data: data}:
	case <-h.done:
	default:
		h.log.Warn(context.Background(), "event queue full, dropping event", map[string]interface{}{"type": event.Type})
	}
}

// ClientCount returns the number of live connections for an account.
func (h *Hub) ClientCount(accountID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[accountID])
}

// TotalClients returns the number of live connections.
func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
