package stream

import (
	"context"
	"log/slog"
	"sync"

	"github.com/goccy/go-json"

	"github.com/aiden123456789/Whispers/internal/metrics"
	"github.com/aiden123456789/Whispers/internal/models"
)

// MessageTypeWhisper tags a newly stored whisper.
const MessageTypeWhisper = "whisper"

const broadcastBuffer = 256

// Message is the envelope of every frame sent to live feed clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub keeps the connected clients and fans published whispers out to them.
type Hub struct {
	log        *slog.Logger
	metrics    *metrics.Metrics
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(log *slog.Logger, metrics *metrics.Metrics) *Hub {
	return &Hub{
		log:        log,
		metrics:    metrics,
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves register, unregister and broadcast events until ctx is cancelled,
// then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	h.log.InfoContext(ctx, "Live feed hub started...")
	defer close(h.done)

	for {
		// Lifecycle events first so a broadcast never misses a client that already registered.
		select {
		case client := <-h.register:
			h.add(client)
			continue
		case client := <-h.unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.closeAll()
			h.log.InfoContext(ctx, "Live feed hub stopped.")
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case frame := <-h.broadcast:
			h.fanOut(frame)
		}
	}
}

// Publish queues w for every connected client. The frame is dropped when the
// broadcast buffer is full.
func (h *Hub) Publish(w models.Whisper) {
	frame, err := json.Marshal(Message{Type: MessageTypeWhisper, Data: w.View()})
	if err != nil {
		h.log.Error("Failed to encode live feed message", "error", err)
		return
	}

	select {
	case h.broadcast <- frame:
	default:
		h.log.Warn("Broadcast channel full, dropping whisper", "whisper", w.ID)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.StreamClients.Set(float64(count))
	h.log.Debug("Live feed client connected", "total_clients", count)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.StreamClients.Set(float64(count))
	h.log.Debug("Live feed client disconnected", "total_clients", count)
}

// fanOut drops clients whose send buffer is full.
func (h *Hub) fanOut(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- frame:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}

	h.metrics.StreamClients.Set(float64(len(h.clients)))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}

	h.metrics.StreamClients.Set(0)
}
