package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"investlens/internal/infrastructure"
)

// TypeConnection is sent to a client right after it registers
const TypeConnection = "connection"

const (
	broadcastQueueSize = 64
	clientQueueSize    = 16
)

// Message is the envelope of every server push
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type outbound struct {
	messageType string
	payload     []byte
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	logger  *slog.Logger
	metrics *HubMetrics
	now     func() time.Time
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithHubMetrics records connection and broadcast metrics
func WithHubMetrics(m *HubMetrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// NewHub creates a hub. Call Start before registering clients.
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start runs the hub loop in its own goroutine. It is idempotent.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop closes every client queue and ends the hub loop
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.quit)
	h.mu.Unlock()

	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.recordConnection(ctx)

			h.logger.Info("client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count),
			)

			payload, err := h.encode(TypeConnection, map[string]interface{}{
				"status":    "connected",
				"client_id": client.id,
			})
			if err == nil {
				select {
				case client.send <- payload:
				default:
					h.metrics.recordDropped(ctx, "client_queue_full")
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; !ok {
				h.mu.Unlock()
				continue
			}
			delete(h.clients, client)
			close(client.send)
			count := len(h.clients)
			h.mu.Unlock()

			lifetime := time.Since(client.connectedAt)
			h.metrics.recordDisconnection(ctx, lifetime)
			h.logger.Info("client unregistered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", count),
				slog.Duration("connection_duration", lifetime),
			)

		case msg := <-h.broadcast:
			h.mu.Lock()
			delivered := 0
			for client := range h.clients {
				select {
				case client.send <- msg.payload:
					delivered++
				default:
					close(client.send)
					delete(h.clients, client)
					h.metrics.recordDropped(ctx, "client_queue_full")
					h.logger.Warn("client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}
			h.mu.Unlock()

			h.metrics.recordBroadcast(ctx, msg.messageType, delivered)
			h.logger.Debug("message broadcast",
				slog.String("type", msg.messageType),
				slog.Int("delivered", delivered),
				slog.Int("payload_size", len(msg.payload)),
			)
		}
	}
}

// Broadcast queues a message for every connected client. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	payload, err := h.encode(messageType, data)
	if err != nil {
		h.logger.Error("failed to marshal websocket message",
			slog.String("type", messageType),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- outbound{messageType: messageType, payload: payload}:
	case <-h.quit:
	default:
		h.metrics.recordDropped(context.Background(), "broadcast_queue_full")
		h.logger.Warn("broadcast queue full, message dropped", slog.String("type", messageType))
	}
}

func (h *Hub) encode(messageType string, data interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      messageType,
		Data:      data,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		close(client.send)
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
