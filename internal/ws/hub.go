package ws

import (
	"encoding/json"
	"sync"

	"go-extension-dashboard/internal/metrics"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one connection of an authenticated user.
type Client struct {
	UserID string
	Conn   Conn
}

// Event is the envelope of every message pushed to clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type directMessage struct {
	userID  string
	payload []byte
}

type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan []byte
	direct     chan directMessage
	stop       chan struct{}
	stopOnce   sync.Once
	mutex      sync.Mutex
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func NewHub(logger *zap.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan []byte),
		direct:     make(chan directMessage, 64),
		stop:       make(chan struct{}),
		logger:     logger,
		metrics:    m,
	}
}

// Run serves the hub until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.Clients[client] = true
			h.mutex.Unlock()
			h.metrics.IncWSConnections()
			h.logger.Debug("ws client connected", zap.String("user_id", client.UserID))

		case client := <-h.Unregister:
			h.mutex.Lock()
			h.removeLocked(client)
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for client := range h.Clients {
				h.writeLocked(client, message)
			}
			h.mutex.Unlock()

		case msg := <-h.direct:
			h.mutex.Lock()
			for client := range h.Clients {
				if client.UserID == msg.userID {
					h.writeLocked(client, msg.payload)
				}
			}
			h.mutex.Unlock()

		case <-h.stop:
			h.mutex.Lock()
			for client := range h.Clients {
				h.removeLocked(client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

func (h *Hub) writeLocked(client *Client, message []byte) {
	if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
		h.logger.Debug("ws write failed, dropping client", zap.String("user_id", client.UserID), zap.Error(err))
		h.removeLocked(client)
	}
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.Clients[client]; !ok {
		return
	}
	delete(h.Clients, client)
	_ = client.Conn.Close()
	h.metrics.DecWSConnections()
}

// SendToUser queues an event for every connection of userID. It never
// blocks; when the queue is full the event is dropped.
func (h *Hub) SendToUser(userID, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error("encoding ws event failed", zap.String("type", eventType), zap.Error(err))
		return
	}
	select {
	case h.direct <- directMessage{userID: userID, payload: payload}:
	case <-h.stop:
	default:
		h.logger.Warn("ws queue full, dropping event", zap.String("type", eventType), zap.String("user_id", userID))
	}
}

// BroadcastEvent sends an event to every connected client.
func (h *Hub) BroadcastEvent(eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error("encoding ws event failed", zap.String("type", eventType), zap.Error(err))
		return
	}
	select {
	case h.Broadcast <- payload:
	case <-h.stop:
	}
}

// Attach registers client unless the hub is stopped.
func (h *Hub) Attach(client *Client) {
	select {
	case h.Register <- client:
	case <-h.stop:
	}
}

// Detach unregisters client; after Stop it is a no-op.
func (h *Hub) Detach(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.stop:
	}
}

// Count is the number of connected clients.
func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}
