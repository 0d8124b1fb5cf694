package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "journal_stream"

// Listener observes every message addressed to a user, whether it was sent on
// this instance or arrived from another one through Redis.
type Listener func(userId uuid.UUID, msgType string, data json.RawMessage)

type clusterPayload struct {
	Origin       string          `json:"origin"`
	TargetUserId string          `json:"target_user_id"`
	Type         string          `json:"type"`
	Data         json.RawMessage `json:"data"`
}

type Hub struct {
	id string

	// UserId -> connected clients (multi-device)
	clients map[uuid.UUID][]*Client
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	// closed when Run returns; nothing reads register or unregister after.
	done chan struct{}

	listeners  []Listener
	listenerMu sync.RWMutex

	// Redis connection for cross-instance fan-out, nil on a single instance.
	rdb *redis.Client

	logger  logger.ILogger
	metrics *metrics.Collector
}

func NewHub(rdb *redis.Client, log logger.ILogger, collector *metrics.Collector) *Hub {
	return &Hub{
		id:         uuid.NewString(),
		clients:    make(map[uuid.UUID][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rdb:        rdb,
		logger:     log,
		metrics:    collector,
	}
}

func (h *Hub) AddListener(l Listener) {
	h.listenerMu.Lock()
	h.listeners = append(h.listeners, l)
	h.listenerMu.Unlock()
}

// Run serves registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserId] = append(h.clients[client.UserId], client)
			h.mu.Unlock()
			h.gauge(1)
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserId})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// join hands a client to Run. It reports false once the hub has shut down.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave hands a client back to Run for removal. After shutdown closeAll has
// already released every client, so there is nothing left to do.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.UserId]
	for i, c := range clients {
		if c == client {
			h.clients[client.UserId] = append(clients[:i:i], clients[i+1:]...)
			close(client.Send)
			h.gauge(-1)
			break
		}
	}
	if len(h.clients[client.UserId]) == 0 {
		delete(h.clients, client.UserId)
		h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserId})
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userId, clients := range h.clients {
		for _, c := range clients {
			close(c.Send)
			h.gauge(-1)
		}
		delete(h.clients, userId)
	}
}

func (h *Hub) gauge(delta float64) {
	if h.metrics != nil {
		h.metrics.StreamClients.Add(delta)
	}
}

// ClientCount is the number of local connections of a user.
func (h *Hub) ClientCount(userId uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userId])
}

// Send delivers to the user's local clients and listeners, then fans out to
// other instances.
func (h *Hub) Send(userId uuid.UUID, msgType string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode stream message", map[string]interface{}{"type": msgType, "error": err.Error()})
		return
	}

	h.deliver(userId, msgType, raw)
	h.notify(userId, msgType, raw)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterPayload{
			Origin:       h.id,
			TargetUserId: userId.String(),
			Type:         msgType,
			Data:         raw,
		})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// SendLocal delivers only to this instance's clients. Echo frames use it
// because every instance runs its own rotation.
func (h *Hub) SendLocal(userId uuid.UUID, msgType string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	h.deliver(userId, msgType, raw)
}

func (h *Hub) deliver(userId uuid.UUID, msgType string, data json.RawMessage) {
	frame, _ := json.Marshal(dto.StreamMessage{Type: msgType, Data: data})

	var slow []*Client
	h.mu.RLock()
	for _, client := range h.clients[userId] {
		select {
		case client.Send <- frame:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"user_id": userId})
		go h.leave(client)
	}
}

func (h *Hub) notify(userId uuid.UUID, msgType string, data json.RawMessage) {
	h.listenerMu.RLock()
	listeners := h.listeners
	h.listenerMu.RUnlock()
	for _, l := range listeners {
		l(userId, msgType, data)
	}
}

// subscribeToRedis relays messages published by other instances. Every
// instance subscribes to one channel and keeps what targets its own users.
func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.id {
			continue
		}
		userId, err := uuid.Parse(payload.TargetUserId)
		if err != nil {
			continue
		}
		h.deliver(userId, payload.Type, payload.Data)
		h.notify(userId, payload.Type, payload.Data)
	}
}
