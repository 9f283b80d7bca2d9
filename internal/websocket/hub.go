package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"
	"github.com/pagpeter/obsidian-extensions/pkg/notice"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel carries notices between server instances sharing a Redis.
const ClusterChannel = "cluster_events"

type clusterMessage struct {
	Origin  uuid.UUID       `json:"origin"`
	Message json.RawMessage `json:"message"`
}

// Hub fans notices out to every connected websocket client. All client
// bookkeeping happens on the Run goroutine.
type Hub struct {
	// Identifies this instance on the cluster channel.
	id uuid.UUID

	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	// Guards reads of the client count from other goroutines.
	mu    sync.RWMutex
	count int

	// Optional; nil keeps the hub local to this process.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		id:         uuid.New(),
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			for id, client := range h.clients {
				close(client.Send)
				delete(h.clients, id)
			}
			h.setCount(0)
			close(h.done)
			return

		case client := <-h.register:
			h.clients[client.ID] = client
			h.setCount(len(h.clients))
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": client.ID})

		case client := <-h.unregister:
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				h.setCount(len(h.clients))
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"client_id": client.ID})
			}

		case message := <-h.broadcast:
			for id, client := range h.clients {
				select {
				case client.Send <- message:
				default:
					h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{"client_id": id})
					delete(h.clients, id)
					close(client.Send)
				}
			}
			h.setCount(len(h.clients))
		}
	}
}

// Broadcast delivers n to every local client and to the other instances.
func (h *Hub) Broadcast(ctx context.Context, n notice.Notice) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "notice",
		"data": n,
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode notice", map[string]interface{}{"error": err})
		return
	}

	h.enqueue(ctx, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.id, Message: data})
		if err := h.rdb.Publish(ctx, ClusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish to cluster", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) enqueue(ctx context.Context, data []byte) {
	select {
	case h.broadcast <- data:
	case <-h.done:
	case <-ctx.Done():
	}
}

// Register adds c to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount reports how many clients are connected to this instance.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// subscribeToRedis relays notices published by other instances. Messages this
// instance published itself were already delivered locally.
func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Malformed cluster message", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.id {
				continue
			}
			h.enqueue(ctx, payload.Message)
		}
	}
}
