package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"dyor-ai-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Envelope is the wire format for every frame exchanged with clients.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type Hub struct {
	// Registered clients map: ClientID -> Client. Connections are anonymous,
	// each gets its own id at upgrade time.
	clients map[uuid.UUID]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ClientID] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": client.ClientID})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ClientID]; ok {
				delete(h.clients, client.ClientID)
				close(client.Send)
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"client_id": client.ClientID})
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends an event to ALL connected clients, on this instance and,
// through Redis, on every other instance.
func (h *Hub) Broadcast(event string, data interface{}) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal broadcast", map[string]interface{}{"event": event, "error": err.Error()})
		return
	}

	h.mu.RLock()
	for _, client := range h.clients {
		select {
		case client.Send <- payload:
		default:
			close(client.Send)
			h.unregister <- client
		}
	}
	h.mu.RUnlock()

	if h.rdb != nil {
		h.publishToRedis("*", payload)
	}
}

// Send delivers an event to one client, wherever it is connected.
func (h *Hub) Send(clientId string, event string, data interface{}) {
	id, err := uuid.Parse(clientId)
	if err != nil {
		return
	}

	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal message", map[string]interface{}{"event": event, "error": err.Error()})
		return
	}

	h.mu.RLock()
	client, localFound := h.clients[id]
	h.mu.RUnlock()

	if localFound {
		select {
		case client.Send <- payload:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping message", map[string]interface{}{"client_id": clientId})
			close(client.Send)
			h.unregister <- client
		}
		return
	}

	// Not here: another instance may hold the connection.
	if h.rdb != nil {
		h.publishToRedis(clientId, payload)
	}
}

func (h *Hub) publishToRedis(targetClientId string, message []byte) {
	payload, _ := json.Marshal(map[string]interface{}{
		"target_client_id": targetClientId,
		"message":          json.RawMessage(message),
	})
	h.rdb.Publish(context.Background(), "cluster_events", payload)
}

// subscribeToRedis relays frames published by other instances to the clients
// this instance holds. A "*" target fans out to everyone local.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			TargetClientID string          `json:"target_client_id"`
			Message        json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		if payload.TargetClientID == "*" {
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- payload.Message:
				default:
					close(client.Send)
					h.unregister <- client
				}
			}
			h.mu.RUnlock()
			continue
		}

		id, err := uuid.Parse(payload.TargetClientID)
		if err != nil {
			continue
		}

		h.mu.RLock()
		client, ok := h.clients[id]
		h.mu.RUnlock()

		if ok {
			select {
			case client.Send <- payload.Message:
			default:
				close(client.Send)
				h.unregister <- client
			}
		}
	}
}
