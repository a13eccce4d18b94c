package chat

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Hub fans chat messages out to every websocket client attached to a trip.
// With a redis client it also relays through pub/sub so clients connected to
// other instances receive the same messages.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	TripID string
	UserID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(tripID, userID string) *Client {
	client := &Client{
		TripID: tripID,
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[tripID] == nil {
		h.clients[tripID] = map[*Client]struct{}{}
	}
	h.clients[tripID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if tripClients, ok := h.clients[client.TripID]; ok {
		delete(tripClients, client)
		if len(tripClients) == 0 {
			delete(h.clients, client.TripID)
		}
	}
	close(client.Send)
}

// Broadcast routes through redis when available so every instance delivers
// exactly once via its subscriber. Local delivery happens directly only when
// no redis is configured, or as a fallback when the publish fails.
func (h *Hub) Broadcast(tripID string, payload []byte) {
	if h.redis == nil {
		h.deliverLocal(tripID, payload)
		return
	}
	err := h.redis.Publish(context.Background(), redisChannel(tripID), payload).Err()
	if err != nil {
		log.Warn().Err(err).Str("trip_id", tripID).Msg("chat publish failed")
		h.deliverLocal(tripID, payload)
	}
}

func (h *Hub) deliverLocal(tripID string, payload []byte) {
	// the read lock is held across the sends so Unregister cannot close a
	// channel mid-broadcast; the sends never block, so this is safe to hold
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[tripID] {
		select {
		case client.Send <- payload:
		default:
			// slow consumer, drop rather than block the hub
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "chat:*:messages")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliverLocal(tripIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(tripID string) string {
	return "chat:" + tripID + ":messages"
}

func tripIDFromChannel(ch string) string {
	// chat:{trip}:messages
	const prefix = "chat:"
	const suffix = ":messages"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
