package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const roomChannelPrefix = "room:"

// envelope is the wire format published to a room channel.
type envelope struct {
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// RedisTransport implements the realtime transport over Redis pub/sub.
// A room maps to one channel; gateway processes holding the websocket
// connections subscribe to the channels of the rooms their sessions joined.
type RedisTransport struct {
	client *redis.Client
}

// NewRedisTransport creates a RedisTransport from a connection URL.
func NewRedisTransport(redisURL string) (*RedisTransport, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &RedisTransport{client: redis.NewClient(opts)}, nil
}

// NewRedisTransportFromClient wraps an existing Redis client.
func NewRedisTransportFromClient(client *redis.Client) *RedisTransport {
	return &RedisTransport{client: client}
}

// BroadcastToRoom publishes the payload to the room's channel.
func (t *RedisTransport) BroadcastToRoom(ctx context.Context, room, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for room %s: %w", room, err)
	}

	body, err := json.Marshal(envelope{
		Event:     event,
		Payload:   raw,
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope for room %s: %w", room, err)
	}

	if err := t.client.Publish(ctx, roomChannelPrefix+room, body).Err(); err != nil {
		return fmt.Errorf("failed to publish to room %s: %w", room, err)
	}
	return nil
}

// RoomMemberCount returns the number of subscribers on the room's channel.
func (t *RedisTransport) RoomMemberCount(ctx context.Context, room string) (int, error) {
	counts, err := t.client.PubSubNumSub(ctx, roomChannelPrefix+room).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count subscribers of room %s: %w", room, err)
	}
	return int(counts[roomChannelPrefix+room]), nil
}

// Close closes the Redis connection.
func (t *RedisTransport) Close() error {
	return t.client.Close()
}
