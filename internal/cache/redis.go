// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list holding room lifecycle events for any
// downstream consumer (analytics, ops dashboards).
const DefaultQueueName = "cardtable_room_events"

// RoomEventRecord describes one room lifecycle transition.
type RoomEventRecord struct {
	RoomCode   string `json:"room_code"`
	Event      string `json:"event"` // "room_created" | "room_deleted"
	NumPlayers int    `json:"num_players"`
	MaxPlayers int    `json:"max_players"`
	Timestamp  int64  `json:"timestamp"`
}

// Publisher pushes lifecycle events onto a Redis queue. A nil *Publisher is a
// valid disabled publisher; every method no-ops.
type Publisher struct {
	rdb   *redis.Client
	queue string
}

// Connect initializes the Redis client. An empty addr returns a nil Publisher
// (event publishing disabled).
func Connect(ctx context.Context, addr string) (*Publisher, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Publisher{rdb: rdb, queue: DefaultQueueName}, nil
}

// PublishRoomEvent serializes the record and pushes it onto the queue. This
// is fire-and-forget relative to the live room state; callers log failures
// and move on.
func (p *Publisher) PublishRoomEvent(ctx context.Context, record RoomEventRecord) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal RoomEventRecord: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}
