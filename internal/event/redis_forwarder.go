package event

import (
	"context"
	"encoding/json"
	"fmt"
)

// Channel the Redis channel events are forwarded to.
const Channel = "pfe:events"

// RedisPublisher is satisfied by *redis.Client.
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisForwarder re-publishes every event as JSON on Channel.
type RedisForwarder struct {
	rdb RedisPublisher
}

// NewRedisForwarder creates a RedisForwarder.
func NewRedisForwarder(rdb RedisPublisher) *RedisForwarder {
	return &RedisForwarder{rdb: rdb}
}

func (f *RedisForwarder) Handle(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return f.rdb.Publish(ctx, Channel, payload)
}
