package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes events on a per-match pub/sub channel so other
// gateway instances and overlays can relay them.
type RedisSink struct {
	rdb     *redis.Client
	channel string
}

func NewRedisSink(rdb *redis.Client, matchID string) *RedisSink {
	return &RedisSink{
		rdb:     rdb,
		channel: Channel(matchID),
	}
}

// Channel is the pub/sub channel carrying a match's wager events
func Channel(matchID string) string {
	return fmt.Sprintf("wager:events:%s", matchID)
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.rdb.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", s.channel, err)
	}
	return nil
}
