// Package events publishes track play notifications to Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Play is emitted once per track after a play transaction commits.
type Play struct {
	TrackID     string    `json:"track_id"`
	AlbumID     string    `json:"album_id"`
	ArtistID    string    `json:"artist_id"`
	TimesPlayed int       `json:"times_played"`
	PlayedAt    time.Time `json:"played_at"`
}

// Publisher delivers play events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishPlays(ctx context.Context, plays []Play) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishPlays(context.Context, []Play) error { return nil }

// RedisPublisher publishes each play as a JSON message on a single channel.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher 创建基于 Redis 频道的发布器
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// PublishPlays 使用 pipeline 一次性发布所有事件
func (p *RedisPublisher) PublishPlays(ctx context.Context, plays []Play) error {
	if len(plays) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, play := range plays {
		payload, err := json.Marshal(play)
		if err != nil {
			return fmt.Errorf("failed to marshal play event: %w", err)
		}
		pipe.Publish(ctx, p.channel, payload)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish %d play events to %s: %w", len(plays), p.channel, err)
	}
	return nil
}
