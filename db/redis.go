package db

import (
	"context"
	"fmt"
	"time"

	"espotifai/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis 初始化Redis连接并测试连通性
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// CloseRedis 关闭Redis连接
func CloseRedis(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// TestRedis 订阅播放事件频道并发布一条测试消息, 确认消息能被收到
func TestRedis(ctx context.Context, client *redis.Client, channel string) error {
	if client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	// 等待订阅确认
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	const payload = `{"test":true}`
	if err := client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		return fmt.Errorf("failed to receive test message: %w", err)
	}
	if msg.Payload != payload {
		return fmt.Errorf("unexpected payload from Redis: got %s", msg.Payload)
	}

	return nil
}
