package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"leadflow/internal/models"
)

// RedisPublisher fans pipeline activity out over Redis pub/sub, one channel per workspace.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (p *RedisPublisher) Channel(workspaceID string) string {
	return p.prefix + workspaceID
}

func (p *RedisPublisher) Publish(ctx context.Context, a models.Activity) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	if err := p.client.Publish(ctx, p.Channel(a.WorkspaceID), payload).Err(); err != nil {
		return fmt.Errorf("publish activity: %w", err)
	}
	return nil
}

// Subscribe returns a channel of activities for one workspace. It closes when ctx ends.
func (p *RedisPublisher) Subscribe(ctx context.Context, workspaceID string) (<-chan models.Activity, error) {
	sub := p.client.Subscribe(ctx, p.Channel(workspaceID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan models.Activity)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var a models.Activity
				if err := json.Unmarshal([]byte(msg.Payload), &a); err != nil {
					continue
				}
				select {
				case out <- a:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
