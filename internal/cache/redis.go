package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// RedisText is a TextStore backed by Redis so that every API instance
// shares the same entries.
type RedisText struct {
	client rueidis.Client
	prefix string
}

// NewRedisText connects to addr and verifies the connection with PING.
func NewRedisText(ctx context.Context, addr, prefix string) (*RedisText, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisText{client: client, prefix: prefix}, nil
}

func (r *RedisText) GetText(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Do(ctx, r.client.B().Get().Key(r.prefix+key).Build()).ToString()
	if rueidis.IsRedisNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (r *RedisText) SetText(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}
	cmd := r.client.B().Set().Key(r.prefix + key).Value(value).Ex(ttl).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisText) Close() {
	r.client.Close()
}
