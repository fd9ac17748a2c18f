package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"metitejidos.com.ar/storefront/pkg/global"
)

func NewClient(cfg global.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Protocol: 2,
	})
}

// Connect builds a client and verifies it answers PING.
func Connect(ctx context.Context, cfg global.RedisConfig) (*redis.Client, error) {
	client := NewClient(cfg)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}
