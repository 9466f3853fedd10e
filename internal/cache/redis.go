package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"horrorvault/internal/logger"
)

// NewRedis connects to Redis and pings it once.
func NewRedis(ctx context.Context, host, port, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Get().Info("Connection to Redis successful")
	return client, nil
}
