package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient connects to connString, either a host:port address or a
// redis:// URL, and pings the server.
func NewRedisClient(ctx context.Context, connString string) (*redis.Client, error) {
	opts := &redis.Options{Addr: connString}
	if strings.Contains(connString, "://") {
		parsed, err := redis.ParseURL(connString)
		if err != nil {
			return nil, fmt.Errorf("invalid redis connection string: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
