package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakshampandey1901/Cite/internal/platform/envutil"
	"github.com/sakshampandey1901/Cite/internal/platform/logger"
)

func NewRedisClient(baseLog *logger.Logger) (*redis.Client, error) {
	log := baseLog.With("service", "RedisService")

	addr := envutil.String("REDIS_ADDR", "localhost:6379")
	password := envutil.String("REDIS_PASSWORD", "")
	database := envutil.Int("REDIS_DB", 0)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info("connected to redis", "addr", addr)
	return client, nil
}
