package infra

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis dials the job-queue Redis and verifies it answers before the
// server starts handing it work.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	// Bounded ping so a dead broker fails startup fast instead of hanging
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}
