package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kidsact/admin-console/internal/config"
)

// Redis wraps the go-redis client. Redis only backs caches, so an
// unreachable server is logged and the service keeps running.
type Redis struct {
	Client    *redis.Client
	reachable bool
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	r := &Redis{Client: client}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis; caches disabled", zap.Error(err))
	} else {
		r.reachable = true
		logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}
	return r
}

// CacheClient returns the client when the server answered at startup, nil otherwise.
func (r *Redis) CacheClient() *redis.Client {
	if r == nil || !r.reachable {
		return nil
	}
	return r.Client
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
