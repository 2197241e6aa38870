package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/haoxiang14/solana-wallet-tracker/internal/config"
	"github.com/haoxiang14/solana-wallet-tracker/internal/logger"
)

// Client wraps a Redis connection used for webhook deduplication.
type Client struct {
	rdb *redis.Client
	log logger.Logger
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.Global()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info("redis connected",
		logger.F("host", cfg.Host),
		logger.F("port", cfg.Port),
		logger.F("db", cfg.DB))

	return &Client{
		rdb: rdb,
		log: log.With(logger.F("component", "redis")),
	}, nil
}

// Ping checks connectivity, used by the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
