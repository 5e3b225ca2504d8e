package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/odonto_backend/config"
)

// NewRedisFromCentral returns a nil client without error when no address is
// configured. Callers then keep sessions and limiter state in process.
func NewRedisFromCentral(cfg config.RedisConfig) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	return NewRedis(context.Background(), FromCentralConfig(cfg))
}

// NewRedis connects and pings within the dial timeout.
func NewRedis(ctx context.Context, cfg Config) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis: addr is empty")
	}
	rdb := goredis.NewClient(cfg.options())

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}
