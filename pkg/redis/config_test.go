package redis

import (
	"testing"
	"time"

	"github.com/Alijeyrad/odonto_backend/config"
)

func TestFromCentralConfigDefaults(t *testing.T) {
	cfg := FromCentralConfig(config.RedisConfig{Addr: "cache:6379", PoolSize: 40, ReadTimeoutSeconds: 1})

	if cfg.Addr != "cache:6379" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.PoolSize != 40 {
		t.Errorf("PoolSize = %d, want 40", cfg.PoolSize)
	}
	if cfg.MinIdleConns != DefaultConfig().MinIdleConns {
		t.Errorf("MinIdleConns = %d", cfg.MinIdleConns)
	}
	if cfg.DialTimeout != 5*time.Second {
		t.Errorf("DialTimeout = %v", cfg.DialTimeout)
	}
	if cfg.ReadTimeout != time.Second {
		t.Errorf("ReadTimeout = %v, want 1s", cfg.ReadTimeout)
	}

	opts := cfg.options()
	if opts.PoolSize != 40 || opts.WriteTimeout != 3*time.Second {
		t.Errorf("options = %+v", opts)
	}
}

func TestNewRedisFromCentralWithoutAddr(t *testing.T) {
	rdb, err := NewRedisFromCentral(config.RedisConfig{})
	if err != nil || rdb != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", rdb, err)
	}
}

func TestNewRedisRequiresAddr(t *testing.T) {
	if _, err := NewRedis(t.Context(), Config{}); err == nil {
		t.Error("expected error for empty addr")
	}
}
