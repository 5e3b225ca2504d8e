package redis

import (
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/odonto_backend/config"
)

// Config is the redis section with defaults applied. Redis holds login
// sessions, lockout counters and rate limiter windows.
type Config struct {
	Addr     string
	DB       int
	Username string
	Password string

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// FromCentralConfig keeps DefaultConfig values for unset pool sizes and
// timeouts.
func FromCentralConfig(c config.RedisConfig) Config {
	out := DefaultConfig()
	out.Addr = c.Addr
	out.DB = c.DB
	out.Username = c.Username
	out.Password = c.Password
	if c.PoolSize > 0 {
		out.PoolSize = c.PoolSize
	}
	if c.MinIdleConns > 0 {
		out.MinIdleConns = c.MinIdleConns
	}
	out.DialTimeout = seconds(c.DialTimeoutSeconds, out.DialTimeout)
	out.ReadTimeout = seconds(c.ReadTimeoutSeconds, out.ReadTimeout)
	out.WriteTimeout = seconds(c.WriteTimeoutSeconds, out.WriteTimeout)
	return out
}

func (c Config) options() *goredis.Options {
	return &goredis.Options{
		Addr:         c.Addr,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}

func seconds(v int, def time.Duration) time.Duration {
	if v > 0 {
		return time.Duration(v) * time.Second
	}
	return def
}
