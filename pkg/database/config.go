package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/pkg/constants"
)

// Config is one PostgreSQL connection: the clinical store or the casbin
// policy store.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	AutoMigrate bool
	SafeMode    bool

	// SlowQueryThreshold enables slow statement logging when positive.
	SlowQueryThreshold time.Duration
}

func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            5432,
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		SafeMode:        true,
	}
}

// FromCentralConfig maps a database section onto DefaultConfig.
func FromCentralConfig(c config.DatabaseConfig) Config {
	out := DefaultConfig()
	if c.Host != "" {
		out.Host = c.Host
	}
	if c.Port > 0 {
		out.Port = c.Port
	}
	if c.SSLMode != "" {
		out.SSLMode = c.SSLMode
	}
	out.User = c.User
	out.Password = c.Password
	out.DBName = c.DBName

	if c.Pool.MaxOpenConns > 0 {
		out.MaxOpenConns = c.Pool.MaxOpenConns
	}
	if c.Pool.MaxIdleConns > 0 {
		out.MaxIdleConns = c.Pool.MaxIdleConns
	}
	if c.Pool.ConnMaxLifetimeMin > 0 {
		out.ConnMaxLifetime = time.Duration(c.Pool.ConnMaxLifetimeMin) * time.Minute
	}

	out.AutoMigrate = c.Migrations.AutoMigrate
	out.SafeMode = c.Migrations.SafeMode
	if c.Logging.Enabled {
		out.SlowQueryThreshold = time.Duration(c.Logging.SlowQueryThresholdMs) * time.Millisecond
	}
	return out
}

// DSN renders a lib/pq keyword/value string. Values are quoted so
// passwords may contain spaces or quotes.
func (c Config) DSN() string {
	return c.dsnFor(c.DBName)
}

func (c Config) dsnFor(dbname string) string {
	pairs := []struct{ k, v string }{
		{"host", c.Host},
		{"port", fmt.Sprint(c.Port)},
		{"user", c.User},
		{"password", c.Password},
		{"dbname", dbname},
		{"sslmode", c.SSLMode},
		{"application_name", constants.ServiceName},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.v == "" {
			continue
		}
		parts = append(parts, p.k+"="+quoteValue(p.v))
	}
	return strings.Join(parts, " ")
}

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// NewDSN renders the DSN of a database section.
func NewDSN(c config.DatabaseConfig) string {
	return FromCentralConfig(c).DSN()
}
