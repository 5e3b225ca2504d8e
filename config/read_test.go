package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
database:
  host: db.local
  dbname: odonto
  user: odonto
server:
  port: 9000
  environment: production
authentication:
  paseto:
    issuer: odonto
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestReadConfig(t *testing.T) {
	t.Run("file values and defaults", func(t *testing.T) {
		cfg, err := ReadConfig(writeConfig(t, sampleConfig))
		require.NoError(t, err)

		assert.Equal(t, "db.local", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.True(t, cfg.IsProduction())
		assert.Equal(t, 5, cfg.Authentication.MaxLoginAttempts)
		assert.Equal(t, "odonto", cfg.Nats.SubjectPrefix)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("ODONTO_DATABASE_HOST", "db.override")
		cfg, err := ReadConfig(writeConfig(t, sampleConfig))
		require.NoError(t, err)
		assert.Equal(t, "db.override", cfg.Database.Host)
	})

	t.Run("memory driver needs no host", func(t *testing.T) {
		cfg, err := ReadConfig(writeConfig(t, "database:\n  driver: memory\n"))
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Database.Driver)
	})

	t.Run("explicit file path", func(t *testing.T) {
		dir := writeConfig(t, sampleConfig)
		cfg, err := ReadConfig(filepath.Join(dir, "config.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Server.Port)
	})

	t.Run("missing file without env", func(t *testing.T) {
		_, err := ReadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("missing file with env", func(t *testing.T) {
		t.Setenv("ODONTO_DATABASE_DRIVER", "memory")
		cfg, err := ReadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Database.Driver)
	})

	t.Run("unknown driver rejected", func(t *testing.T) {
		_, err := ReadConfig(writeConfig(t, "database:\n  driver: sqlite\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not supported")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"short encryption key", func(c *Config) { c.Authentication.EncryptionKey = "abcd" }, true},
		{"email without host", func(c *Config) { c.Email.Enabled = true }, true},
		{"push without endpoint", func(c *Config) { c.Push.Enabled = true }, true},
		{"bcrypt", func(c *Config) { c.Password.Algorithm = "bcrypt" }, true},
		{"hmac tokens", func(c *Config) { c.Authentication.Paseto.Mode = "hmac" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Database: DatabaseConfig{Driver: "postgres", Host: "h", DBName: "d"},
				Server:   ServerConfig{Port: 8080},
			}
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
