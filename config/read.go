package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Alijeyrad/odonto_backend/pkg/constants"
)

// ReadConfig loads configuration from path, which is either a config file
// or a directory holding config.yaml. ODONTO_<SECTION>_<KEY> environment
// variables override file values; the file may be absent when the database
// is configured through the environment.
func ReadConfig(path string) (*Config, error) {
	v := viper.New()
	if filepath.Ext(path) != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(constants.ConfigName)
		v.SetConfigType(constants.ConfigFormat)
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if !missing || !configuredByEnv() {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

func configuredByEnv() bool {
	return os.Getenv(constants.EnvPrefix+"_DATABASE_HOST") != "" ||
		os.Getenv(constants.EnvPrefix+"_DATABASE_DRIVER") != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", constants.DriverPostgres)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.logging.slow_query_threshold_ms", 200)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", constants.EnvDevelopment)
	v.SetDefault("server.rate_limit.requests_per_minute", 120)
	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.issuer", constants.ServiceName)
	v.SetDefault("authentication.paseto.audience", "odonto-clients")
	v.SetDefault("authentication.paseto.access_ttl_minutes", 15)
	v.SetDefault("authentication.paseto.refresh_ttl_days", 7)
	v.SetDefault("authentication.session_ttl_minutes", 60*24)
	v.SetDefault("authentication.default_password_length", 12)
	v.SetDefault("authentication.max_login_attempts", 5)
	v.SetDefault("authentication.lockout_minutes", 15)
	v.SetDefault("observability.service_name", constants.ServiceName)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output.stdout", true)
	v.SetDefault("nats.subject_prefix", "odonto")
	v.SetDefault("email.app_name", "Odonto")
	v.SetDefault("email.language", "es")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.timeout_seconds", 30)
	v.SetDefault("email.smtp.max_attempts", 3)
	v.SetDefault("s3.presign_ttl_sec", 900)
	v.SetDefault("authorization.enable_audit", true)
	v.SetDefault("authorization.policy_sync_enabled", true)
	v.SetDefault("authorization.health_check_enabled", true)
	v.SetDefault("push.timeout_seconds", 5)
	v.SetDefault("push.retries", 2)
}
