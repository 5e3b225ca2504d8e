package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/internal/events"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/repo/memstore"
	"github.com/Alijeyrad/odonto_backend/internal/service/auth"
	"github.com/Alijeyrad/odonto_backend/pkg/authorize"
	"github.com/Alijeyrad/odonto_backend/pkg/constants"
	"github.com/Alijeyrad/odonto_backend/pkg/crypto"
	"github.com/Alijeyrad/odonto_backend/pkg/database"
	"github.com/Alijeyrad/odonto_backend/pkg/email"
	"github.com/Alijeyrad/odonto_backend/pkg/observability"
	pasetotoken "github.com/Alijeyrad/odonto_backend/pkg/paseto"
	"github.com/Alijeyrad/odonto_backend/pkg/push"
	redispkg "github.com/Alijeyrad/odonto_backend/pkg/redis"
	s3pkg "github.com/Alijeyrad/odonto_backend/pkg/s3"
	"github.com/Alijeyrad/odonto_backend/pkg/util/password"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideSessionStore),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideEmailSender),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideStorage),
	fx.Provide(ProvideEventBus),
	fx.Provide(func(b events.Bus) events.Publisher { return b }),
	fx.Provide(ProvidePushSender),
	fx.Provide(ProvideCipher),
	fx.Provide(ProvidePasetoManager),
	fx.Provide(ProvidePasswordParams),
	fx.Provide(observability.NewLifecycle),
)

func isMemory(cfg *config.Config) bool {
	return cfg.Database.Driver == constants.DriverMemory
}

// ProvideStore opens the configured store. The memory driver keeps all data
// in process and loses it on restart.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config) (repo.Store, error) {
	if isMemory(cfg) {
		slog.Warn("using in-memory store; data will not survive a restart")
		return memstore.New(), nil
	}

	client, err := database.NewEntClient(cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Migrations.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.TimeoutSeconds)*time.Second)
		defer cancel()
		if err := database.MigrateEnt(ctx, client, cfg.Database.Migrations.SafeMode); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		slog.Info("database schema migrated", "safe_mode", cfg.Database.Migrations.SafeMode)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return client.Close()
		},
	})
	return client, nil
}

// ProvideRedis returns nil when no address is configured.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil || rdb == nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideSessionStore(cfg *config.Config, rdb *redis.Client) auth.SessionStore {
	if rdb == nil {
		if cfg.IsProduction() {
			slog.Warn("redis is not configured; sessions are kept in process memory")
		}
		return auth.NewMemorySessions()
	}
	return auth.NewRedisSessions(rdb)
}

// ProvideAuthorization builds the Casbin enforcer and seeds the default
// policies. The memory driver keeps policies in process as well.
func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	authCfg := authorize.FromCentralConfig(cfg.Authorization)
	enforcer, cleanup, err := newEnforcer(cfg, authCfg)
	if err != nil {
		return nil, err
	}
	authz, err := authorize.NewAuthorization(enforcer)
	if err != nil {
		cleanup(context.Background())
		return nil, err
	}
	if authCfg.EnableAudit {
		authz = authorize.NewAuditedAuthorization(authz, slog.Default())
	}

	if err := authorize.SeedDefaultPolicies(context.Background(), authz); err != nil {
		cleanup(context.Background())
		return nil, fmt.Errorf("seed policies: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("cleaning up Casbin enforcer")
			cleanup(ctx)
			return nil
		},
	})
	return authz, nil
}

func newEnforcer(cfg *config.Config, authCfg authorize.Config) (*casbin.DistributedEnforcer, authorize.CleanupFunc, error) {
	if isMemory(cfg) {
		return authorize.NewMemoryEnforcer(authCfg.CasbinModelPath)
	}
	return authorize.NewEnforcer(authCfg, database.NewDSN(cfg.CasbinDatabase))
}

func ProvideEmailSender(cfg *config.Config) (email.Sender, error) {
	return email.NewFromCentral(cfg.Email)
}

// ProvideStorage returns the S3 client, or an in-process bucket when no
// bucket is configured.
func ProvideStorage(cfg *config.Config) (s3pkg.Storage, error) {
	if cfg.S3.Bucket == "" {
		slog.Warn("s3 bucket is not configured; objects are kept in process memory")
		return s3pkg.NewMemory(fmt.Sprintf("http://localhost:%d/objects", cfg.Server.Port)), nil
	}
	return s3pkg.New(context.Background(), cfg.S3)
}

// ProvideEventBus connects to NATS, or delivers events in process when no
// URL is configured.
func ProvideEventBus(lc fx.Lifecycle, cfg *config.Config) (events.Bus, error) {
	prefix := cfg.Nats.SubjectPrefix
	if prefix == "" {
		prefix = constants.ServiceName
	}

	var bus events.Bus
	if cfg.Nats.URL == "" {
		bus = events.NewLocal(prefix)
	} else {
		nc, err := nats.Connect(cfg.Nats.URL, nats.Name(constants.ServiceName))
		if err != nil {
			return nil, err
		}
		bus = events.NewNATS(nc, prefix)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing event bus")
			return bus.Close()
		},
	})
	return bus, nil
}

func ProvidePushSender(cfg *config.Config) push.Sender {
	if !cfg.Push.Enabled {
		return push.Nop{}
	}
	return push.New(cfg.Push)
}

func ProvideCipher(cfg *config.Config) (*crypto.Cipher, error) {
	if cfg.Authentication.EncryptionKey == "" && cfg.IsProduction() {
		return nil, fmt.Errorf("authentication.encryption_key is required in production")
	}
	return crypto.NewCipherFromHex(cfg.Authentication.EncryptionKey)
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

func ProvidePasswordParams(cfg *config.Config) *password.Params {
	return password.FromCentralConfig(cfg.Password).ToParams()
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
