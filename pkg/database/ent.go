package database

import (
	"context"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/repo/migrate"
)

// NewEntClient opens the clinical store described by a database section.
func NewEntClient(cfg config.DatabaseConfig) (*repo.Client, error) {
	return NewEntClientFromConfig(context.Background(), FromCentralConfig(cfg))
}

func NewEntClientFromConfig(ctx context.Context, cfg Config) (*repo.Client, error) {
	db, err := openSQLDB(ctx, cfg, cfg.DSN())
	if err != nil {
		return nil, err
	}

	var opts []repo.Option
	if cfg.SlowQueryThreshold > 0 {
		opts = append(opts, repo.WithSlowQueryLog(cfg.SlowQueryThreshold))
	}
	return repo.NewClient(entsql.OpenDB(dialect.Postgres, db), opts...), nil
}

// MigrateEnt applies the schema. In safe mode columns and indexes that are
// no longer declared are kept.
func MigrateEnt(ctx context.Context, client *repo.Client, safe bool) error {
	opts := []migrate.Option{migrate.WithForeignKeys(true)}
	if !safe {
		opts = append(opts, migrate.WithDropColumn(true), migrate.WithDropIndex(true))
	}
	return migrate.Create(ctx, client.Driver(), opts...)
}
