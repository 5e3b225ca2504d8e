package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Alijeyrad/odonto_backend/config"
)

// maintenanceDB is the database every PostgreSQL server ships with. It is
// the only safe place to run CREATE DATABASE from.
const maintenanceDB = "postgres"

// InitializeDatabases creates the clinical and the casbin databases when
// they are missing. Both sections must point at servers the configured user
// may create databases on.
func InitializeDatabases(ctx context.Context, cfg *config.Config) error {
	targets := []Config{FromCentralConfig(cfg.Database), FromCentralConfig(cfg.CasbinDatabase)}
	seen := map[string]bool{}

	for _, t := range targets {
		if t.DBName == "" {
			return fmt.Errorf("database name is empty for host %s", t.Host)
		}
		key := fmt.Sprintf("%s:%d/%s", t.Host, t.Port, t.DBName)
		if seen[key] {
			continue
		}
		seen[key] = true

		created, err := ensureDatabase(ctx, t)
		if err != nil {
			return fmt.Errorf("database %q: %w", t.DBName, err)
		}
		slog.Info("database ready", "name", t.DBName, "host", t.Host, "created", created)
	}
	return nil
}

func ensureDatabase(ctx context.Context, cfg Config) (bool, error) {
	conn, err := openSQLDB(ctx, cfg, cfg.dsnFor(maintenanceDB))
	if err != nil {
		return false, err
	}
	defer conn.Close()
	return createIfMissing(ctx, conn, cfg.DBName)
}

func createIfMissing(ctx context.Context, conn *sql.DB, name string) (bool, error) {
	var exists bool
	err := conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check existence: %w", err)
	}
	if exists {
		return false, nil
	}
	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return false, fmt.Errorf("create: %w", err)
	}
	return true, nil
}
