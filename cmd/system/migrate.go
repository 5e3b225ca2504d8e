package system

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/pkg/authorize"
	"github.com/Alijeyrad/odonto_backend/pkg/constants"
	"github.com/Alijeyrad/odonto_backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	var (
		skipSeed bool
		drop     bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the clinical schema and seed the RBAC policies",
		Long: `Apply the clinical schema and seed the RBAC policies.

Columns and indexes that are no longer declared are kept unless
database.migrations.safe_mode is false or --drop is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.Driver == constants.DriverMemory {
				fmt.Fprintln(cmd.OutOrStdout(), "Memory driver configured; nothing to migrate.")
				return nil
			}

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			safe := cfg.Database.Migrations.SafeMode && !drop
			if err := migrateSchema(ctx, cfg, safe); err != nil {
				return err
			}
			if skipSeed {
				slog.Info("policy seeding skipped")
				return nil
			}
			return seedPolicies(ctx, cfg)
		},
	}

	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "Do not seed the default RBAC policies")
	cmd.Flags().BoolVar(&drop, "drop", false, "Drop columns and indexes no longer in the schema")
	return cmd
}

func migrateSchema(ctx context.Context, cfg *config.Config, safe bool) error {
	client, err := database.NewEntClient(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open clinical database: %w", err)
	}
	defer client.Close()

	slog.Info("migrating clinical schema", "database", cfg.Database.DBName, "safe_mode", safe)
	if err := database.MigrateEnt(ctx, client, safe); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// seedPolicies also creates the casbin_rule table, which the ent adapter
// does on first connect.
func seedPolicies(ctx context.Context, cfg *config.Config) error {
	enforcer, cleanup, err := authorize.NewEnforcer(authorize.FromCentralConfig(cfg.Authorization), database.NewDSN(cfg.CasbinDatabase))
	if err != nil {
		return fmt.Errorf("failed to create enforcer: %w", err)
	}
	defer cleanup(context.Background())

	auth, err := authorize.NewAuthorization(enforcer)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}
	slog.Info("seeding RBAC policies", "database", cfg.CasbinDatabase.DBName)
	if err := authorize.SeedDefaultPolicies(ctx, auth); err != nil {
		return fmt.Errorf("failed to seed policies: %w", err)
	}
	return nil
}
