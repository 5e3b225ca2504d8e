package migrate

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
)

type Option = schema.MigrateOption

var (
	// WithDropColumn sets the drop column option to the migration.
	WithDropColumn = schema.WithDropColumn
	// WithDropIndex sets the drop index option to the migration.
	WithDropIndex = schema.WithDropIndex
	// WithForeignKeys enables creating foreign-key in schema DDL.
	WithForeignKeys = schema.WithForeignKeys
)

// Create runs the schema migration on drv.
func Create(ctx context.Context, drv dialect.Driver, opts ...Option) error {
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return m.Create(ctx, Tables...)
}
