package system

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/odonto_backend/pkg/constants"
	"github.com/Alijeyrad/odonto_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the clinical and policy databases if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.Driver == constants.DriverMemory {
				fmt.Fprintln(cmd.OutOrStdout(), "Memory driver configured; no databases to create.")
				return nil
			}
			if err := database.InitializeDatabases(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("failed to initialize databases: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Databases initialized.")
			return nil
		},
	}
}
