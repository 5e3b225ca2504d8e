package system

import (
	"github.com/spf13/cobra"

	"github.com/Alijeyrad/odonto_backend/pkg/logs"
)

func NewSystemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Maintenance and tooling commands",
		// loadConfig may have started Loki clients that need a flush.
		PersistentPostRun: func(*cobra.Command, []string) { logs.Shutdown() },
	}

	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewGenDocsCommand())
	cmd.AddCommand(NewInitCommand())
	cmd.AddCommand(NewCreateAdminCommand())
	cmd.AddCommand(NewGenKeysCommand())

	return cmd
}
