package system

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/pkg/logs"
)

// loadConfig reads the file named by the root --config flag and installs
// the configured logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.ReadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	slog.SetDefault(logs.New(cfg))
	return cfg, nil
}
