package http

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/internal/api/http"
	"github.com/Alijeyrad/odonto_backend/pkg/logs"
)

func NewStartCommand() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}

			cfg, err := config.ReadConfig(cfgPath)
			if err != nil {
				return err
			}

			slog.SetDefault(logs.New(cfg))
			defer logs.Shutdown()

			http.Start(cfg, shutdownTimeout)
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Maximum time to wait for graceful shutdown")

	return cmd
}
