package system

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Alijeyrad/odonto_backend/internal/app"
	"github.com/Alijeyrad/odonto_backend/internal/service/user"
)

// NewCreateAdminCommand creates the first admin account. It does nothing when
// a user with the email already exists.
func NewCreateAdminCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var svc user.Service
			fxApp := fx.New(
				fx.Supply(cfg),
				app.InfraModule,
				app.ServiceModule,
				fx.Populate(&svc),
				fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
			)
			if err := fxApp.Err(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := fxApp.Start(ctx); err != nil {
				return err
			}
			defer fxApp.Stop(context.Background())

			createdNow, err := svc.EnsureAdmin(ctx, email, password)
			if err != nil {
				return err
			}
			if createdNow {
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created.\n", email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "User %s already exists; nothing to do.\n", email)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (at least 12 characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
