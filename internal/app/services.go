package app

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/internal/service/ad"
	"github.com/Alijeyrad/odonto_backend/internal/service/assignment"
	"github.com/Alijeyrad/odonto_backend/internal/service/audit"
	"github.com/Alijeyrad/odonto_backend/internal/service/auth"
	"github.com/Alijeyrad/odonto_backend/internal/service/catalog"
	"github.com/Alijeyrad/odonto_backend/internal/service/faculty"
	"github.com/Alijeyrad/odonto_backend/internal/service/notification"
	"github.com/Alijeyrad/odonto_backend/internal/service/odontogram"
	"github.com/Alijeyrad/odonto_backend/internal/service/patient"
	"github.com/Alijeyrad/odonto_backend/internal/service/photo"
	"github.com/Alijeyrad/odonto_backend/internal/service/procedure"
	"github.com/Alijeyrad/odonto_backend/internal/service/user"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		audit.NewRecorder,
		audit.New,
		auth.New,
		user.New,
		faculty.New,
		catalog.New,
		patient.New,
		odontogram.New,
		procedure.New,
		assignment.New,
		photo.New,
		notification.New,
		ad.New,
	),
	fx.Invoke(BootstrapAdmin),
)

// BootstrapAdmin creates the configured first admin on start.
func BootstrapAdmin(lc fx.Lifecycle, cfg *config.Config, users user.Service) {
	if cfg.Bootstrap.AdminEmail == "" {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			created, err := users.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
			if err != nil {
				return err
			}
			if !created {
				slog.Debug("bootstrap admin already exists", "email", cfg.Bootstrap.AdminEmail)
			}
			return nil
		},
	})
}
