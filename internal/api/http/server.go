package http

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/internal/api/http/handler"
	"github.com/Alijeyrad/odonto_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/odonto_backend/internal/api/http/router"
	"github.com/Alijeyrad/odonto_backend/pkg/constants"
	"github.com/Alijeyrad/odonto_backend/pkg/observability"
)

// Module provides the HTTP Server to the fx graph.
var Module = fx.Module("http", fx.Provide(NewServer))

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Redis     *redis.Client `optional:"true"`
	Router    *router.Router
	OTel      *observability.Provider `optional:"true"`
}

func NewServer(p Params) *fiber.App {
	app := NewApp(p.Cfg, p.Redis, p.OTel != nil)

	p.Router.Register(app)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", p.Cfg.Server.Port)
			go func() {
				if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
					slog.Error("HTTP server error", "error", err)
				}
			}()
			slog.Info("HTTP server listening", "addr", addr, "environment", p.Cfg.Server.Environment)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})

	return app
}

// NewApp builds the Fiber app with the global middleware chain and no routes.
func NewApp(cfg *config.Config, rdb *redis.Client, instrument bool) *fiber.App {
	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	app := fiber.New(fiber.Config{
		AppName:      constants.ServiceName,
		ErrorHandler: handler.ErrorHandler(!cfg.IsProduction()),
		// Multipart overhead on top of the largest accepted file.
		BodyLimit:    constants.MaxUploadBytes + 1<<20,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	if instrument {
		app.Use(observability.FiberMiddleware(handler.StatusOf))
	}

	configureGlobalMiddleware(app, cfg, rdb)
	return app
}

func configureGlobalMiddleware(app *fiber.App, cfg *config.Config, rdb *redis.Client) {
	app.Use(middleware.RequestID())
	app.Use(recoverer.New())

	if cfg.IsProduction() {
		h := cfg.Server.Headers
		app.Use(helmet.New(helmet.Config{
			XSSProtection:             h.XSSProtection,
			ContentTypeNosniff:        h.ContentTypeNosniff,
			XFrameOptions:             h.XFrameOptions,
			ReferrerPolicy:            h.ReferrerPolicy,
			CrossOriginEmbedderPolicy: h.CrossOriginEmbedderPolicy,
			CrossOriginOpenerPolicy:   h.CrossOriginOpenerPolicy,
			CrossOriginResourcePolicy: h.CrossOriginResourcePolicy,
			OriginAgentCluster:        h.OriginAgentCluster,
			XDNSPrefetchControl:       h.XDNSPrefetchControl,
			XDownloadOptions:          h.XDownloadOptions,
			XPermittedCrossDomain:     h.XPermittedCrossDomain,
		}))
	}
	if cfg.Server.CORS.Enabled {
		app.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.Server.CORS.AllowOrigins,
			AllowMethods:  cfg.Server.CORS.AllowMethods,
			AllowHeaders:  cfg.Server.CORS.AllowHeaders,
			ExposeHeaders: cfg.Server.CORS.ExposeHeaders,
		}))
	}
	if cfg.Server.RateLimit.RequestsPerMinute > 0 {
		app.Use(middleware.NewLimiter(rdb, cfg.Server.RateLimit.RequestsPerMinute))
	}

	app.Use(logger.New(logger.Config{
		Format: "${ip} - [${time}] [req_id=${respHeader:X-Request-Id}] ${method} ${url} ${status} ${latency}\n",
	}))
}
