package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/internal/api/http/handler"
	"github.com/Alijeyrad/odonto_backend/internal/api/http/middleware"
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
	"github.com/Alijeyrad/odonto_backend/pkg/authorize"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Auth            authorize.IAuthorization
	AuthSvc         auth.Service
	UserSvc         user.Service
	FacultySvc      faculty.Service
	CatalogSvc      catalog.Service
	PatientSvc      patient.Service
	OdontogramSvc   odontogram.Service
	ProcedureSvc    procedure.Service
	AssignmentSvc   assignment.Service
	PhotoSvc        photo.Service
	NotificationSvc notification.Service
	AdSvc           ad.Service
	AuditSvc        audit.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

// permFunc builds a permission check for one resource and action.
type permFunc func(authorize.Resource, authorize.Action) fiber.Handler

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.AuthSvc)
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}
	requireSelf := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequireSelfPermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc)
	userH := handler.NewUserHandler(r.p.UserSvc)
	facultyH := handler.NewFacultyHandler(r.p.FacultySvc)
	catalogH := handler.NewCatalogHandler(r.p.CatalogSvc)
	patientH := handler.NewPatientHandler(r.p.PatientSvc)
	odontogramH := handler.NewOdontogramHandler(r.p.OdontogramSvc)
	procedureH := handler.NewProcedureHandler(r.p.ProcedureSvc)
	assignmentH := handler.NewAssignmentHandler(r.p.AssignmentSvc)
	photoH := handler.NewPhotoHandler(r.p.PhotoSvc)
	notificationH := handler.NewNotificationHandler(r.p.NotificationSvc)
	adH := handler.NewAdHandler(r.p.AdSvc)
	auditH := handler.NewAuditHandler(r.p.AuditSvc)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired, requireSelf)
	r.registerUserRoutes(api, userH, facultyH, authRequired, requirePerm)
	r.registerCatalogRoutes(api, catalogH, authRequired, requirePerm)
	r.registerPatientRoutes(api, patientH, odontogramH, procedureH, authRequired, requirePerm)
	r.registerClinicalRoutes(api, odontogramH, procedureH, assignmentH, photoH, authRequired, requirePerm)
	r.registerNotificationRoutes(api, notificationH, adH, authRequired, requirePerm, requireSelf)
	r.registerAuditRoutes(api, auditH, authRequired, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return !r.p.Cfg.Authorization.HealthCheckEnabled || authorize.IsPolicyHealthy()
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
