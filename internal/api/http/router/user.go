package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/api/http/handler"
	"github.com/Alijeyrad/odonto_backend/pkg/authorize"
)

func (r *Router) registerUserRoutes(
	api fiber.Router,
	uh *handler.UserHandler,
	fh *handler.FacultyHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	users := api.Group("/users", authRequired)
	users.Get("/", requirePerm(authorize.ResourceUser, authorize.ActionList), uh.List)
	users.Post("/", requirePerm(authorize.ResourceUser, authorize.ActionCreate), uh.Create)
	// Reading one's own account needs no sys permission; the service
	// decides who else may see it.
	users.Get("/:id", uh.Get)
	users.Patch("/:id", requirePerm(authorize.ResourceUser, authorize.ActionUpdate), uh.Update)
	users.Post("/:id/reset-password", requirePerm(authorize.ResourceUser, authorize.ActionUpdate), uh.ResetPassword)

	faculties := api.Group("/faculties", authRequired)
	faculties.Get("/", requirePerm(authorize.ResourceFaculty, authorize.ActionRead), fh.List)
	faculties.Post("/", requirePerm(authorize.ResourceFaculty, authorize.ActionCreate), fh.Create)
	faculties.Get("/:id", requirePerm(authorize.ResourceFaculty, authorize.ActionRead), fh.Get)
}
