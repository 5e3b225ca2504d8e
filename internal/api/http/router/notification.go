package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/api/http/handler"
	"github.com/Alijeyrad/odonto_backend/pkg/authorize"
)

func (r *Router) registerNotificationRoutes(
	api fiber.Router,
	nh *handler.NotificationHandler,
	adh *handler.AdHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
	requireSelf permFunc,
) {
	n := api.Group("/notifications", authRequired)
	n.Get("/", requireSelf(authorize.ResourceNotification, authorize.ActionRead), nh.List)
	n.Post("/read-all", requireSelf(authorize.ResourceNotification, authorize.ActionUpdate), nh.MarkAllRead)
	n.Post("/broadcast", requirePerm(authorize.ResourceNotification, authorize.ActionCreate), nh.Broadcast)
	n.Post("/devices", requireSelf(authorize.ResourceDevice, authorize.ActionCreate), nh.RegisterDevice)
	n.Delete("/devices/:token", requireSelf(authorize.ResourceDevice, authorize.ActionDelete), nh.RemoveDevice)
	n.Post("/:id/read", requireSelf(authorize.ResourceNotification, authorize.ActionUpdate), nh.MarkRead)

	ads := api.Group("/ads", authRequired)
	ads.Get("/", requirePerm(authorize.ResourceAd, authorize.ActionRead), adh.ListActive)
	ads.Post("/", requirePerm(authorize.ResourceAd, authorize.ActionCreate), adh.Create)
	ads.Delete("/:id", requirePerm(authorize.ResourceAd, authorize.ActionDelete), adh.Delete)
}
