package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rackbook-api/internal/middleware"
)

// Routes bundles the API handlers mounted under the API prefix.
type Routes struct {
	Bookings *BookingHandler
	Changes  *ChangeRequestHandler
	Locks    *LockHandler
	Worklist *WorklistHandler
	Matrix   *MatrixHandler
	Kiosk    *KioskHandler
	Inbox    *NotificationHandler
}

// Register mounts every API route. auth must populate middleware.ContextUserKey.
// The kiosk stream authenticates with its URL token and is mounted outside auth.
func (rt Routes) Register(api gin.IRouter, auth gin.HandlerFunc) {
	api.GET("/kiosk/stream/:token", rt.Kiosk.Stream)

	secured := api.Group("", auth)
	secured.POST("/requests", rt.Bookings.CreateRequest)
	secured.POST("/requests/:id/instances", rt.Bookings.Expand)
	secured.GET("/requests/:id/instances", rt.Bookings.ListInstances)
	secured.POST("/availability/check", rt.Bookings.CheckAvailability)
	secured.PATCH("/instances/:id", rt.Bookings.EditInstance)

	secured.POST("/changes", rt.Changes.Submit)
	secured.GET("/changes/queue", middleware.AdminOnly(), rt.Changes.Queue)
	secured.POST("/changes/:id/decide", middleware.AdminOnly(), rt.Changes.Decide)

	secured.GET("/matrix/slots", rt.Matrix.Slots)
	secured.GET("/inventory/pools", rt.Matrix.Pools)
	secured.GET("/inventory/resources", rt.Matrix.Resources)
	secured.GET("/inventory/areas", rt.Matrix.Areas)

	secured.GET("/kiosk/state", rt.Kiosk.State)
	secured.GET("/notifications", rt.Inbox.Inbox)

	staff := secured.Group("", middleware.AdminOnly())
	staff.GET("/bookings/worklist", rt.Worklist.List)
	staff.GET("/bookings/worklist/export", rt.Worklist.Export)
	staff.POST("/bookings/mark-added", rt.Worklist.MarkAdded)
	staff.POST("/sync/:instanceId/mark-added", rt.Worklist.MarkOneAdded)

	admin := secured.Group("/admin", middleware.AdminOnly())
	admin.GET("/requests", rt.Bookings.AdminBuckets)
	admin.POST("/instances/:id/approve", rt.Bookings.Approve)
	admin.POST("/locks/run", rt.Locks.Run)
	admin.POST("/kiosk/tokens", rt.Kiosk.IssueToken)
}
