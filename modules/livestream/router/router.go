package router

import (
	"zoom-lms-api/core/middleware"
	"zoom-lms-api/modules/livestream/controller"

	"github.com/labstack/echo/v4"
)

// LivestreamRouter handles broadcast routes
type LivestreamRouter struct {
	LivestreamController *controller.LivestreamController
}

// NewLivestreamRouter creates a new router
func NewLivestreamRouter(livestreamController *controller.LivestreamController) *LivestreamRouter {
	return &LivestreamRouter{
		LivestreamController: livestreamController,
	}
}

// Setup registers broadcast routes
func (r *LivestreamRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")
	livestreamRoutes := privateRoutes.Group("/livestreams", mw.AuthMiddleware())

	livestreamRoutes.POST("", r.LivestreamController.CreateBroadcast)
	livestreamRoutes.PUT("", r.LivestreamController.UpdateBroadcast)
	livestreamRoutes.POST("/meetings/:id/start", r.LivestreamController.StartMeetingBroadcast)
}
