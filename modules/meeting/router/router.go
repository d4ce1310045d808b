package router

import (
	"zoom-lms-api/core/middleware"
	"zoom-lms-api/modules/meeting/controller"

	"github.com/labstack/echo/v4"
)

// MeetingRouter handles meeting routes
type MeetingRouter struct {
	MeetingController *controller.MeetingController
}

// NewMeetingRouter creates a new router
func NewMeetingRouter(meetingController *controller.MeetingController) *MeetingRouter {
	return &MeetingRouter{
		MeetingController: meetingController,
	}
}

// Setup registers meeting routes
func (r *MeetingRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// Joining a public meeting requires no credential at all.
	v1.GET("/public/meetings/:id/join", r.MeetingController.StartPublicMeeting)

	privateRoutes := v1.Group("/private")
	meetingRoutes := privateRoutes.Group("/meetings", mw.AuthMiddleware())

	meetingRoutes.POST("", r.MeetingController.ScheduleMeeting)
	meetingRoutes.PUT("/:id", r.MeetingController.UpdateScheduledMeeting)
	meetingRoutes.GET("/start", r.MeetingController.StartMeeting)
	meetingRoutes.GET("/:id/join-url", r.MeetingController.StudentJoinURL)
}
