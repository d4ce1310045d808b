package livestream

import (
	"zoom-lms-api/core/middleware"
	authservice "zoom-lms-api/modules/auth/service"
	"zoom-lms-api/modules/livestream/client"
	"zoom-lms-api/modules/livestream/controller"
	"zoom-lms-api/modules/livestream/router"
	"zoom-lms-api/modules/livestream/service"
	mclient "zoom-lms-api/modules/meeting/client"
	"zoom-lms-api/modules/meeting/repository"

	"github.com/labstack/echo/v4"
)

// Module exposes the livestream orchestrator to the webhook dispatcher.
type Module struct {
	Service service.LivestreamServiceInterface
}

// Init initializes the livestream module and registers routes
func Init(e *echo.Echo, meetingRepo repository.MeetingRepositoryInterface, authSvc authservice.AuthServiceInterface, ytClient *client.YouTubeClient, zoomClient *mclient.ZoomClient, mw *middleware.Middleware) *Module {
	svc := service.NewLivestreamService(meetingRepo, authSvc, ytClient, zoomClient)
	ctrl := controller.NewLivestreamController(svc)
	rtr := router.NewLivestreamRouter(ctrl)

	rtr.Setup(e, mw)

	return &Module{Service: svc}
}
