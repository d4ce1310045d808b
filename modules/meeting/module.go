package meeting

import (
	"zoom-lms-api/core/database"
	"zoom-lms-api/core/middleware"
	authservice "zoom-lms-api/modules/auth/service"
	"zoom-lms-api/modules/meeting/client"
	"zoom-lms-api/modules/meeting/controller"
	"zoom-lms-api/modules/meeting/repository"
	"zoom-lms-api/modules/meeting/router"
	"zoom-lms-api/modules/meeting/service"
	"zoom-lms-api/modules/meeting/task"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

// Module exposes the meeting service and repository to the other modules.
type Module struct {
	Service service.MeetingServiceInterface
	Repo    repository.MeetingRepositoryInterface
}

// Init initializes the meeting module and registers routes
func Init(e *echo.Echo, db database.IDatabase, zoomClient *client.ZoomClient, authSvc authservice.AuthServiceInterface, asynqClient *asynq.Client, notifier service.MeetingStartNotifier, mw *middleware.Middleware) *Module {
	repo := repository.NewMeetingRepository(db)
	enqueuer := task.NewEnqueuer(asynqClient)
	svc := service.NewMeetingService(repo, zoomClient, authSvc, enqueuer, notifier)
	ctrl := controller.NewMeetingController(svc)
	rtr := router.NewMeetingRouter(ctrl)

	rtr.Setup(e, mw)

	return &Module{Service: svc, Repo: repo}
}
