package webhook

import (
	"zoom-lms-api/core/metrics"
	lsservice "zoom-lms-api/modules/livestream/service"
	"zoom-lms-api/modules/meeting/repository"
	meetingservice "zoom-lms-api/modules/meeting/service"
	notifservice "zoom-lms-api/modules/notification/service"
	"zoom-lms-api/modules/webhook/controller"
	"zoom-lms-api/modules/webhook/router"
	"zoom-lms-api/modules/webhook/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the webhook module and registers routes
func Init(e *echo.Echo, meetingRepo repository.MeetingRepositoryInterface, meetingSvc meetingservice.MeetingServiceInterface, livestreamSvc lsservice.LivestreamServiceInterface, notifSvc notifservice.NotificationServiceInterface, collector metrics.Collector) {
	svc := service.NewWebhookService(meetingRepo, meetingSvc, livestreamSvc, notifSvc, collector)
	ctrl := controller.NewWebhookController(svc)
	rtr := router.NewWebhookRouter(ctrl)

	rtr.Setup(e)
}
