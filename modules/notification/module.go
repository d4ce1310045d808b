package notification

import (
	"zoom-lms-api/core/database"
	"zoom-lms-api/modules/meeting/repository"
	"zoom-lms-api/modules/notification/service"
	"zoom-lms-api/modules/notification/task"

	"github.com/hibiken/asynq"
)

// Module exposes the notification service to the webhook dispatcher and the
// registration pipeline. This module registers no routes; it only produces
// queue work.
type Module struct {
	Service service.NotificationServiceInterface
}

// Init initializes the notification module
func Init(db database.IDatabase, asynqClient *asynq.Client) *Module {
	meetingRepo := repository.NewMeetingRepository(db)
	enqueuer := task.NewEnqueuer(asynqClient)
	svc := service.NewNotificationService(meetingRepo, enqueuer)

	return &Module{Service: svc}
}
