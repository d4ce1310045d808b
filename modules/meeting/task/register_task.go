package task

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/logger"
	"zoom-lms-api/modules/meeting/service"

	"github.com/hibiken/asynq"
)

// RegisterMeetingUsersPayload is the queued request to run the roster
// registration for one meeting.
type RegisterMeetingUsersPayload struct {
	MeetingID string `json:"meeting_id"`
}

// Enqueuer pushes registration work onto the queue. The task id is derived
// from the meeting id so a meeting can have at most one registration in
// flight; a duplicate enqueue is a no-op.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueRegisterMeetingUsers(ctx context.Context, meetingID string) error {
	payload, err := json.Marshal(RegisterMeetingUsersPayload{MeetingID: meetingID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(constants.TaskTypeRegisterMeetingUsers, payload)
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(constants.QueueHigh),
		asynq.TaskID(constants.TaskTypeRegisterMeetingUsers+":"+meetingID),
		asynq.Timeout(constants.RegisterTaskTimeout),
	)
	if stderrors.Is(err, asynq.ErrTaskIDConflict) {
		logger.Info("RegisterTask:Enqueue:AlreadyInFlight", "meeting_id", meetingID)
		return nil
	}
	return err
}

// RegisterHandler runs queued registrations against the meeting service.
type RegisterHandler struct {
	meetingSvc service.MeetingServiceInterface
}

func NewRegisterHandler(meetingSvc service.MeetingServiceInterface) *RegisterHandler {
	return &RegisterHandler{meetingSvc: meetingSvc}
}

func (h *RegisterHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload RegisterMeetingUsersPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logger.Error("RegisterTask:ProcessTask:Payload:Error", "error", err)
		return err
	}

	if appErr := h.meetingSvc.RunRegistrationPipeline(ctx, payload.MeetingID); appErr != nil {
		logger.Error("RegisterTask:ProcessTask:Error", "error", appErr, "meeting_id", payload.MeetingID)
		// Missing mappings never become retryable failures.
		if errors.Is(appErr, errors.ErrNotFound) {
			return nil
		}
		return appErr
	}
	return nil
}
