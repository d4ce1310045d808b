package task

import (
	"context"
	"encoding/json"
	"fmt"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/logger"
	"zoom-lms-api/core/utils"

	"github.com/hibiken/asynq"
)

// MeetingStartEmailPayload is one queued notification email. Emails are
// queued per student so one bad address never blocks the rest of the
// roster.
type MeetingStartEmailPayload struct {
	Email       string `json:"email"`
	CourseName  string `json:"course_name"`
	RedirectURL string `json:"redirect_url"`
}

// Enqueuer pushes notification emails onto the low-priority queue.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueMeetingStartEmail(ctx context.Context, payload *MeetingStartEmailPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	task := asynq.NewTask(constants.TaskTypeMeetingStartEmail, raw)
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(constants.QueueLow),
		asynq.MaxRetry(constants.EmailMaxRetries),
	)
	return err
}

// EmailSender abstracts the SMTP delivery so tests can capture sends.
type EmailSender func(to string, subject string, htmlBody string) error

// EmailHandler delivers queued notification emails.
type EmailHandler struct {
	platformName string
	send         EmailSender
}

func NewEmailHandler(platformName string, send EmailSender) *EmailHandler {
	if send == nil {
		send = utils.SendHTMLEmail
	}
	return &EmailHandler{platformName: platformName, send: send}
}

func (h *EmailHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload MeetingStartEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logger.Error("EmailTask:ProcessTask:Payload:Error", "error", err)
		return err
	}

	body, err := utils.RenderMeetingStartEmail(utils.MeetingStartEmailData{
		CourseName:   payload.CourseName,
		PlatformName: h.platformName,
		RedirectURL:  payload.RedirectURL,
	})
	if err != nil {
		logger.Error("EmailTask:ProcessTask:Render:Error", "error", err)
		return err
	}
	subject := fmt.Sprintf("%s - Sesión de Zoom iniciada en %s", h.platformName, payload.CourseName)

	if err := h.send(payload.Email, subject, body); err != nil {
		logger.Error("EmailTask:ProcessTask:Send:Error", "error", err, "email", payload.Email)
		return err
	}
	return nil
}
