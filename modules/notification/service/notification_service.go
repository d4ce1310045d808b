package service

import (
	"context"
	"fmt"
	"zoom-lms-api/core/config"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/logger"
	meetingentity "zoom-lms-api/modules/meeting/entity"
	"zoom-lms-api/modules/meeting/repository"
	"zoom-lms-api/modules/notification/task"
)

// MeetingStartEnqueuer queues one notification email. Implemented by the
// task package.
type MeetingStartEnqueuer interface {
	EnqueueMeetingStartEmail(ctx context.Context, payload *task.MeetingStartEmailPayload) error
}

// NotificationService fans a meeting-start announcement out to the course
// roster, one queued email per student.
type NotificationService struct {
	meetingRepo repository.MeetingRepositoryInterface
	enqueuer    MeetingStartEnqueuer
}

type NotificationServiceInterface interface {
	NotifyMeetingStarted(ctx context.Context, mapping *meetingentity.MeetingMapping) *errors.AppError
	NotifyStudentMeetingStart(ctx context.Context, mapping *meetingentity.MeetingMapping, email string) error
}

func NewNotificationService(meetingRepo repository.MeetingRepositoryInterface, enqueuer MeetingStartEnqueuer) *NotificationService {
	return &NotificationService{meetingRepo: meetingRepo, enqueuer: enqueuer}
}

// NotifyMeetingStarted queues a start email for every enrolled student. A
// failed enqueue is logged and the rest of the roster still goes out.
func (s *NotificationService) NotifyMeetingStarted(ctx context.Context, mapping *meetingentity.MeetingMapping) *errors.AppError {
	if !mapping.LocationBound() {
		return errors.NewAppError(errors.ErrBadRequest, "meeting has no course location", nil)
	}

	students, err := s.meetingRepo.EnrolledStudents(ctx, mapping.CourseKey, mapping.UserID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load roster", err)
	}

	queued := 0
	for _, student := range students {
		if err := s.NotifyStudentMeetingStart(ctx, mapping, student.Email); err != nil {
			logger.Error("NotificationService:NotifyMeetingStarted:Enqueue:Error",
				"error", err, "meeting_id", mapping.MeetingID, "email", student.Email)
			continue
		}
		queued++
	}
	logger.Info("NotificationService:NotifyMeetingStarted:Queued",
		"meeting_id", mapping.MeetingID, "queued", queued, "roster_size", len(students))
	return nil
}

// NotifyStudentMeetingStart queues the start email for a single student.
// Used by the registration pipeline, which emails each student as their
// join URL lands.
func (s *NotificationService) NotifyStudentMeetingStart(ctx context.Context, mapping *meetingentity.MeetingMapping, email string) error {
	cfg := config.Get()
	payload := &task.MeetingStartEmailPayload{
		Email:       email,
		CourseName:  mapping.Title,
		RedirectURL: fmt.Sprintf("%s/courses/%s/jump_to/%s", cfg.LMS.BaseURL, mapping.CourseKey, mapping.UsageKey),
	}
	return s.enqueuer.EnqueueMeetingStartEmail(ctx, payload)
}
