package service

import (
	"context"
	"crypto/subtle"
	"zoom-lms-api/core/config"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/logger"
	"zoom-lms-api/core/metrics"
	lsservice "zoom-lms-api/modules/livestream/service"
	"zoom-lms-api/modules/meeting/repository"
	meetingservice "zoom-lms-api/modules/meeting/service"
	notifservice "zoom-lms-api/modules/notification/service"
	"zoom-lms-api/modules/webhook/dto"
)

// WebhookService dispatches provider events into the side effects they
// trigger: roster registration, notification emails and the livestream
// orchestration. Only meeting.started is acted on.
type WebhookService struct {
	meetingRepo   repository.MeetingRepositoryInterface
	meetingSvc    meetingservice.MeetingServiceInterface
	livestreamSvc lsservice.LivestreamServiceInterface
	notifSvc      notifservice.NotificationServiceInterface
	metrics       metrics.Collector
}

type WebhookServiceInterface interface {
	Authorize(header string) *errors.AppError
	Dispatch(ctx context.Context, event *dto.ZoomEvent) *errors.AppError
}

func NewWebhookService(meetingRepo repository.MeetingRepositoryInterface, meetingSvc meetingservice.MeetingServiceInterface, livestreamSvc lsservice.LivestreamServiceInterface, notifSvc notifservice.NotificationServiceInterface, collector metrics.Collector) *WebhookService {
	return &WebhookService{
		meetingRepo:   meetingRepo,
		meetingSvc:    meetingSvc,
		livestreamSvc: livestreamSvc,
		notifSvc:      notifSvc,
		metrics:       collector,
	}
}

// Authorize checks the shared-secret header before anything else runs. A
// blank configured secret fails every request rather than opening the
// endpoint up.
func (s *WebhookService) Authorize(header string) *errors.AppError {
	secret := config.Get().Zoom.WebhookSecret
	if secret == "" || subtle.ConstantTimeCompare([]byte(header), []byte(secret)) != 1 {
		s.metrics.RecordWebhookEvent("unauthorized")
		return errors.NewAppError(errors.ErrUnauthorizedCaller, "invalid webhook credential", nil)
	}
	return nil
}

// Dispatch validates the envelope and runs the meeting.started side
// effects. Anything else, including events for meetings this service has no
// mapping for, is refused so it shows up in the provider's delivery log.
func (s *WebhookService) Dispatch(ctx context.Context, event *dto.ZoomEvent) *errors.AppError {
	if event.Event == nil || event.Payload == nil || event.Payload.Object == nil || event.Payload.Object.ID == nil {
		s.metrics.RecordWebhookEvent("malformed")
		return errors.NewAppError(errors.ErrBadRequest, "malformed event payload", nil)
	}
	if *event.Event != "meeting.started" {
		logger.Error("WebhookService:Dispatch:UnhandledEvent", "event", *event.Event)
		s.metrics.RecordWebhookEvent("ignored")
		return errors.NewAppError(errors.ErrBadRequest, "event is not meeting.started", nil)
	}

	meetingID := event.Payload.Object.ID.String()
	mapping, err := s.meetingRepo.GetMapping(ctx, meetingID)
	if err != nil {
		s.metrics.RecordWebhookEvent("error")
		return errors.NewAppError(errors.ErrInternalServer, "failed to load meeting mapping", err)
	}
	if mapping == nil || !mapping.LocationBound() {
		logger.Error("WebhookService:Dispatch:NoMapping", "meeting_id", meetingID)
		s.metrics.RecordWebhookEvent("unmapped")
		return errors.NewAppError(errors.ErrBadRequest, "meeting is not mapped to a course unit", nil)
	}

	if mapping.RestrictedAccess {
		if appErr := s.meetingSvc.EnqueueRegistration(ctx, meetingID); appErr != nil {
			s.metrics.RecordWebhookEvent("error")
			return appErr
		}
	} else if mapping.EmailNotification {
		if appErr := s.notifSvc.NotifyMeetingStarted(ctx, mapping); appErr != nil {
			s.metrics.RecordWebhookEvent("error")
			return appErr
		}
	}

	if mapping.LivestreamEnabled {
		if _, appErr := s.livestreamSvc.StartLiveBroadcast(ctx, meetingID); appErr != nil {
			logger.Error("WebhookService:Dispatch:Livestream:Error",
				"error", appErr, "meeting_id", meetingID)
			s.metrics.RecordWebhookEvent("error")
			return appErr
		}
	}

	s.metrics.RecordWebhookEvent("handled")
	return nil
}
