package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
	"zoom-lms-api/core/config"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/logger"
	"zoom-lms-api/core/utils"
	authservice "zoom-lms-api/modules/auth/service"
	"zoom-lms-api/modules/meeting/client"
	"zoom-lms-api/modules/meeting/dto"
	"zoom-lms-api/modules/meeting/entity"
	"zoom-lms-api/modules/meeting/repository"

	"github.com/google/uuid"
)

// RegistrationEnqueuer hands the roster registration of a meeting off to
// the background queue. Implemented by the task package.
type RegistrationEnqueuer interface {
	EnqueueRegisterMeetingUsers(ctx context.Context, meetingID string) error
}

// MeetingStartNotifier queues the start email for one student. Implemented
// by the notification service.
type MeetingStartNotifier interface {
	NotifyStudentMeetingStart(ctx context.Context, mapping *entity.MeetingMapping, email string) error
}

// MeetingService owns the meeting lifecycle: scheduling, the host-start
// flow that binds a meeting to its course unit, and the student join URL
// lookups.
type MeetingService struct {
	repo       repository.MeetingRepositoryInterface
	zoomClient *client.ZoomClient
	authSvc    authservice.AuthServiceInterface
	enqueuer   RegistrationEnqueuer
	notifier   MeetingStartNotifier
}

// MeetingServiceInterface defines the service contract
type MeetingServiceInterface interface {
	ScheduleMeeting(ctx context.Context, hostID uuid.UUID, req *dto.ScheduleMeetingRequest) (*dto.ScheduleMeetingResponse, *errors.AppError)
	UpdateScheduledMeeting(ctx context.Context, hostID uuid.UUID, meetingID string, req *dto.ScheduleMeetingRequest) *errors.AppError
	StartMeeting(ctx context.Context, hostID uuid.UUID, rawData string, code string, redirectURI string) (*dto.StartMeetingResponse, *errors.AppError)
	StartPublicMeeting(ctx context.Context, meetingID string) (string, *errors.AppError)
	StudentJoinURL(ctx context.Context, meetingID string, email string) (*dto.JoinURLResponse, *errors.AppError)
	EnqueueRegistration(ctx context.Context, meetingID string) *errors.AppError
	RunRegistrationPipeline(ctx context.Context, meetingID string) *errors.AppError
}

func NewMeetingService(repo repository.MeetingRepositoryInterface, zoomClient *client.ZoomClient, authSvc authservice.AuthServiceInterface, enqueuer RegistrationEnqueuer, notifier MeetingStartNotifier) *MeetingService {
	return &MeetingService{
		repo:       repo,
		zoomClient: zoomClient,
		authSvc:    authSvc,
		enqueuer:   enqueuer,
		notifier:   notifier,
	}
}

// ScheduleMeeting creates the provider meeting and records its ownership.
// The course location stays unbound until the host actually starts it.
func (s *MeetingService) ScheduleMeeting(ctx context.Context, hostID uuid.UUID, req *dto.ScheduleMeetingRequest) (*dto.ScheduleMeetingResponse, *errors.AppError) {
	accessToken, appErr := s.authSvc.ZoomAccessToken(ctx, hostID)
	if appErr != nil {
		return nil, appErr
	}

	body := s.buildMeetingRequest(req)
	created, status, appErr := s.zoomClient.CreateMeeting(ctx, accessToken, body)
	if appErr != nil {
		logger.Error("MeetingService:ScheduleMeeting:Create:Error",
			"error", appErr, "status", status, "user_id", hostID)
		return nil, appErr
	}

	mapping := &entity.MeetingMapping{
		MeetingID:         created.ID.String(),
		UserID:            hostID,
		Title:             req.Title,
		RestrictedAccess:  req.RestrictedAccess,
		EmailNotification: req.EmailNotification,
	}
	if err := s.repo.SaveMapping(ctx, mapping); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store meeting mapping", err)
	}

	return &dto.ScheduleMeetingResponse{
		MeetingID: created.ID.String(),
		StartURL:  created.StartURL,
		JoinURL:   created.JoinURL,
	}, nil
}

// UpdateScheduledMeeting reschedules a meeting the caller owns.
func (s *MeetingService) UpdateScheduledMeeting(ctx context.Context, hostID uuid.UUID, meetingID string, req *dto.ScheduleMeetingRequest) *errors.AppError {
	mapping, appErr := s.ownedMapping(ctx, hostID, meetingID)
	if appErr != nil {
		return appErr
	}

	accessToken, appErr := s.authSvc.ZoomAccessToken(ctx, hostID)
	if appErr != nil {
		return appErr
	}

	body := s.buildMeetingRequest(req)
	if status, appErr := s.zoomClient.UpdateMeeting(ctx, accessToken, meetingID, body); appErr != nil {
		logger.Error("MeetingService:UpdateScheduledMeeting:Update:Error",
			"error", appErr, "status", status, "meeting_id", meetingID)
		return appErr
	}

	mapping.Title = req.Title
	mapping.RestrictedAccess = req.RestrictedAccess
	mapping.EmailNotification = req.EmailNotification
	if err := s.repo.SaveMapping(ctx, mapping); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to store meeting mapping", err)
	}
	return nil
}

// buildMeetingRequest maps a schedule request onto the provider wire
// format. Restricted meetings require manual approval and carry no
// password; public ones get a random one.
func (s *MeetingService) buildMeetingRequest(req *dto.ScheduleMeetingRequest) *client.MeetingRequest {
	cfg := config.Get()

	startTime := req.StartTime
	if startTime.Before(time.Now()) {
		startTime = time.Now()
	}

	body := &client.MeetingRequest{
		Topic:     req.Title,
		Type:      2,
		StartTime: startTime.UTC().Format("2006-01-02T15:04:05Z"),
		Duration:  req.Duration,
		Timezone:  cfg.Zoom.MeetingTimezone,
		Agenda:    req.Agenda,
	}
	if req.RestrictedAccess {
		approval := 1
		emailOff := false
		empty := ""
		body.Password = &empty
		body.Settings = client.MeetingSettings{
			ApprovalType:                 &approval,
			RegistrantsEmailNotification: &emailOff,
		}
	} else {
		password := utils.GenerateMeetingPassword()
		body.Password = &password
	}
	return body
}

// StartMeeting finishes the host's OAuth round trip: it validates the
// base64 payload, binds the meeting to its course unit, kicks off the
// roster registration for restricted meetings, and hands back the host
// start URL.
func (s *MeetingService) StartMeeting(ctx context.Context, hostID uuid.UUID, rawData string, code string, redirectURI string) (*dto.StartMeetingResponse, *errors.AppError) {
	data, appErr := decodeStartData(rawData)
	if appErr != nil {
		return nil, appErr
	}

	mapping, err := s.repo.GetMapping(ctx, *data.MeetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load meeting mapping", err)
	}
	if mapping == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "unknown meeting", nil)
	}
	if !mapping.OwnedBy(hostID) {
		return nil, errors.NewAppError(errors.ErrOwnershipMismatch, "meeting belongs to another host", nil)
	}

	if _, appErr := s.authSvc.ExchangeZoomCode(ctx, hostID, code, redirectURI); appErr != nil {
		return nil, appErr
	}

	courseKey, keyErr := utils.CourseKeyFromUsageKey(*data.UsageKey)
	if keyErr != nil {
		return nil, errors.NewAppError(errors.ErrBadRequest, "invalid usage key", keyErr)
	}
	// The payload is the source of truth: restarting from another unit
	// rebinds the location and flags.
	mapping.UsageKey = *data.UsageKey
	mapping.CourseKey = courseKey
	mapping.RestrictedAccess = *data.RestrictedAccess
	mapping.EmailNotification = *data.EmailNotification
	if data.LivestreamEnabled != nil {
		mapping.LivestreamEnabled = *data.LivestreamEnabled
	}
	if err := s.repo.SaveMapping(ctx, mapping); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store meeting mapping", err)
	}

	if mapping.RestrictedAccess {
		if appErr := s.EnqueueRegistration(ctx, mapping.MeetingID); appErr != nil {
			return nil, appErr
		}
	}

	cfg := config.Get()
	return &dto.StartMeetingResponse{
		StartURL: fmt.Sprintf("%ss/%s", cfg.Zoom.Domain, mapping.MeetingID),
	}, nil
}

// EnqueueRegistration hands the roster registration off to the queue. The
// queue deduplicates by meeting id, so repeated calls while a run is in
// flight are no-ops.
func (s *MeetingService) EnqueueRegistration(ctx context.Context, meetingID string) *errors.AppError {
	if err := s.enqueuer.EnqueueRegisterMeetingUsers(ctx, meetingID); err != nil {
		logger.Error("MeetingService:EnqueueRegistration:Error", "error", err, "meeting_id", meetingID)
		return errors.NewAppError(errors.ErrInternalServer, "failed to enqueue registration", err)
	}
	return nil
}

// decodeStartData unpacks the base64 JSON payload, refusing anything with a
// missing or malformed field.
func decodeStartData(rawData string) (*dto.StartMeetingData, *errors.AppError) {
	decoded, err := base64.StdEncoding.DecodeString(rawData)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrBadRequest, "data is not valid base64", err)
	}
	var data dto.StartMeetingData
	if err := json.Unmarshal(decoded, &data); err != nil {
		return nil, errors.NewAppError(errors.ErrBadRequest, "data is not valid json", err)
	}
	if data.MeetingID == nil || data.UsageKey == nil || data.RestrictedAccess == nil || data.EmailNotification == nil {
		return nil, errors.NewAppError(errors.ErrBadRequest, "data is missing required fields", nil)
	}
	if !utils.IsValidUsageKey(*data.UsageKey) {
		return nil, errors.NewAppError(errors.ErrBadRequest, "invalid usage key", nil)
	}
	return &data, nil
}

// StartPublicMeeting resolves the join redirect for a public meeting. No
// credential is involved; restricted meetings are refused.
func (s *MeetingService) StartPublicMeeting(ctx context.Context, meetingID string) (string, *errors.AppError) {
	mapping, err := s.repo.GetMapping(ctx, meetingID)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to load meeting mapping", err)
	}
	if mapping == nil {
		return "", errors.NewAppError(errors.ErrNotFound, "unknown meeting", nil)
	}
	if mapping.RestrictedAccess {
		return "", errors.NewAppError(errors.ErrForbidden, "meeting requires registration", nil)
	}
	cfg := config.Get()
	return fmt.Sprintf("%sj/%s", cfg.Zoom.Domain, meetingID), nil
}

// StudentJoinURL looks up the join URL registered for a student. The
// distinction between an unknown meeting and one whose registration has not
// run yet matters to the frontend.
func (s *MeetingService) StudentJoinURL(ctx context.Context, meetingID string, email string) (*dto.JoinURLResponse, *errors.AppError) {
	mapping, err := s.repo.GetMapping(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load meeting mapping", err)
	}
	if mapping == nil {
		return &dto.JoinURLResponse{Status: dto.JoinStatusNotFound}, nil
	}

	record, err := s.repo.GetRegistrant(ctx, meetingID, email)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load registrant", err)
	}
	if record != nil {
		return &dto.JoinURLResponse{Status: dto.JoinStatusSuccess, JoinURL: record.JoinURL}, nil
	}

	// Other students already have join URLs: registration ran and this
	// caller is simply not on the list. No registrants at all means the
	// host has not started the meeting yet.
	hasAny, err := s.repo.HasRegistrants(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load registrants", err)
	}
	if hasAny {
		return &dto.JoinURLResponse{Status: dto.JoinStatusNotFound}, nil
	}
	return &dto.JoinURLResponse{Status: dto.JoinStatusNotStarted}, nil
}

func (s *MeetingService) ownedMapping(ctx context.Context, hostID uuid.UUID, meetingID string) (*entity.MeetingMapping, *errors.AppError) {
	mapping, err := s.repo.GetMapping(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load meeting mapping", err)
	}
	if mapping == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "unknown meeting", nil)
	}
	if !mapping.OwnedBy(hostID) {
		return nil, errors.NewAppError(errors.ErrOwnershipMismatch, "meeting belongs to another host", nil)
	}
	return mapping, nil
}
