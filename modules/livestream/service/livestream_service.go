package service

import (
	"context"
	"fmt"
	"time"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/logger"
	authservice "zoom-lms-api/modules/auth/service"
	"zoom-lms-api/modules/livestream/client"
	"zoom-lms-api/modules/livestream/dto"
	mclient "zoom-lms-api/modules/meeting/client"
	"zoom-lms-api/modules/meeting/repository"

	"github.com/google/uuid"
)

// LivestreamService orchestrates the broadcast side of a meeting: it
// creates or reuses a broadcast, wires the ingestion endpoint into the
// meeting provider and switches the stream on.
type LivestreamService struct {
	meetingRepo repository.MeetingRepositoryInterface
	authSvc     authservice.AuthServiceInterface
	ytClient    *client.YouTubeClient
	zoomClient  *mclient.ZoomClient
}

type LivestreamServiceInterface interface {
	StartLiveBroadcast(ctx context.Context, meetingID string) (*dto.StartLivestreamResponse, *errors.AppError)
	StartLiveBroadcastOwned(ctx context.Context, callerID uuid.UUID, meetingID string) (*dto.StartLivestreamResponse, *errors.AppError)
	CreateBroadcast(ctx context.Context, userID uuid.UUID, req *dto.CreateBroadcastRequest) (*dto.BroadcastResponse, *errors.AppError)
	UpdateBroadcast(ctx context.Context, userID uuid.UUID, req *dto.UpdateBroadcastRequest) *errors.AppError
}

func NewLivestreamService(meetingRepo repository.MeetingRepositoryInterface, authSvc authservice.AuthServiceInterface, ytClient *client.YouTubeClient, zoomClient *mclient.ZoomClient) *LivestreamService {
	return &LivestreamService{
		meetingRepo: meetingRepo,
		authSvc:     authSvc,
		ytClient:    ytClient,
		zoomClient:  zoomClient,
	}
}

// StartLiveBroadcast runs the full orchestration for a meeting that just
// started. A previous broadcast still in the ready state is reused as is;
// otherwise a fresh broadcast and stream are created, recorded on the
// mapping, and pushed into the meeting's livestream settings.
func (s *LivestreamService) StartLiveBroadcast(ctx context.Context, meetingID string) (*dto.StartLivestreamResponse, *errors.AppError) {
	mapping, err := s.meetingRepo.GetMapping(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load meeting mapping", err)
	}
	if mapping == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "unknown meeting", nil)
	}
	if !mapping.LivestreamEnabled {
		return nil, errors.NewAppError(errors.ErrForbidden, "livestream is not enabled for this meeting", nil)
	}

	googleToken, appErr := s.authSvc.GoogleAccessToken(ctx, mapping.UserID)
	if appErr != nil {
		return nil, appErr
	}
	zoomToken, appErr := s.authSvc.ZoomAccessToken(ctx, mapping.UserID)
	if appErr != nil {
		return nil, appErr
	}

	// A broadcast that was attached earlier but never went live can be
	// picked up again. Anything else in its history is consumed.
	if latest := mapping.LatestBroadcastID(); latest != "" {
		status, appErr := s.ytClient.BroadcastStatus(ctx, googleToken, latest)
		if appErr != nil {
			return nil, appErr
		}
		if status == constants.BroadcastLifeCycleReady {
			if appErr := s.zoomClient.StartLivestream(ctx, zoomToken, meetingID); appErr != nil {
				return nil, appErr
			}
			logger.Info("LivestreamService:StartLiveBroadcast:Reused",
				"meeting_id", meetingID, "broadcast_id", latest)
			return &dto.StartLivestreamResponse{
				BroadcastID: latest,
				WatchURL:    watchURL(latest),
				Reused:      true,
			}, nil
		}
	}

	broadcast, appErr := s.ytClient.InsertBroadcast(ctx, googleToken,
		mapping.Title, "", time.Now(), "private")
	if appErr != nil {
		return nil, appErr
	}

	stream, appErr := s.ytClient.InsertStream(ctx, googleToken, mapping.Title)
	if appErr != nil {
		s.discardBroadcast(ctx, googleToken, broadcast.ID)
		return nil, appErr
	}
	if appErr := s.ytClient.BindBroadcast(ctx, googleToken, broadcast.ID, stream.ID); appErr != nil {
		s.discardBroadcast(ctx, googleToken, broadcast.ID)
		return nil, appErr
	}

	// The history column is fixed width. When it cannot take another id
	// the new broadcast is discarded so provider and mapping stay in step.
	if !mapping.AppendBroadcastID(broadcast.ID) {
		s.discardBroadcast(ctx, googleToken, broadcast.ID)
		return nil, errors.NewAppError(errors.ErrBroadcastHistoryFull, "broadcast history is full for this meeting", nil)
	}
	if err := s.meetingRepo.SaveMapping(ctx, mapping); err != nil {
		s.discardBroadcast(ctx, googleToken, broadcast.ID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store meeting mapping", err)
	}

	if appErr := s.zoomClient.UpdateLivestream(ctx, zoomToken, meetingID,
		stream.StreamServer, stream.StreamKey, watchURL(broadcast.ID)); appErr != nil {
		return nil, appErr
	}
	if appErr := s.zoomClient.StartLivestream(ctx, zoomToken, meetingID); appErr != nil {
		return nil, appErr
	}

	logger.Info("LivestreamService:StartLiveBroadcast:Created",
		"meeting_id", meetingID, "broadcast_id", broadcast.ID)
	return &dto.StartLivestreamResponse{
		BroadcastID: broadcast.ID,
		WatchURL:    watchURL(broadcast.ID),
	}, nil
}

// StartLiveBroadcastOwned is the manual variant: only the meeting's owner
// may trigger it.
func (s *LivestreamService) StartLiveBroadcastOwned(ctx context.Context, callerID uuid.UUID, meetingID string) (*dto.StartLivestreamResponse, *errors.AppError) {
	mapping, err := s.meetingRepo.GetMapping(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load meeting mapping", err)
	}
	if mapping == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "unknown meeting", nil)
	}
	if !mapping.OwnedBy(callerID) {
		return nil, errors.NewAppError(errors.ErrOwnershipMismatch, "meeting belongs to another host", nil)
	}
	return s.StartLiveBroadcast(ctx, meetingID)
}

// CreateBroadcast sets a scheduled broadcast up ahead of the meeting: it
// creates and binds the broadcast and its stream, records the broadcast id
// on the mapping and pushes the ingestion endpoint into the meeting's
// livestream settings.
func (s *LivestreamService) CreateBroadcast(ctx context.Context, userID uuid.UUID, req *dto.CreateBroadcastRequest) (*dto.BroadcastResponse, *errors.AppError) {
	mapping, err := s.meetingRepo.GetMapping(ctx, req.MeetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load meeting mapping", err)
	}
	if mapping == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "unknown meeting", nil)
	}
	if !mapping.OwnedBy(userID) {
		return nil, errors.NewAppError(errors.ErrOwnershipMismatch, "meeting belongs to another host", nil)
	}

	googleToken, appErr := s.authSvc.GoogleAccessToken(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}
	zoomToken, appErr := s.authSvc.ZoomAccessToken(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}

	startTime := req.StartTime
	if startTime.Before(time.Now()) {
		startTime = time.Now()
	}

	broadcast, appErr := s.ytClient.InsertBroadcast(ctx, googleToken, req.Title, "", startTime, "private")
	if appErr != nil {
		return nil, appErr
	}
	stream, appErr := s.ytClient.InsertStream(ctx, googleToken, req.Title)
	if appErr != nil {
		s.discardBroadcast(ctx, googleToken, broadcast.ID)
		return nil, appErr
	}
	if appErr := s.ytClient.BindBroadcast(ctx, googleToken, broadcast.ID, stream.ID); appErr != nil {
		s.discardBroadcast(ctx, googleToken, broadcast.ID)
		return nil, appErr
	}

	if !mapping.AppendBroadcastID(broadcast.ID) {
		s.discardBroadcast(ctx, googleToken, broadcast.ID)
		return nil, errors.NewAppError(errors.ErrBroadcastHistoryFull, "broadcast history is full for this meeting", nil)
	}
	if err := s.meetingRepo.SaveMapping(ctx, mapping); err != nil {
		s.discardBroadcast(ctx, googleToken, broadcast.ID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store meeting mapping", err)
	}

	if appErr := s.zoomClient.UpdateLivestream(ctx, zoomToken, req.MeetingID,
		stream.StreamServer, stream.StreamKey, watchURL(broadcast.ID)); appErr != nil {
		return nil, appErr
	}

	return &dto.BroadcastResponse{
		BroadcastID:  broadcast.ID,
		StreamKey:    stream.StreamKey,
		StreamServer: stream.StreamServer,
		WatchURL:     watchURL(broadcast.ID),
	}, nil
}

// UpdateBroadcast retitles or reschedules a standalone broadcast.
func (s *LivestreamService) UpdateBroadcast(ctx context.Context, userID uuid.UUID, req *dto.UpdateBroadcastRequest) *errors.AppError {
	googleToken, appErr := s.authSvc.GoogleAccessToken(ctx, userID)
	if appErr != nil {
		return appErr
	}

	startTime := req.StartTime
	if startTime.Before(time.Now()) {
		startTime = time.Now()
	}
	return s.ytClient.UpdateBroadcast(ctx, googleToken, req.BroadcastID, req.Title, "", startTime)
}

func (s *LivestreamService) discardBroadcast(ctx context.Context, accessToken string, broadcastID string) {
	if appErr := s.ytClient.DeleteBroadcast(ctx, accessToken, broadcastID); appErr != nil {
		logger.Warn("LivestreamService:discardBroadcast:Error", "error", appErr, "broadcast_id", broadcastID)
	}
}

func watchURL(broadcastID string) string {
	return fmt.Sprintf("https://youtu.be/%s", broadcastID)
}
