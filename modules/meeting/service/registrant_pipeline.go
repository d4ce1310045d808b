package service

import (
	"context"
	"sync"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/logger"
	"zoom-lms-api/modules/meeting/client"
	"zoom-lms-api/modules/meeting/entity"
)

// RunRegistrationPipeline registers the course roster on a restricted
// meeting, approves everyone, then caches the per-student join URLs the
// provider handed out. A student the provider refuses is dropped and
// logged; the rest of the roster still goes through.
func (s *MeetingService) RunRegistrationPipeline(ctx context.Context, meetingID string) *errors.AppError {
	mapping, err := s.repo.GetMapping(ctx, meetingID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load meeting mapping", err)
	}
	if mapping == nil {
		return errors.NewAppError(errors.ErrNotFound, "unknown meeting", nil)
	}
	if !mapping.RestrictedAccess || !mapping.LocationBound() {
		logger.Warn("MeetingService:RunRegistrationPipeline:Skip",
			"meeting_id", meetingID, "restricted", mapping.RestrictedAccess)
		return nil
	}

	accessToken, appErr := s.authSvc.ZoomAccessToken(ctx, mapping.UserID)
	if appErr != nil {
		return appErr
	}

	students, err := s.repo.EnrolledStudents(ctx, mapping.CourseKey, mapping.UserID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load roster", err)
	}
	logger.Info("MeetingService:RunRegistrationPipeline:Start",
		"meeting_id", meetingID, "course_key", mapping.CourseKey, "roster_size", len(students))

	created := s.registerRoster(ctx, accessToken, meetingID, students)
	s.approveInBatches(ctx, accessToken, meetingID, created)

	approved := s.zoomClient.ListApprovedRegistrants(ctx, accessToken, meetingID)
	s.persistJoinURLs(ctx, mapping, approved)

	logger.Info("MeetingService:RunRegistrationPipeline:Done",
		"meeting_id", meetingID, "registered", len(created), "approved", len(approved))
	return nil
}

// registerRoster creates one registrant per student, sequentially: the
// provider throttles this endpoint and the client's retry pause already
// paces us.
func (s *MeetingService) registerRoster(ctx context.Context, accessToken string, meetingID string, students []entity.EnrolledStudent) []client.RegistrantRef {
	refs := make([]client.RegistrantRef, 0, len(students))
	for _, student := range students {
		req := &client.RegistrantRequest{
			Email:     student.Email,
			FirstName: student.FirstName,
			LastName:  student.LastName,
		}
		resp, appErr := s.zoomClient.CreateRegistrant(ctx, accessToken, meetingID, req)
		if appErr != nil {
			logger.Error("MeetingService:registerRoster:Dropped",
				"error", appErr, "meeting_id", meetingID, "email", student.Email)
			continue
		}
		refs = append(refs, client.RegistrantRef{ID: resp.RegistrantID, Email: student.Email})
	}
	return refs
}

// approveInBatches fans the approval calls out, one goroutine per batch of
// MaxRegistrantStatus registrants. Batches are independent: a failing batch
// is logged and the others still complete.
func (s *MeetingService) approveInBatches(ctx context.Context, accessToken string, meetingID string, refs []client.RegistrantRef) {
	var wg sync.WaitGroup
	for start := 0; start < len(refs); start += constants.MaxRegistrantStatus {
		end := start + constants.MaxRegistrantStatus
		if end > len(refs) {
			end = len(refs)
		}
		batch := refs[start:end]

		wg.Add(1)
		go func(batch []client.RegistrantRef) {
			defer wg.Done()
			if appErr := s.zoomClient.ApproveRegistrants(ctx, accessToken, meetingID, batch); appErr != nil {
				logger.Error("MeetingService:approveInBatches:BatchFailed",
					"error", appErr, "meeting_id", meetingID, "batch_size", len(batch))
			}
		}(batch)
	}
	wg.Wait()
}

// persistJoinURLs caches the approved join URLs and, when the meeting has
// email notification on, queues the start email for each student whose URL
// was stored. Failures are logged per student; a rerun of the pipeline
// upserts the same rows.
func (s *MeetingService) persistJoinURLs(ctx context.Context, mapping *entity.MeetingMapping, approved []client.Registrant) {
	for _, registrant := range approved {
		record := &entity.RegistrantRecord{
			MeetingID: mapping.MeetingID,
			Email:     registrant.Email,
			JoinURL:   registrant.JoinURL,
		}
		if err := s.repo.SaveRegistrant(ctx, record); err != nil {
			logger.Error("MeetingService:persistJoinURLs:Error",
				"error", err, "meeting_id", mapping.MeetingID, "email", registrant.Email)
			continue
		}
		if mapping.EmailNotification {
			if err := s.notifier.NotifyStudentMeetingStart(ctx, mapping, registrant.Email); err != nil {
				logger.Error("MeetingService:persistJoinURLs:Notify:Error",
					"error", err, "meeting_id", mapping.MeetingID, "email", registrant.Email)
			}
		}
	}
}
