package service

import (
	"context"
	"encoding/json"
	"testing"
	"zoom-lms-api/core/config"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/metrics"
	lsdto "zoom-lms-api/modules/livestream/dto"
	meetingdto "zoom-lms-api/modules/meeting/dto"
	"zoom-lms-api/modules/meeting/entity"
	"zoom-lms-api/modules/webhook/dto"

	"github.com/google/uuid"
)

// ===================== Fakes =====================

type fakeMeetingRepo struct {
	mappings map[string]*entity.MeetingMapping
	getCalls int
}

func (r *fakeMeetingRepo) GetMapping(ctx context.Context, meetingID string) (*entity.MeetingMapping, error) {
	r.getCalls++
	m, ok := r.mappings[meetingID]
	if !ok {
		return nil, nil
	}
	return m, nil
}

func (r *fakeMeetingRepo) SaveMapping(ctx context.Context, mapping *entity.MeetingMapping) error {
	return nil
}

func (r *fakeMeetingRepo) SaveRegistrant(ctx context.Context, record *entity.RegistrantRecord) error {
	return nil
}

func (r *fakeMeetingRepo) GetRegistrant(ctx context.Context, meetingID string, email string) (*entity.RegistrantRecord, error) {
	return nil, nil
}

func (r *fakeMeetingRepo) HasRegistrants(ctx context.Context, meetingID string) (bool, error) {
	return false, nil
}

func (r *fakeMeetingRepo) EnrolledStudents(ctx context.Context, courseKey string, excludeUserID uuid.UUID) ([]entity.EnrolledStudent, error) {
	return nil, nil
}

type fakeMeetingSvc struct {
	enqueued []string
}

func (s *fakeMeetingSvc) ScheduleMeeting(ctx context.Context, hostID uuid.UUID, req *meetingdto.ScheduleMeetingRequest) (*meetingdto.ScheduleMeetingResponse, *errors.AppError) {
	return nil, nil
}
func (s *fakeMeetingSvc) UpdateScheduledMeeting(ctx context.Context, hostID uuid.UUID, meetingID string, req *meetingdto.ScheduleMeetingRequest) *errors.AppError {
	return nil
}
func (s *fakeMeetingSvc) StartMeeting(ctx context.Context, hostID uuid.UUID, rawData string, code string, redirectURI string) (*meetingdto.StartMeetingResponse, *errors.AppError) {
	return nil, nil
}
func (s *fakeMeetingSvc) StartPublicMeeting(ctx context.Context, meetingID string) (string, *errors.AppError) {
	return "", nil
}
func (s *fakeMeetingSvc) StudentJoinURL(ctx context.Context, meetingID string, email string) (*meetingdto.JoinURLResponse, *errors.AppError) {
	return nil, nil
}
func (s *fakeMeetingSvc) EnqueueRegistration(ctx context.Context, meetingID string) *errors.AppError {
	s.enqueued = append(s.enqueued, meetingID)
	return nil
}
func (s *fakeMeetingSvc) RunRegistrationPipeline(ctx context.Context, meetingID string) *errors.AppError {
	return nil
}

type fakeLivestreamSvc struct {
	started []string
	fail    bool
}

func (s *fakeLivestreamSvc) StartLiveBroadcast(ctx context.Context, meetingID string) (*lsdto.StartLivestreamResponse, *errors.AppError) {
	if s.fail {
		return nil, errors.NewAppError(errors.ErrDownstream, "stream failed", nil)
	}
	s.started = append(s.started, meetingID)
	return &lsdto.StartLivestreamResponse{BroadcastID: "bc-1"}, nil
}
func (s *fakeLivestreamSvc) StartLiveBroadcastOwned(ctx context.Context, callerID uuid.UUID, meetingID string) (*lsdto.StartLivestreamResponse, *errors.AppError) {
	return s.StartLiveBroadcast(ctx, meetingID)
}
func (s *fakeLivestreamSvc) CreateBroadcast(ctx context.Context, userID uuid.UUID, req *lsdto.CreateBroadcastRequest) (*lsdto.BroadcastResponse, *errors.AppError) {
	return nil, nil
}
func (s *fakeLivestreamSvc) UpdateBroadcast(ctx context.Context, userID uuid.UUID, req *lsdto.UpdateBroadcastRequest) *errors.AppError {
	return nil
}

type fakeNotifSvc struct {
	notified []string
}

func (s *fakeNotifSvc) NotifyMeetingStarted(ctx context.Context, mapping *entity.MeetingMapping) *errors.AppError {
	s.notified = append(s.notified, mapping.MeetingID)
	return nil
}

func (s *fakeNotifSvc) NotifyStudentMeetingStart(ctx context.Context, mapping *entity.MeetingMapping, email string) error {
	s.notified = append(s.notified, email)
	return nil
}

// ===================== Helpers =====================

func setSecret(secret string) {
	config.Set(&config.Config{Zoom: config.ZoomConfig{WebhookSecret: secret}})
}

func startedEvent(meetingID string) *dto.ZoomEvent {
	name := "meeting.started"
	id := json.Number(meetingID)
	host := "host-1"
	account := "acc-1"
	return &dto.ZoomEvent{
		Event: &name,
		Payload: &dto.EventPayload{
			AccountID: &account,
			Object:    &dto.EventObject{ID: &id, HostID: &host},
		},
	}
}

func boundMapping(meetingID string) *entity.MeetingMapping {
	return &entity.MeetingMapping{
		MeetingID: meetingID,
		UserID:    uuid.New(),
		CourseKey: "course-v1:Org+Course+Run",
		UsageKey:  "block-v1:Org+Course+Run+type@vertical+block@u1",
	}
}

func newTestService(repo *fakeMeetingRepo, meetingSvc *fakeMeetingSvc, lsSvc *fakeLivestreamSvc, notifSvc *fakeNotifSvc) *WebhookService {
	return NewWebhookService(repo, meetingSvc, lsSvc, notifSvc, metrics.Noop{})
}

// ===================== Tests =====================

func TestAuthorizeRejectsWrongSecret(t *testing.T) {
	setSecret("expected-secret")
	svc := newTestService(&fakeMeetingRepo{}, &fakeMeetingSvc{}, &fakeLivestreamSvc{}, &fakeNotifSvc{})

	if appErr := svc.Authorize("wrong"); appErr == nil || appErr.Code != errors.ErrUnauthorizedCaller {
		t.Fatalf("wrong secret should be refused, got %v", appErr)
	}
	if appErr := svc.Authorize("expected-secret"); appErr != nil {
		t.Fatalf("matching secret should pass, got %v", appErr)
	}
}

func TestAuthorizeRejectsWhenSecretUnconfigured(t *testing.T) {
	setSecret("")
	svc := newTestService(&fakeMeetingRepo{}, &fakeMeetingSvc{}, &fakeLivestreamSvc{}, &fakeNotifSvc{})

	if appErr := svc.Authorize(""); appErr == nil {
		t.Fatal("blank configured secret must fail every request")
	}
}

func TestDispatchRejectsMalformedEnvelope(t *testing.T) {
	repo := &fakeMeetingRepo{mappings: map[string]*entity.MeetingMapping{}}
	svc := newTestService(repo, &fakeMeetingSvc{}, &fakeLivestreamSvc{}, &fakeNotifSvc{})

	event := startedEvent("91")
	event.Payload.Object.ID = nil
	if appErr := svc.Dispatch(context.Background(), event); appErr == nil || appErr.Code != errors.ErrBadRequest {
		t.Fatalf("missing meeting id should be refused, got %v", appErr)
	}
	if repo.getCalls != 0 {
		t.Error("malformed envelope must not reach the mapping store")
	}
}

func TestDispatchRefusesOtherEvents(t *testing.T) {
	repo := &fakeMeetingRepo{mappings: map[string]*entity.MeetingMapping{}}
	svc := newTestService(repo, &fakeMeetingSvc{}, &fakeLivestreamSvc{}, &fakeNotifSvc{})

	event := startedEvent("91")
	ended := "meeting.ended"
	event.Event = &ended
	if appErr := svc.Dispatch(context.Background(), event); appErr == nil || appErr.Code != errors.ErrBadRequest {
		t.Fatalf("unhandled events should be refused, got %v", appErr)
	}
	if repo.getCalls != 0 {
		t.Error("unhandled events must not reach the mapping store")
	}
}

func TestDispatchRefusesUnmappedMeeting(t *testing.T) {
	repo := &fakeMeetingRepo{mappings: map[string]*entity.MeetingMapping{}}
	meetingSvc := &fakeMeetingSvc{}
	svc := newTestService(repo, meetingSvc, &fakeLivestreamSvc{}, &fakeNotifSvc{})

	if appErr := svc.Dispatch(context.Background(), startedEvent("91")); appErr == nil || appErr.Code != errors.ErrBadRequest {
		t.Fatalf("unknown meeting should be refused, got %v", appErr)
	}
	if len(meetingSvc.enqueued) != 0 {
		t.Error("unknown meeting must not trigger registration")
	}
}

func TestDispatchRestrictedMeetingEnqueuesRegistration(t *testing.T) {
	mapping := boundMapping("91")
	mapping.RestrictedAccess = true
	repo := &fakeMeetingRepo{mappings: map[string]*entity.MeetingMapping{"91": mapping}}
	meetingSvc := &fakeMeetingSvc{}
	notifSvc := &fakeNotifSvc{}
	svc := newTestService(repo, meetingSvc, &fakeLivestreamSvc{}, notifSvc)

	if appErr := svc.Dispatch(context.Background(), startedEvent("91")); appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if len(meetingSvc.enqueued) != 1 || meetingSvc.enqueued[0] != "91" {
		t.Errorf("restricted meeting should enqueue registration, got %v", meetingSvc.enqueued)
	}
	if len(notifSvc.notified) != 0 {
		t.Error("restricted meeting must not also send roster emails")
	}
}

func TestDispatchPublicMeetingSendsEmails(t *testing.T) {
	mapping := boundMapping("91")
	mapping.EmailNotification = true
	repo := &fakeMeetingRepo{mappings: map[string]*entity.MeetingMapping{"91": mapping}}
	notifSvc := &fakeNotifSvc{}
	svc := newTestService(repo, &fakeMeetingSvc{}, &fakeLivestreamSvc{}, notifSvc)

	if appErr := svc.Dispatch(context.Background(), startedEvent("91")); appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if len(notifSvc.notified) != 1 {
		t.Errorf("expected one roster notification, got %v", notifSvc.notified)
	}
}

func TestDispatchLivestreamFailureSurfaces(t *testing.T) {
	mapping := boundMapping("91")
	mapping.LivestreamEnabled = true
	repo := &fakeMeetingRepo{mappings: map[string]*entity.MeetingMapping{"91": mapping}}
	lsSvc := &fakeLivestreamSvc{fail: true}
	svc := newTestService(repo, &fakeMeetingSvc{}, lsSvc, &fakeNotifSvc{})

	if appErr := svc.Dispatch(context.Background(), startedEvent("91")); appErr == nil {
		t.Fatal("livestream failure should surface to the caller")
	}
}

func TestDispatchNumericMeetingID(t *testing.T) {
	mapping := boundMapping("987654321")
	mapping.LivestreamEnabled = true
	repo := &fakeMeetingRepo{mappings: map[string]*entity.MeetingMapping{"987654321": mapping}}
	lsSvc := &fakeLivestreamSvc{}
	svc := newTestService(repo, &fakeMeetingSvc{}, lsSvc, &fakeNotifSvc{})

	// The provider sends the id as a bare JSON number.
	var event dto.ZoomEvent
	raw := `{"event":"meeting.started","payload":{"account_id":"acc","object":{"id":987654321,"host_id":"h"}}}`
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		t.Fatalf("failed to parse envelope: %v", err)
	}

	if appErr := svc.Dispatch(context.Background(), &event); appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if len(lsSvc.started) != 1 || lsSvc.started[0] != "987654321" {
		t.Errorf("numeric id should dispatch, got %v", lsSvc.started)
	}
}
