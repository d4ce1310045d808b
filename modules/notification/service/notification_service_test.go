package service

import (
	"context"
	stderrors "errors"
	"testing"
	"zoom-lms-api/core/config"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/modules/meeting/entity"
	"zoom-lms-api/modules/notification/task"

	"github.com/google/uuid"
)

type fakeMeetingRepo struct {
	students []entity.EnrolledStudent
}

func (r *fakeMeetingRepo) GetMapping(ctx context.Context, meetingID string) (*entity.MeetingMapping, error) {
	return nil, nil
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
	return r.students, nil
}

type fakeEnqueuer struct {
	payloads  []*task.MeetingStartEmailPayload
	failEmail string
}

func (e *fakeEnqueuer) EnqueueMeetingStartEmail(ctx context.Context, payload *task.MeetingStartEmailPayload) error {
	if payload.Email == e.failEmail {
		return stderrors.New("queue full")
	}
	e.payloads = append(e.payloads, payload)
	return nil
}

func boundMapping() *entity.MeetingMapping {
	return &entity.MeetingMapping{
		MeetingID: "86012345678",
		UserID:    uuid.New(),
		Title:     "Cálculo I",
		CourseKey: "course-v1:Org+CALC101+2026",
		UsageKey:  "block-v1:Org+CALC101+2026+type@vertical+block@abc",
	}
}

func TestNotifyMeetingStartedFansOutRoster(t *testing.T) {
	config.Set(&config.Config{
		LMS: config.LMSConfig{BaseURL: "https://lms.example.com", PlatformName: "EOL"},
	})
	repo := &fakeMeetingRepo{students: []entity.EnrolledStudent{
		{UserID: 1, Email: "ana@example.com"},
		{UserID: 2, Email: "ben@example.com"},
	}}
	enq := &fakeEnqueuer{}
	svc := NewNotificationService(repo, enq)

	mapping := boundMapping()
	if appErr := svc.NotifyMeetingStarted(context.Background(), mapping); appErr != nil {
		t.Fatalf("NotifyMeetingStarted: %v", appErr)
	}
	if len(enq.payloads) != 2 {
		t.Fatalf("queued %d emails, want 2", len(enq.payloads))
	}
	wantURL := "https://lms.example.com/courses/" + mapping.CourseKey + "/jump_to/" + mapping.UsageKey
	for _, p := range enq.payloads {
		if p.RedirectURL != wantURL {
			t.Errorf("redirect url = %q, want %q", p.RedirectURL, wantURL)
		}
		if p.CourseName != mapping.Title {
			t.Errorf("course name = %q, want %q", p.CourseName, mapping.Title)
		}
	}
}

func TestNotifyMeetingStartedSkipsFailedEnqueue(t *testing.T) {
	config.Set(&config.Config{
		LMS: config.LMSConfig{BaseURL: "https://lms.example.com"},
	})
	repo := &fakeMeetingRepo{students: []entity.EnrolledStudent{
		{UserID: 1, Email: "ana@example.com"},
		{UserID: 2, Email: "broken@example.com"},
		{UserID: 3, Email: "carla@example.com"},
	}}
	enq := &fakeEnqueuer{failEmail: "broken@example.com"}
	svc := NewNotificationService(repo, enq)

	if appErr := svc.NotifyMeetingStarted(context.Background(), boundMapping()); appErr != nil {
		t.Fatalf("NotifyMeetingStarted: %v", appErr)
	}
	if len(enq.payloads) != 2 {
		t.Fatalf("queued %d emails, want 2 after one failed enqueue", len(enq.payloads))
	}
}

func TestNotifyStudentMeetingStartQueuesOneEmail(t *testing.T) {
	config.Set(&config.Config{
		LMS: config.LMSConfig{BaseURL: "https://lms.example.com"},
	})
	enq := &fakeEnqueuer{}
	svc := NewNotificationService(&fakeMeetingRepo{}, enq)

	mapping := boundMapping()
	if err := svc.NotifyStudentMeetingStart(context.Background(), mapping, "ana@example.com"); err != nil {
		t.Fatalf("NotifyStudentMeetingStart: %v", err)
	}
	if len(enq.payloads) != 1 {
		t.Fatalf("queued %d emails, want 1", len(enq.payloads))
	}
	p := enq.payloads[0]
	if p.Email != "ana@example.com" || p.CourseName != mapping.Title {
		t.Errorf("unexpected payload %+v", p)
	}
	wantURL := "https://lms.example.com/courses/" + mapping.CourseKey + "/jump_to/" + mapping.UsageKey
	if p.RedirectURL != wantURL {
		t.Errorf("redirect url = %q, want %q", p.RedirectURL, wantURL)
	}
}

func TestNotifyMeetingStartedRequiresBoundLocation(t *testing.T) {
	config.Set(&config.Config{})
	enq := &fakeEnqueuer{}
	svc := NewNotificationService(&fakeMeetingRepo{}, enq)

	mapping := boundMapping()
	mapping.UsageKey = ""
	appErr := svc.NotifyMeetingStarted(context.Background(), mapping)
	if appErr == nil || appErr.Code != errors.ErrBadRequest {
		t.Fatalf("appErr = %v, want %s", appErr, errors.ErrBadRequest)
	}
	if len(enq.payloads) != 0 {
		t.Error("unbound meeting must not queue emails")
	}
}
