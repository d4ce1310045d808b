package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"zoom-lms-api/core/config"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/metrics"
	"zoom-lms-api/modules/meeting/client"
	"zoom-lms-api/modules/meeting/entity"

	"github.com/google/uuid"
)

// fakeZoomAPI serves the registrant endpoints and records batch shapes.
type fakeZoomAPI struct {
	mu            sync.Mutex
	created       []string
	batchSizes    []int
	failEmails    map[string]bool
	approvedPages [][]client.Registrant
}

func (f *fakeZoomAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			var req client.RegistrantRequest
			json.NewDecoder(r.Body).Decode(&req)
			f.mu.Lock()
			fail := f.failEmails[req.Email]
			if !fail {
				f.created = append(f.created, req.Email)
			}
			f.mu.Unlock()
			if fail {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{
				"registrant_id": "reg-" + req.Email,
				"join_url":      "https://example.com/j/" + req.Email,
			})
		case r.Method == http.MethodPut:
			var body struct {
				Action      string                 `json:"action"`
				Registrants []client.RegistrantRef `json:"registrants"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.mu.Lock()
			f.batchSizes = append(f.batchSizes, len(body.Registrants))
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet:
			page := r.URL.Query().Get("page_number")
			f.mu.Lock()
			defer f.mu.Unlock()
			idx := 0
			fmt.Sscanf(page, "%d", &idx)
			if idx < 1 || idx > len(f.approvedPages) {
				json.NewEncoder(w).Encode(map[string]any{"page_count": len(f.approvedPages)})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"page_count":  len(f.approvedPages),
				"registrants": f.approvedPages[idx-1],
			})
		}
	}
}

func newPipelineService(t *testing.T, repo *fakeRepo, api *fakeZoomAPI, notifier *fakeNotifier) *MeetingService {
	t.Helper()
	testConfig()
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	zoomClient := client.NewZoomClient(config.ZoomConfig{
		APIBaseURL:   server.URL,
		OAuthBaseURL: server.URL,
	}, metrics.Noop{})
	return NewMeetingService(repo, zoomClient, &fakeAuthSvc{}, &fakeEnqueuer{}, notifier)
}

func restrictedMapping(meetingID string) *entity.MeetingMapping {
	return &entity.MeetingMapping{
		MeetingID:        meetingID,
		UserID:           uuid.New(),
		CourseKey:        "course-v1:Org+Course+Run",
		UsageKey:         "block-v1:Org+Course+Run+type@vertical+block@u1",
		RestrictedAccess: true,
	}
}

func TestRunRegistrationPipelinePersistsJoinURLs(t *testing.T) {
	repo := newFakeRepo()
	repo.mappings["91"] = restrictedMapping("91")
	repo.students = []entity.EnrolledStudent{
		{Email: "a@x.com", FirstName: "Ada", LastName: "L"},
		{Email: "b@x.com", FirstName: "Bob", LastName: "M"},
	}
	api := &fakeZoomAPI{approvedPages: [][]client.Registrant{{
		{ID: "r1", Email: "a@x.com", JoinURL: "https://example.com/j/a@x.com"},
		{ID: "r2", Email: "b@x.com", JoinURL: "https://example.com/j/b@x.com"},
	}}}
	svc := newPipelineService(t, repo, api, &fakeNotifier{})

	if appErr := svc.RunRegistrationPipeline(context.Background(), "91"); appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}

	if len(api.created) != 2 {
		t.Errorf("expected 2 registrations, got %d", len(api.created))
	}
	rec, _ := repo.GetRegistrant(context.Background(), "91", "b@x.com")
	if rec == nil || rec.JoinURL != "https://example.com/j/b@x.com" {
		t.Errorf("join url should be cached, got %+v", rec)
	}

	// A rerun upserts the same rows instead of duplicating.
	if appErr := svc.RunRegistrationPipeline(context.Background(), "91"); appErr != nil {
		t.Fatalf("rerun failed: %v", appErr)
	}
	if len(repo.registrants) != 2 {
		t.Errorf("rerun must not duplicate records, got %d", len(repo.registrants))
	}
}

func TestRunRegistrationPipelineDropsRefusedStudent(t *testing.T) {
	repo := newFakeRepo()
	repo.mappings["91"] = restrictedMapping("91")
	repo.students = []entity.EnrolledStudent{
		{Email: "ok@x.com"},
		{Email: "bad@x.com"},
	}
	api := &fakeZoomAPI{
		failEmails: map[string]bool{"bad@x.com": true},
		approvedPages: [][]client.Registrant{{
			{ID: "r1", Email: "ok@x.com", JoinURL: "https://example.com/j/ok"},
		}},
	}
	svc := newPipelineService(t, repo, api, &fakeNotifier{})

	if appErr := svc.RunRegistrationPipeline(context.Background(), "91"); appErr != nil {
		t.Fatalf("one refused student must not fail the run: %v", appErr)
	}
	if len(api.batchSizes) != 1 || api.batchSizes[0] != 1 {
		t.Errorf("only the surviving student should be approved, got %v", api.batchSizes)
	}
	if len(repo.registrants) != 1 {
		t.Errorf("expected 1 cached join url, got %d", len(repo.registrants))
	}
}

func TestRunRegistrationPipelineSplitsApprovalBatches(t *testing.T) {
	repo := newFakeRepo()
	repo.mappings["91"] = restrictedMapping("91")
	for i := 0; i < 65; i++ {
		repo.students = append(repo.students, entity.EnrolledStudent{
			Email: fmt.Sprintf("s%02d@x.com", i),
		})
	}
	api := &fakeZoomAPI{approvedPages: [][]client.Registrant{nil}}
	svc := newPipelineService(t, repo, api, &fakeNotifier{})

	if appErr := svc.RunRegistrationPipeline(context.Background(), "91"); appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}

	if len(api.batchSizes) != 3 {
		t.Fatalf("65 registrants should approve in 3 batches, got %d", len(api.batchSizes))
	}
	total := 0
	for _, size := range api.batchSizes {
		if size > constants.MaxRegistrantStatus {
			t.Errorf("batch exceeds the provider limit: %d", size)
		}
		total += size
	}
	if total != 65 {
		t.Errorf("every registrant should be approved once, got %d", total)
	}
}

func TestRunRegistrationPipelineEmailsApprovedStudents(t *testing.T) {
	repo := newFakeRepo()
	mapping := restrictedMapping("91")
	mapping.EmailNotification = true
	repo.mappings["91"] = mapping
	repo.students = []entity.EnrolledStudent{
		{Email: "a@x.com"},
		{Email: "b@x.com"},
	}
	api := &fakeZoomAPI{approvedPages: [][]client.Registrant{{
		{ID: "r1", Email: "a@x.com", JoinURL: "https://example.com/j/a"},
		{ID: "r2", Email: "b@x.com", JoinURL: "https://example.com/j/b"},
	}}}
	notifier := &fakeNotifier{}
	svc := newPipelineService(t, repo, api, notifier)

	if appErr := svc.RunRegistrationPipeline(context.Background(), "91"); appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if len(notifier.emails) != 2 {
		t.Fatalf("each approved registrant should be emailed once, got %v", notifier.emails)
	}
}

func TestRunRegistrationPipelineStaysQuietWithoutEmailFlag(t *testing.T) {
	repo := newFakeRepo()
	repo.mappings["91"] = restrictedMapping("91")
	repo.students = []entity.EnrolledStudent{{Email: "a@x.com"}}
	api := &fakeZoomAPI{approvedPages: [][]client.Registrant{{
		{ID: "r1", Email: "a@x.com", JoinURL: "https://example.com/j/a"},
	}}}
	notifier := &fakeNotifier{}
	svc := newPipelineService(t, repo, api, notifier)

	if appErr := svc.RunRegistrationPipeline(context.Background(), "91"); appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if len(notifier.emails) != 0 {
		t.Errorf("notification flag off must not email anyone, got %v", notifier.emails)
	}
}

func TestRunRegistrationPipelineSkipsPublicMeeting(t *testing.T) {
	repo := newFakeRepo()
	mapping := restrictedMapping("91")
	mapping.RestrictedAccess = false
	repo.mappings["91"] = mapping
	api := &fakeZoomAPI{}
	svc := newPipelineService(t, repo, api, &fakeNotifier{})

	if appErr := svc.RunRegistrationPipeline(context.Background(), "91"); appErr != nil {
		t.Fatalf("public meeting should be a no-op, got %v", appErr)
	}
	if len(api.created) != 0 {
		t.Error("public meeting must not register anyone")
	}
}
