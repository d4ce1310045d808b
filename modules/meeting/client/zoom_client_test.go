package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"zoom-lms-api/core/config"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/metrics"
)

func testClient(apiURL string, oauthURL string) *ZoomClient {
	return NewZoomClient(config.ZoomConfig{
		APIBaseURL:          apiURL,
		OAuthBaseURL:        oauthURL,
		AuthorizationSecret: "dGVzdA==",
	}, metrics.Noop{})
}

type countingCollector struct {
	metrics.Noop
	created int
	failed  int
}

func (c *countingCollector) RecordRegistrantCreated() { c.created++ }
func (c *countingCollector) RecordRegistrantFailed()  { c.failed++ }

func TestRateLimitBackoffIsOneSecond(t *testing.T) {
	if constants.ZoomRateLimitBackoff != time.Second {
		t.Errorf("rate limit backoff must be 1s, got %v", constants.ZoomRateLimitBackoff)
	}
}

func TestCreateRegistrantRetriesOnRateLimit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 4 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"registrant_id": "reg-1",
			"join_url":      "https://example.com/j/1",
		})
	}))
	defer server.Close()

	c := testClient(server.URL, server.URL)
	var sleeps []time.Duration
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	resp, appErr := c.CreateRegistrant(context.Background(), "tok", "91234", &RegistrantRequest{
		Email: "student@example.com", FirstName: "Ada", LastName: "L",
	})
	if appErr != nil {
		t.Fatalf("expected success after retries, got %v", appErr)
	}
	if resp.JoinURL != "https://example.com/j/1" {
		t.Errorf("unexpected join url %q", resp.JoinURL)
	}
	if len(sleeps) != 4 {
		t.Fatalf("expected 4 pauses, got %d", len(sleeps))
	}
	for _, d := range sleeps {
		if d != constants.ZoomRateLimitBackoff {
			t.Errorf("expected fixed %v pause, got %v", constants.ZoomRateLimitBackoff, d)
		}
	}
}

func TestCreateRegistrantGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := testClient(server.URL, server.URL)
	c.sleep = func(time.Duration) {}

	_, appErr := c.CreateRegistrant(context.Background(), "tok", "91234", &RegistrantRequest{Email: "a@b.c"})
	if appErr == nil {
		t.Fatal("expected an error once retries are exhausted")
	}
	if appErr.Code != errors.ErrProviderRateLimited {
		t.Errorf("expected %s, got %s", errors.ErrProviderRateLimited, appErr.Code)
	}
	if attempts != constants.ZoomRateLimitMaxRetries+1 {
		t.Errorf("expected %d attempts, got %d", constants.ZoomRateLimitMaxRetries+1, attempts)
	}
}

func TestCreateRegistrantCountsOutcomes(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"registrant_id": "reg-1", "join_url": "https://example.com/j/1"})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	collector := &countingCollector{}
	c := NewZoomClient(config.ZoomConfig{APIBaseURL: server.URL, OAuthBaseURL: server.URL}, collector)
	c.sleep = func(time.Duration) {}

	if _, appErr := c.CreateRegistrant(context.Background(), "tok", "91234", &RegistrantRequest{Email: "a@b.c"}); appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if _, appErr := c.CreateRegistrant(context.Background(), "tok", "91234", &RegistrantRequest{Email: "a@b.c"}); appErr == nil {
		t.Fatal("expected the second call to fail")
	}
	if collector.created != 1 || collector.failed != 1 {
		t.Errorf("counted %d created and %d failed, want 1 and 1", collector.created, collector.failed)
	}
}

func TestExchangeCodeReturnsRotatedRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Basic dGVzdA==" {
			t.Errorf("expected basic credential header, got %q", got)
		}
		if got := r.URL.Query().Get("grant_type"); got != "authorization_code" {
			t.Errorf("expected authorization_code grant, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-1",
			"refresh_token": "rt-2",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	c := testClient(server.URL, server.URL)
	token, appErr := c.ExchangeCode(context.Background(), "code-1", "https://lms.example.com/start")
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if token.AccessToken != "at-1" || token.RefreshToken != "rt-2" {
		t.Errorf("unexpected token set %+v", token)
	}
}

func TestExchangeCodeProviderErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}))
	defer server.Close()

	c := testClient(server.URL, server.URL)
	_, appErr := c.ExchangeCode(context.Background(), "bad", "https://lms.example.com/start")
	if appErr == nil {
		t.Fatal("expected an error")
	}
	if appErr.Code != errors.ErrExchangeFailed {
		t.Errorf("expected %s, got %s", errors.ErrExchangeFailed, appErr.Code)
	}
}

func TestListApprovedRegistrantsFollowsPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page_number")
		if got := r.URL.Query().Get("status"); got != "approved" {
			t.Errorf("expected approved filter, got %q", got)
		}
		switch page {
		case "1":
			json.NewEncoder(w).Encode(registrantPage{
				PageCount:   2,
				Registrants: []Registrant{{ID: "r1", Email: "a@x.com", JoinURL: "u1"}},
			})
		case "2":
			json.NewEncoder(w).Encode(registrantPage{
				PageCount:   2,
				Registrants: []Registrant{{ID: "r2", Email: "b@x.com", JoinURL: "u2"}},
			})
		default:
			t.Errorf("unexpected page %q", page)
		}
	}))
	defer server.Close()

	c := testClient(server.URL, server.URL)
	got := c.ListApprovedRegistrants(context.Background(), "tok", "91234")
	if len(got) != 2 {
		t.Fatalf("expected 2 registrants across pages, got %d", len(got))
	}
	if got[1].Email != "b@x.com" {
		t.Errorf("unexpected second page entry %+v", got[1])
	}
}

func TestListApprovedRegistrantsKeepsPartialResultOnPageError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page_number") == "1" {
			json.NewEncoder(w).Encode(registrantPage{
				PageCount:   3,
				Registrants: []Registrant{{ID: "r1", Email: "a@x.com", JoinURL: "u1"}},
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := testClient(server.URL, server.URL)
	got := c.ListApprovedRegistrants(context.Background(), "tok", "91234")
	if len(got) != 1 {
		t.Fatalf("expected the first page to survive, got %d entries", len(got))
	}
}
