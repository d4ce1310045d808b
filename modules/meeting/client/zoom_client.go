package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"zoom-lms-api/core/config"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/logger"
	"zoom-lms-api/core/metrics"
)

// ZoomClient wraps the meeting-provider REST API. It is stateless: every
// call takes the access token to use, so one client serves all users.
type ZoomClient struct {
	apiBaseURL          string
	oauthBaseURL        string
	authorizationSecret string
	httpClient          *http.Client
	metrics             metrics.Collector

	// Overridable for tests; production values come from constants.
	backoff    time.Duration
	maxRetries int
	sleep      func(time.Duration)
}

func NewZoomClient(cfg config.ZoomConfig, collector metrics.Collector) *ZoomClient {
	return &ZoomClient{
		apiBaseURL:          cfg.APIBaseURL,
		oauthBaseURL:        cfg.OAuthBaseURL,
		authorizationSecret: cfg.AuthorizationSecret,
		httpClient:          &http.Client{Timeout: constants.HTTPClientTimeout},
		metrics:             collector,
		backoff:             constants.ZoomRateLimitBackoff,
		maxRetries:          constants.ZoomRateLimitMaxRetries,
		sleep:               time.Sleep,
	}
}

// ===================== Wire types =====================

// TokenResponse is the OAuth token endpoint payload. Error is set when the
// provider returns an error body with a 2xx-shaped JSON response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	Error        string `json:"error"`
	Reason       string `json:"reason"`
}

type MeetingSettings struct {
	UsePMI                       bool  `json:"use_pmi"`
	ApprovalType                 *int  `json:"approval_type,omitempty"`
	RegistrantsEmailNotification *bool `json:"registrants_email_notification,omitempty"`
}

type MeetingRequest struct {
	Topic     string          `json:"topic"`
	Type      int             `json:"type"`
	StartTime string          `json:"start_time"`
	Duration  string          `json:"duration"`
	Timezone  string          `json:"timezone"`
	Agenda    string          `json:"agenda"`
	Password  *string         `json:"password,omitempty"`
	Settings  MeetingSettings `json:"settings"`
}

type MeetingResponse struct {
	ID       json.Number `json:"id"`
	StartURL string      `json:"start_url"`
	JoinURL  string      `json:"join_url"`
	Topic    string      `json:"topic"`
}

type RegistrantRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RegistrantResponse struct {
	RegistrantID string `json:"registrant_id"`
	JoinURL      string `json:"join_url"`
}

// RegistrantRef identifies a registrant in a status update call.
type RegistrantRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Registrant struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	JoinURL string `json:"join_url"`
}

type registrantPage struct {
	PageCount   int          `json:"page_count"`
	Registrants []Registrant `json:"registrants"`
}

type UserProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Type      int    `json:"type"`
}

type UserSettings struct {
	InMeeting struct {
		CustomLiveStreamingService bool `json:"custom_live_streaming_service"`
	} `json:"in_meeting"`
}

// ===================== OAuth =====================

// ExchangeCode trades an authorization code for a token set.
func (c *ZoomClient) ExchangeCode(ctx context.Context, code string, redirectURI string) (*TokenResponse, *errors.AppError) {
	params := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}
	token, appErr := c.requestToken(ctx, params)
	if appErr != nil {
		return nil, errors.NewAppError(errors.ErrExchangeFailed, appErr.Message, appErr.Err)
	}
	return token, nil
}

// RefreshAccessToken trades a refresh token for a new token set. The
// response carries a rotated refresh token the caller must persist.
func (c *ZoomClient) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, *errors.AppError) {
	params := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	token, appErr := c.requestToken(ctx, params)
	if appErr != nil {
		return nil, errors.NewAppError(errors.ErrRefreshFailed, appErr.Message, appErr.Err)
	}
	return token, nil
}

func (c *ZoomClient) requestToken(ctx context.Context, params url.Values) (*TokenResponse, *errors.AppError) {
	endpoint := fmt.Sprintf("%s/token?%s", c.oauthBaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create token request", err)
	}
	req.Header.Set("Authorization", "Basic "+c.authorizationSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("ZoomClient:requestToken:DoRequest:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrDownstream, "token request failed", err)
	}
	defer resp.Body.Close()
	c.metrics.RecordProviderStatus(constants.ProviderZoom, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrDownstream, "failed to read token response", err)
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		logger.Error("ZoomClient:requestToken:Unmarshal:Error", "error", err, "status", resp.StatusCode)
		return nil, errors.NewAppError(errors.ErrDownstream, "json response error", err)
	}
	if token.Error != "" || resp.StatusCode != http.StatusOK {
		logger.Error("ZoomClient:requestToken:ProviderError",
			"status", resp.StatusCode, "provider_error", token.Error, "reason", token.Reason)
		return nil, errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("token endpoint error: %s", token.Error), nil)
	}
	return &token, nil
}

// ===================== Meetings =====================

// CreateMeeting schedules a new meeting for the token's user. The provider
// status code is returned so callers can pass non-201 responses through.
func (c *ZoomClient) CreateMeeting(ctx context.Context, accessToken string, body *MeetingRequest) (*MeetingResponse, int, *errors.AppError) {
	endpoint := fmt.Sprintf("%s/users/me/meetings", c.apiBaseURL)
	resp, appErr := c.doJSON(ctx, http.MethodPost, endpoint, accessToken, body)
	if appErr != nil {
		return nil, 0, appErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		logger.Error("ZoomClient:CreateMeeting:ProviderError", "status", resp.StatusCode, "body", string(raw))
		return nil, resp.StatusCode, errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("meeting create failed: %d", resp.StatusCode), nil)
	}

	var meeting MeetingResponse
	if err := json.NewDecoder(resp.Body).Decode(&meeting); err != nil {
		return nil, resp.StatusCode, errors.NewAppError(errors.ErrDownstream, "failed to parse meeting response", err)
	}
	return &meeting, resp.StatusCode, nil
}

// UpdateMeeting patches an existing meeting. A 204 means success.
func (c *ZoomClient) UpdateMeeting(ctx context.Context, accessToken string, meetingID string, body *MeetingRequest) (int, *errors.AppError) {
	endpoint := fmt.Sprintf("%s/meetings/%s", c.apiBaseURL, meetingID)
	resp, appErr := c.doJSON(ctx, http.MethodPatch, endpoint, accessToken, body)
	if appErr != nil {
		return 0, appErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		raw, _ := io.ReadAll(resp.Body)
		logger.Error("ZoomClient:UpdateMeeting:ProviderError",
			"status", resp.StatusCode, "meeting_id", meetingID, "body", string(raw))
		return resp.StatusCode, errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("meeting update failed: %d", resp.StatusCode), nil)
	}
	return resp.StatusCode, nil
}

func (c *ZoomClient) GetUserProfile(ctx context.Context, accessToken string) (*UserProfile, *errors.AppError) {
	endpoint := fmt.Sprintf("%s/users/me", c.apiBaseURL)
	resp, appErr := c.doJSON(ctx, http.MethodGet, endpoint, accessToken, nil)
	if appErr != nil {
		return nil, appErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("user profile failed: %d", resp.StatusCode), nil)
	}
	var profile UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, errors.NewAppError(errors.ErrDownstream, "failed to parse user profile", err)
	}
	return &profile, nil
}

// GetUserSettings reads the user settings; used to probe whether the account
// allows custom live streaming.
func (c *ZoomClient) GetUserSettings(ctx context.Context, accessToken string) (*UserSettings, *errors.AppError) {
	endpoint := fmt.Sprintf("%s/users/me/settings", c.apiBaseURL)
	resp, appErr := c.doJSON(ctx, http.MethodGet, endpoint, accessToken, nil)
	if appErr != nil {
		return nil, appErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("user settings failed: %d", resp.StatusCode), nil)
	}
	var settings UserSettings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return nil, errors.NewAppError(errors.ErrDownstream, "failed to parse user settings", err)
	}
	return &settings, nil
}

// ===================== Registrants =====================

// CreateRegistrant registers one student on a meeting. Rate-limited calls
// (429) are retried after a fixed pause, bounded by maxRetries; exhausting
// the retries surfaces as a registration failure for this student only.
func (c *ZoomClient) CreateRegistrant(ctx context.Context, accessToken string, meetingID string, registrant *RegistrantRequest) (*RegistrantResponse, *errors.AppError) {
	endpoint := fmt.Sprintf("%s/meetings/%s/registrants", c.apiBaseURL, meetingID)

	for attempt := 0; ; attempt++ {
		resp, appErr := c.doJSON(ctx, http.MethodPost, endpoint, accessToken, registrant)
		if appErr != nil {
			return nil, appErr
		}

		if resp.StatusCode == http.StatusCreated {
			var created RegistrantResponse
			err := json.NewDecoder(resp.Body).Decode(&created)
			resp.Body.Close()
			if err != nil {
				return nil, errors.NewAppError(errors.ErrDownstream, "failed to parse registrant response", err)
			}
			c.metrics.RecordRegistrantCreated()
			return &created, nil
		}

		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			logger.Warn("ZoomClient:CreateRegistrant:RateLimited",
				"meeting_id", meetingID, "retry", attempt+1)
			c.sleep(c.backoff)
			continue
		}

		logger.Error("ZoomClient:CreateRegistrant:Error",
			"status", resp.StatusCode, "meeting_id", meetingID, "body", string(raw))
		c.metrics.RecordRegistrantFailed()
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, errors.NewAppError(errors.ErrProviderRateLimited, "registrant create rate limited", nil)
		}
		return nil, errors.NewAppError(errors.ErrRegistrationFailed,
			fmt.Sprintf("registrant create failed: %d", resp.StatusCode), nil)
	}
}

// ApproveRegistrants sets a batch of registrants to approved, with the same
// rate-limit retry policy as CreateRegistrant. Callers must keep batches at
// or below constants.MaxRegistrantStatus entries.
func (c *ZoomClient) ApproveRegistrants(ctx context.Context, accessToken string, meetingID string, registrants []RegistrantRef) *errors.AppError {
	endpoint := fmt.Sprintf("%s/meetings/%s/registrants/status", c.apiBaseURL, meetingID)
	body := map[string]any{
		"action":      "approve",
		"registrants": registrants,
	}

	for attempt := 0; ; attempt++ {
		resp, appErr := c.doJSON(ctx, http.MethodPut, endpoint, accessToken, body)
		if appErr != nil {
			return appErr
		}
		status := resp.StatusCode
		resp.Body.Close()

		if status == http.StatusNoContent {
			return nil
		}
		if status == http.StatusTooManyRequests && attempt < c.maxRetries {
			logger.Warn("ZoomClient:ApproveRegistrants:RateLimited",
				"meeting_id", meetingID, "retry", attempt+1)
			c.sleep(c.backoff)
			continue
		}

		logger.Error("ZoomClient:ApproveRegistrants:Error", "status", status, "meeting_id", meetingID)
		if status == http.StatusTooManyRequests {
			return errors.NewAppError(errors.ErrProviderRateLimited, "registrant approval rate limited", nil)
		}
		return errors.NewAppError(errors.ErrRegistrationFailed,
			fmt.Sprintf("registrant approval failed: %d", status), nil)
	}
}

// ListApprovedRegistrants pages through the approved registrants of a
// meeting. Roster sync is best effort: a failing page stops pagination and
// whatever was accumulated so far is returned.
func (c *ZoomClient) ListApprovedRegistrants(ctx context.Context, accessToken string, meetingID string) []Registrant {
	registrants := []Registrant{}
	pageCount := 1

	for page := 1; page <= pageCount; page++ {
		params := url.Values{
			"status":      {"approved"},
			"page_size":   {strconv.Itoa(constants.RegistrantPageSize)},
			"page_number": {strconv.Itoa(page)},
		}
		endpoint := fmt.Sprintf("%s/meetings/%s/registrants?%s", c.apiBaseURL, meetingID, params.Encode())

		resp, appErr := c.doJSON(ctx, http.MethodGet, endpoint, accessToken, nil)
		if appErr != nil {
			logger.Error("ZoomClient:ListApprovedRegistrants:RequestError",
				"error", appErr, "meeting_id", meetingID, "page", page)
			return registrants
		}

		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			logger.Error("ZoomClient:ListApprovedRegistrants:PageError",
				"status", resp.StatusCode, "meeting_id", meetingID, "page", page, "body", string(raw))
			return registrants
		}

		var data registrantPage
		err := json.NewDecoder(resp.Body).Decode(&data)
		resp.Body.Close()
		if err != nil {
			logger.Error("ZoomClient:ListApprovedRegistrants:Unmarshal:Error",
				"error", err, "meeting_id", meetingID, "page", page)
			return registrants
		}
		pageCount = data.PageCount
		registrants = append(registrants, data.Registrants...)
	}
	return registrants
}

// ===================== Livestream =====================

// UpdateLivestream binds an external stream endpoint into the meeting's
// livestream settings.
func (c *ZoomClient) UpdateLivestream(ctx context.Context, accessToken string, meetingID string, streamURL string, streamKey string, pageURL string) *errors.AppError {
	endpoint := fmt.Sprintf("%s/meetings/%s/livestream", c.apiBaseURL, meetingID)
	body := map[string]string{
		"stream_url": streamURL,
		"stream_key": streamKey,
		"page_url":   pageURL,
	}

	resp, appErr := c.doJSON(ctx, http.MethodPatch, endpoint, accessToken, body)
	if appErr != nil {
		return appErr
	}
	status := resp.StatusCode
	resp.Body.Close()

	if status != http.StatusNoContent {
		logger.Error("ZoomClient:UpdateLivestream:Error", "status", status, "meeting_id", meetingID)
		return errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("livestream update failed: %d", status), nil)
	}
	return nil
}

// StartLivestream switches the meeting's livestream on.
func (c *ZoomClient) StartLivestream(ctx context.Context, accessToken string, meetingID string) *errors.AppError {
	endpoint := fmt.Sprintf("%s/meetings/%s/livestream/status", c.apiBaseURL, meetingID)
	body := map[string]any{
		"action": "start",
		"settings": map[string]any{
			"active_speaker_name": false,
			"display_name":        "Youtube",
		},
	}

	resp, appErr := c.doJSON(ctx, http.MethodPatch, endpoint, accessToken, body)
	if appErr != nil {
		return appErr
	}
	status := resp.StatusCode
	resp.Body.Close()

	if status != http.StatusNoContent {
		logger.Error("ZoomClient:StartLivestream:Error", "status", status, "meeting_id", meetingID)
		return errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("livestream start failed: %d", status), nil)
	}
	return nil
}

// doJSON issues one authenticated request. The caller owns the response
// body.
func (c *ZoomClient) doJSON(ctx context.Context, method string, endpoint string, accessToken string, body any) (*http.Response, *errors.AppError) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("ZoomClient:doJSON:DoRequest:Error", "error", err, "method", method, "url", endpoint)
		return nil, errors.NewAppError(errors.ErrDownstream, "provider request failed", err)
	}
	c.metrics.RecordProviderStatus(constants.ProviderZoom, resp.StatusCode)
	return resp, nil
}
