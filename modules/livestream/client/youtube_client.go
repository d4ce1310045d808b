package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"zoom-lms-api/core/config"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/logger"
	"zoom-lms-api/core/metrics"
)

// YouTubeClient wraps the broadcast-provider Data API. Like the meeting
// client it is stateless and takes the caller's access token on every call.
type YouTubeClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    metrics.Collector
}

func NewYouTubeClient(cfg config.GoogleConfig, collector metrics.Collector) *YouTubeClient {
	return &YouTubeClient{
		baseURL:    cfg.YouTubeBaseURL,
		httpClient: &http.Client{Timeout: constants.HTTPClientTimeout},
		metrics:    collector,
	}
}

// ===================== Wire types =====================

type Broadcast struct {
	ID              string
	Title           string
	ScheduledStart  time.Time
	LifeCycleStatus string
}

type Stream struct {
	ID           string
	StreamKey    string
	StreamServer string
}

type broadcastResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title              string    `json:"title"`
		ScheduledStartTime time.Time `json:"scheduledStartTime"`
	} `json:"snippet"`
	Status struct {
		LifeCycleStatus string `json:"lifeCycleStatus"`
	} `json:"status"`
}

type streamResource struct {
	ID  string `json:"id"`
	CDN struct {
		IngestionInfo struct {
			StreamName       string `json:"streamName"`
			IngestionAddress string `json:"ingestionAddress"`
		} `json:"ingestionInfo"`
	} `json:"cdn"`
}

type listEnvelope struct {
	Items []json.RawMessage `json:"items"`
}

// ===================== Broadcasts =====================

// InsertBroadcast creates a scheduled live broadcast and hands back its id.
func (c *YouTubeClient) InsertBroadcast(ctx context.Context, accessToken string, title string, description string, startTime time.Time, privacyStatus string) (*Broadcast, *errors.AppError) {
	endpoint := c.endpoint("/liveBroadcasts", url.Values{"part": {"id,snippet,contentDetails,status"}})
	body := map[string]any{
		"snippet": map[string]any{
			"title":              title,
			"description":        description,
			"scheduledStartTime": startTime.UTC().Format(time.RFC3339),
		},
		"contentDetails": map[string]any{
			"enableAutoStart": true,
			"enableAutoStop":  true,
		},
		"status": map[string]any{
			"privacyStatus":           privacyStatus,
			"selfDeclaredMadeForKids": false,
		},
	}

	resp, appErr := c.doJSON(ctx, http.MethodPost, endpoint, accessToken, body)
	if appErr != nil {
		return nil, appErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		logger.Error("YouTubeClient:InsertBroadcast:ProviderError", "status", resp.StatusCode, "body", string(raw))
		return nil, errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("broadcast insert failed: %d", resp.StatusCode), nil)
	}

	var created broadcastResource
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, errors.NewAppError(errors.ErrDownstream, "failed to parse broadcast response", err)
	}
	c.metrics.RecordBroadcastCreated()
	return &Broadcast{
		ID:              created.ID,
		Title:           created.Snippet.Title,
		ScheduledStart:  created.Snippet.ScheduledStartTime,
		LifeCycleStatus: created.Status.LifeCycleStatus,
	}, nil
}

// UpdateBroadcast rewrites the title, description and start time of an
// existing broadcast.
func (c *YouTubeClient) UpdateBroadcast(ctx context.Context, accessToken string, broadcastID string, title string, description string, startTime time.Time) *errors.AppError {
	endpoint := c.endpoint("/liveBroadcasts", url.Values{"part": {"id,snippet"}})
	body := map[string]any{
		"id": broadcastID,
		"snippet": map[string]any{
			"title":              title,
			"description":        description,
			"scheduledStartTime": startTime.UTC().Format(time.RFC3339),
		},
	}

	resp, appErr := c.doJSON(ctx, http.MethodPut, endpoint, accessToken, body)
	if appErr != nil {
		return appErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		logger.Error("YouTubeClient:UpdateBroadcast:ProviderError",
			"status", resp.StatusCode, "broadcast_id", broadcastID, "body", string(raw))
		return errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("broadcast update failed: %d", resp.StatusCode), nil)
	}
	return nil
}

// DeleteBroadcast removes a broadcast. Used to undo a creation that could
// not be recorded locally.
func (c *YouTubeClient) DeleteBroadcast(ctx context.Context, accessToken string, broadcastID string) *errors.AppError {
	endpoint := c.endpoint("/liveBroadcasts", url.Values{"id": {broadcastID}})

	resp, appErr := c.doJSON(ctx, http.MethodDelete, endpoint, accessToken, nil)
	if appErr != nil {
		return appErr
	}
	status := resp.StatusCode
	resp.Body.Close()

	if status != http.StatusNoContent && status != http.StatusOK {
		logger.Error("YouTubeClient:DeleteBroadcast:ProviderError", "status", status, "broadcast_id", broadcastID)
		return errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("broadcast delete failed: %d", status), nil)
	}
	return nil
}

// BroadcastStatus looks up the life cycle status of a broadcast. A missing
// broadcast yields an empty status with no error; credential or permission
// failures are reported as an unknown status so callers do not mistake them
// for a consumed broadcast.
func (c *YouTubeClient) BroadcastStatus(ctx context.Context, accessToken string, broadcastID string) (string, *errors.AppError) {
	endpoint := c.endpoint("/liveBroadcasts", url.Values{
		"part": {"id,status"},
		"id":   {broadcastID},
	})

	resp, appErr := c.doJSON(ctx, http.MethodGet, endpoint, accessToken, nil)
	if appErr != nil {
		return "", errors.NewAppError(errors.ErrLiveStatusUnknown, "broadcast status unavailable", appErr.Err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		logger.Error("YouTubeClient:BroadcastStatus:AuthError", "status", resp.StatusCode, "broadcast_id", broadcastID)
		return "", errors.NewAppError(errors.ErrLiveStatusUnknown, "broadcast status unavailable", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("broadcast status failed: %d", resp.StatusCode), nil)
	}

	var list struct {
		Items []broadcastResource `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return "", errors.NewAppError(errors.ErrDownstream, "failed to parse broadcast list", err)
	}
	if len(list.Items) == 0 {
		return "", nil
	}
	return list.Items[0].Status.LifeCycleStatus, nil
}

// ===================== Streams =====================

// InsertStream creates an RTMP ingestion point and returns its key and
// server address.
func (c *YouTubeClient) InsertStream(ctx context.Context, accessToken string, title string) (*Stream, *errors.AppError) {
	endpoint := c.endpoint("/liveStreams", url.Values{"part": {"id,snippet,cdn,contentDetails,status"}})
	body := map[string]any{
		"snippet": map[string]any{
			"title": title,
		},
		"cdn": map[string]any{
			"frameRate":     "variable",
			"ingestionType": "rtmp",
			"resolution":    "variable",
		},
		"contentDetails": map[string]any{
			"isReusable": true,
		},
	}

	resp, appErr := c.doJSON(ctx, http.MethodPost, endpoint, accessToken, body)
	if appErr != nil {
		return nil, appErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		logger.Error("YouTubeClient:InsertStream:ProviderError", "status", resp.StatusCode, "body", string(raw))
		return nil, errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("stream insert failed: %d", resp.StatusCode), nil)
	}

	var created streamResource
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, errors.NewAppError(errors.ErrDownstream, "failed to parse stream response", err)
	}
	return &Stream{
		ID:           created.ID,
		StreamKey:    created.CDN.IngestionInfo.StreamName,
		StreamServer: created.CDN.IngestionInfo.IngestionAddress,
	}, nil
}

// BindBroadcast attaches a stream to a broadcast.
func (c *YouTubeClient) BindBroadcast(ctx context.Context, accessToken string, broadcastID string, streamID string) *errors.AppError {
	endpoint := c.endpoint("/liveBroadcasts/bind", url.Values{
		"part":     {"id,contentDetails"},
		"id":       {broadcastID},
		"streamId": {streamID},
	})

	resp, appErr := c.doJSON(ctx, http.MethodPost, endpoint, accessToken, nil)
	if appErr != nil {
		return appErr
	}
	status := resp.StatusCode
	resp.Body.Close()

	if status != http.StatusOK {
		logger.Error("YouTubeClient:BindBroadcast:ProviderError",
			"status", status, "broadcast_id", broadcastID, "stream_id", streamID)
		return errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("broadcast bind failed: %d", status), nil)
	}
	return nil
}

// ===================== Channel =====================

// HasChannel reports whether the token's account owns a channel. Probing
// failures surface as an error so callers never record a definite "no".
func (c *YouTubeClient) HasChannel(ctx context.Context, accessToken string) (bool, *errors.AppError) {
	endpoint := c.endpoint("/channels", url.Values{
		"part": {"id"},
		"mine": {"true"},
	})

	resp, appErr := c.doJSON(ctx, http.MethodGet, endpoint, accessToken, nil)
	if appErr != nil {
		return false, appErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, errors.NewAppError(errors.ErrDownstream,
			fmt.Sprintf("channel lookup failed: %d", resp.StatusCode), nil)
	}

	var list listEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return false, errors.NewAppError(errors.ErrDownstream, "failed to parse channel list", err)
	}
	return len(list.Items) > 0, nil
}

func (c *YouTubeClient) endpoint(path string, params url.Values) string {
	return fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
}

func (c *YouTubeClient) doJSON(ctx context.Context, method string, endpoint string, accessToken string, body any) (*http.Response, *errors.AppError) {
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
		logger.Error("YouTubeClient:doJSON:DoRequest:Error", "error", err, "method", method, "url", endpoint)
		return nil, errors.NewAppError(errors.ErrDownstream, "provider request failed", err)
	}
	c.metrics.RecordProviderStatus(constants.ProviderGoogle, resp.StatusCode)
	return resp, nil
}
