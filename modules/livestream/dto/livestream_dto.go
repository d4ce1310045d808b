package dto

import "time"

// CreateBroadcastRequest creates a scheduled broadcast from the course
// studio and attaches it to a meeting.
type CreateBroadcastRequest struct {
	MeetingID string    `json:"meeting_id" validate:"required"`
	Title     string    `json:"title" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
}

type UpdateBroadcastRequest struct {
	BroadcastID string    `json:"broadcast_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	StartTime   time.Time `json:"start_time" validate:"required"`
}

type BroadcastResponse struct {
	BroadcastID  string `json:"broadcast_id"`
	StreamKey    string `json:"stream_key"`
	StreamServer string `json:"stream_server"`
	WatchURL     string `json:"watch_url"`
}

type StartLivestreamResponse struct {
	BroadcastID string `json:"broadcast_id"`
	WatchURL    string `json:"watch_url"`
	Reused      bool   `json:"reused"`
}
