package dto

import "time"

// ===================== Request DTOs =====================

// ScheduleMeetingRequest creates or reschedules a provider meeting.
type ScheduleMeetingRequest struct {
	Title             string    `json:"title" validate:"required"`
	Agenda            string    `json:"agenda"`
	StartTime         time.Time `json:"start_time" validate:"required"`
	Duration          string    `json:"duration" validate:"required"`
	RestrictedAccess  bool      `json:"restricted_access"`
	EmailNotification bool      `json:"email_notification"`
}

// StartMeetingData is the host-start payload, carried base64-encoded in the
// OAuth redirect. Fields are pointers so a missing key can be told apart
// from a zero value.
type StartMeetingData struct {
	MeetingID         *string `json:"meeting_id"`
	UsageKey          *string `json:"usage_key"`
	RestrictedAccess  *bool   `json:"restricted_access"`
	EmailNotification *bool   `json:"email_notification"`
	LivestreamEnabled *bool   `json:"livestream_enabled"`
}

// ===================== Response DTOs =====================

type ScheduleMeetingResponse struct {
	MeetingID string `json:"meeting_id"`
	StartURL  string `json:"start_url"`
	JoinURL   string `json:"join_url"`
}

type StartMeetingResponse struct {
	StartURL string `json:"start_url"`
}

// Join URL lookup statuses.
const (
	JoinStatusSuccess    = "SUCCESS"
	JoinStatusNotStarted = "NOT_STARTED"
	JoinStatusNotFound   = "NOT_FOUND"
)

// JoinURLResponse answers a student's join URL lookup. Status is SUCCESS,
// NOT_STARTED when the host has not run the registration yet, or NOT_FOUND
// for an unknown meeting.
type JoinURLResponse struct {
	Status  string `json:"status"`
	JoinURL string `json:"join_url,omitempty"`
}
