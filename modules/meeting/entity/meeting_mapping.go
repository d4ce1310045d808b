package entity

import (
	"strings"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/entity"

	"github.com/google/uuid"
)

// MeetingMapping ties a provider meeting to its owner and to the course
// location it was scheduled from. The owner recorded here is the only user
// whose credential may operate on the meeting.
type MeetingMapping struct {
	MeetingID         string    `db:"meeting_id" json:"meeting_id"`
	UserID            uuid.UUID `db:"user_id" json:"user_id"`
	Title             string    `db:"title" json:"title"`
	CourseKey         string    `db:"course_key" json:"course_key"`
	UsageKey          string    `db:"usage_key" json:"usage_key"`
	RestrictedAccess  bool      `db:"restricted_access" json:"restricted_access"`
	EmailNotification bool      `db:"email_notification" json:"email_notification"`
	LivestreamEnabled bool      `db:"livestream_enabled" json:"livestream_enabled"`
	// BroadcastIDs is an append-only space-separated history; the last
	// entry is the active broadcast.
	BroadcastIDs string `db:"broadcast_ids" json:"broadcast_ids"`
	entity.BaseEntity
}

// LocationBound reports whether the mapping is pinned to a course unit yet.
// A meeting scheduled but never started has no location.
func (m *MeetingMapping) LocationBound() bool {
	return m.CourseKey != "" && m.UsageKey != ""
}

// OwnedBy reports whether userID is the recorded owner.
func (m *MeetingMapping) OwnedBy(userID uuid.UUID) bool {
	return m.UserID == userID
}

// LatestBroadcastID returns the most recent broadcast id, or "" when none
// was ever attached.
func (m *MeetingMapping) LatestBroadcastID() string {
	if m.BroadcastIDs == "" {
		return ""
	}
	parts := strings.Fields(m.BroadcastIDs)
	return parts[len(parts)-1]
}

// AppendBroadcastID adds an id to the history. The column has a fixed
// width; an append that would overflow it is refused and the history is
// left untouched.
func (m *MeetingMapping) AppendBroadcastID(id string) bool {
	next := id
	if m.BroadcastIDs != "" {
		next = m.BroadcastIDs + " " + id
	}
	if len(next) > constants.BroadcastIDsMaxLength {
		return false
	}
	m.BroadcastIDs = next
	return true
}
