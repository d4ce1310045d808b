package entity

import (
	"time"
	"zoom-lms-api/core/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ZoomCredential holds the rotating refresh token for a user's Zoom account.
// The access token is short-lived and never persisted.
type ZoomCredential struct {
	UserID       uuid.UUID `db:"user_id"`
	RefreshToken string    `db:"refresh_token"`
	entity.BaseEntity
}

// GoogleCredential holds a user's Google OAuth credentials plus the YouTube
// permission flags computed during the authorization callback.
type GoogleCredential struct {
	UserID                uuid.UUID      `db:"user_id"`
	AccessToken           string         `db:"access_token"`
	RefreshToken          string         `db:"refresh_token"`
	TokenURI              string         `db:"token_uri"`
	Scopes                pq.StringArray `db:"scopes"`
	Expiry                *time.Time     `db:"expiry"`
	ChannelEnabled        bool           `db:"channel_enabled"`
	LivestreamEnabled     bool           `db:"livestream_enabled"`
	LivestreamZoomEnabled bool           `db:"livestream_zoom_enabled"`
	entity.BaseEntity
}

// Expired reports whether the access token must be refreshed before use.
// Both sides of the comparison are UTC.
func (c *GoogleCredential) Expired(now time.Time) bool {
	if c.Expiry == nil {
		return true
	}
	return !now.UTC().Before(c.Expiry.UTC())
}
