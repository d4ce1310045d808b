package constants

import "time"

// Context keys
const (
	ContextTokenData = "token_data"
)

// HTTP defaults
const (
	DefaultTimeout     = 10 * time.Second
	HTTPClientTimeout  = 10 * time.Second
	ServerReadTimeout  = 15 * time.Second
	ServerWriteTimeout = 30 * time.Second
)

// Database defaults
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// OAuth providers
const (
	ProviderZoom   = "zoom"
	ProviderGoogle = "google"
)

// Redis key prefixes
const (
	RedisKeyOAuthState = "oauth_state:"
	OAuthStateTTL      = 10 * time.Minute
)

// Zoom API limits
const (
	// MaxRegistrantStatus is the maximum number of registrant ids accepted
	// by a single registrant status update call.
	MaxRegistrantStatus = 30

	// RegistrantPageSize is the page size used when listing approved
	// registrants (API maximum is 300).
	RegistrantPageSize = 300

	// ZoomRateLimitMaxRetries bounds how many times a rate-limited call is
	// retried before the caller gives up.
	ZoomRateLimitMaxRetries = 10

	// ZoomRateLimitBackoff is the pause between rate-limited retries.
	ZoomRateLimitBackoff = 1 * time.Second
)

// Broadcast history
const (
	// BroadcastIDsMaxLength is the storage budget for the space-separated
	// broadcast id history of a meeting. Appends that would exceed it are
	// refused instead of truncating history.
	BroadcastIDsMaxLength = 241
)

// Background tasks
const (
	TaskTypeRegisterMeetingUsers = "zoom:register_meeting_users"
	TaskTypeMeetingStartEmail    = "email:meeting_start"

	QueueDefault = "default"
	QueueHigh    = "high"
	QueueLow     = "low"

	// RegisterTaskTimeout bounds a single registration run; large rosters
	// with rate-limit retries can take minutes.
	RegisterTaskTimeout = 30 * time.Minute

	EmailRetryDelay = 30 * time.Second
	EmailMaxRetries = 5
)

// YouTube broadcast lifecycle status considered reusable.
const (
	BroadcastLifeCycleReady = "ready"
)
