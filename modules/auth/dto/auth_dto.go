package dto

// ZoomLoginResponse reports whether the caller holds a working meeting
// provider credential, and who the provider thinks they are.
type ZoomLoginResponse struct {
	Logged    bool   `json:"logged"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// GoogleLoginResponse reports the stored broadcast-provider credential and
// the permission flags last verified for it.
type GoogleLoginResponse struct {
	Logged                bool `json:"logged"`
	ChannelEnabled        bool `json:"channel"`
	LivestreamEnabled     bool `json:"livestream"`
	LivestreamZoomEnabled bool `json:"livestream_zoom"`
}

// LivePermissions is the result of probing both providers for streaming
// capability.
type LivePermissions struct {
	ChannelEnabled        bool `json:"channel"`
	LivestreamEnabled     bool `json:"livestream"`
	LivestreamZoomEnabled bool `json:"livestream_zoom"`
}

type GoogleAuthURLResponse struct {
	URL string `json:"url"`
}
