package dto

import "encoding/json"

// ZoomEvent is the provider's webhook envelope. Fields are pointers so the
// dispatcher can refuse envelopes with missing keys instead of acting on
// zero values. The meeting id arrives as a bare number or a string
// depending on the event; json.Number absorbs both.
type ZoomEvent struct {
	Event   *string       `json:"event"`
	Payload *EventPayload `json:"payload"`
}

type EventPayload struct {
	AccountID *string      `json:"account_id"`
	Object    *EventObject `json:"object"`
}

type EventObject struct {
	ID     *json.Number `json:"id"`
	HostID *string      `json:"host_id"`
	Topic  string       `json:"topic"`
}
