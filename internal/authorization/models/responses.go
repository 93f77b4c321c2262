package models

import "time"

// CreateResponse returns the caller-visible identifier of a new request.
type CreateResponse struct {
	AuthReqID string `json:"authReqId"`
}

// PendingRequest is one live entry in a subject's approval queue.
type PendingRequest struct {
	AuthReqID      string    `json:"authReqId"`
	BindingMessage string    `json:"bindingMessage"`
	Scope          string    `json:"scope"`
	CreatedAt      time.Time `json:"createdAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// ListResponse wraps a subject's pending requests, newest first.
type ListResponse struct {
	Requests []PendingRequest `json:"requests"`
	Count    int              `json:"count"`
}

// ResolveResponse echoes the action taken on success.
type ResolveResponse struct {
	Action  Action `json:"action"`
	Message string `json:"message"`
}

// Outcome is the service-level snapshot of a poll.
type Outcome struct {
	Status   Status
	Response string
}

// PollResponse is the wire form of a poll outcome. Response is only set when
// the request is approved.
type PollResponse struct {
	Status   Status `json:"status"`
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
}
