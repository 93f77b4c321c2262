package models

import (
	"strings"

	dErrors "approval-gateway/pkg/domain-errors"
)

// BindingMessageLimit bounds the user-visible description derived from the
// triggering question.
const BindingMessageLimit = 200

// CreateRequest opens a new authorization request for the authenticated subject.
type CreateRequest struct {
	BindingMessage string `json:"bindingMessage"`
	Scope          string `json:"scope,omitempty"`
}

// Normalize applies business defaults and sanitizes inputs.
func (r *CreateRequest) Normalize() {
	if r == nil {
		return
	}
	r.BindingMessage = strings.TrimSpace(r.BindingMessage)
	if runes := []rune(r.BindingMessage); len(runes) > BindingMessageLimit {
		r.BindingMessage = string(runes[:BindingMessageLimit])
	}
	r.Scope = strings.TrimSpace(r.Scope)
	if r.Scope == "" {
		r.Scope = DefaultScope
	}
}

// Validate checks that the request is well-formed.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.BindingMessage == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "bindingMessage is required")
	}
	return nil
}

// ResolveRequest carries a user's approve/deny decision.
type ResolveRequest struct {
	AuthReqID string `json:"authReqId"`
	Action    Action `json:"action"`
}

// Validate checks that the request is well-formed.
func (r *ResolveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if strings.TrimSpace(r.AuthReqID) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "authReqId is required")
	}
	if !r.Action.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "action must be approved or denied")
	}
	return nil
}

// PollRequest asks for the current outcome of a request. The access token and
// provider domain are only used on the approved path to fetch the profile.
type PollRequest struct {
	AuthReqID      string `json:"authReqId"`
	AccessToken    string `json:"accessToken,omitempty"`
	ProviderDomain string `json:"providerDomain,omitempty"`
}

// Validate checks that the request is well-formed.
func (r *PollRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if strings.TrimSpace(r.AuthReqID) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "authReqId is required")
	}
	return nil
}
