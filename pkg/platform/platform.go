// Package platform defines the external clients action nodes act through.
package platform

import (
	"context"
	"errors"
	"fmt"
)

// Failure reasons reported by platform clients.
const (
	ReasonRateLimited      = "rate_limited"
	ReasonPermissionDenied = "permission_denied"
	ReasonInvalidToken     = "invalid_token"
	ReasonUserBlocked      = "user_blocked"
	ReasonInvalidRequest   = "invalid_request"
	ReasonUnavailable      = "platform_unavailable"
	ReasonNetwork          = "network_error"
)

// Client is the social platform API as seen by the dispatcher.
type Client interface {
	SendMessage(ctx context.Context, recipientID, text string) error
	ReplyToComment(ctx context.Context, commentID, text string) error
}

// Failure is a classified remote failure.
type Failure struct {
	Reason     string
	StatusCode int
	Message    string
	Temporary  bool // Worth retrying with backoff
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return fmt.Sprintf("%s (HTTP %d): %s", f.Reason, f.StatusCode, f.Message)
	}

	return fmt.Sprintf("%s (HTTP %d)", f.Reason, f.StatusCode)
}

// ReasonOf returns the failure reason carried by err, if any.
func ReasonOf(err error) (string, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Reason, true
	}

	return "", false
}

// StatusReason classifies an HTTP status without a platform error body.
func StatusReason(status int) (string, bool) {
	switch {
	case status == 429:
		return ReasonRateLimited, false
	case status == 401:
		return ReasonInvalidToken, false
	case status == 403:
		return ReasonPermissionDenied, false
	case status >= 500:
		return ReasonUnavailable, true
	default:
		return ReasonInvalidRequest, false
	}
}
