// Package transport defines the boundary to the chat platform: outbound
// message delivery with typed errors, optional role assignment, and the
// admission-trigger abstraction every entry point converges through.
// The platform client itself lives outside this module.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a delivery failure.
type ErrorKind string

const (
	// KindRateLimited failures are retryable with backoff.
	KindRateLimited ErrorKind = "rate_limited"
	// KindForbidden means the user does not accept direct messages.
	// Not retryable; callers fall back to a channel notification.
	KindForbidden ErrorKind = "forbidden"
	// KindOther covers every remaining delivery error. Not retryable.
	KindOther ErrorKind = "error"
)

// DeliveryError is a typed failure from the chat platform.
type DeliveryError struct {
	Kind ErrorKind
	Err  error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery %s: %v", e.Kind, e.Err)
	}
	return "delivery " + string(e.Kind)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// RateLimited wraps err as a retryable rate-limit delivery failure.
func RateLimited(err error) error {
	return &DeliveryError{Kind: KindRateLimited, Err: err}
}

// Forbidden wraps err as a DMs-disabled delivery failure.
func Forbidden(err error) error {
	return &DeliveryError{Kind: KindForbidden, Err: err}
}

// IsRateLimited reports whether err is a rate-limit delivery failure.
func IsRateLimited(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Kind == KindRateLimited
}

// IsForbidden reports whether err is a DMs-disabled delivery failure.
func IsForbidden(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Kind == KindForbidden
}

// Messenger delivers outbound messages through the chat platform.
type Messenger interface {
	SendDirect(ctx context.Context, userID, content string) error
	SendChannel(ctx context.Context, channelID, content string) error
}

// RoleAssigner grants a platform role after a verification decision.
// Implementations live with the platform client; a nil assigner is allowed
// and means role grants are left to the operator.
type RoleAssigner interface {
	AssignRole(ctx context.Context, userID, roleID string) error
}

// AdminChecker answers whether a user holds an administrator role in the
// target community.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}
