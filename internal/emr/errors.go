package emr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no matching patient or appointment upstream.
	ErrNotFound = errors.New("emr: not found")

	// ErrAlreadyCancelled indicates a cancel was requested for an
	// appointment already in cancelled status.
	ErrAlreadyCancelled = errors.New("emr: appointment already cancelled")
)

// AuthError indicates the OAuth client-credentials exchange failed. It is
// fatal for the current call and never retried automatically.
type AuthError struct {
	Status int    // HTTP status from the token endpoint, 0 on transport error
	Err    error  // underlying cause
	Body   string // truncated token endpoint response body
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("emr: token exchange failed (status %d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("emr: token exchange failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// UpstreamError indicates a non-success response or malformed payload from
// the EMR. Timeout marks deadline expiry; callers may treat those as
// transient on idempotent reads, never on mutations.
type UpstreamError struct {
	Status  int    // HTTP status, 0 on transport error
	Timeout bool   // the call hit its deadline
	Err     error  // underlying cause
	Body    string // truncated upstream response body
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("emr: upstream call timed out: %v", e.Err)
	case e.Status != 0:
		return fmt.Sprintf("emr: upstream error (status %d): %s", e.Status, e.Body)
	default:
		return fmt.Sprintf("emr: upstream call failed: %v", e.Err)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is an upstream timeout.
func IsTimeout(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Timeout
}
