// Package apperrors defines the error taxonomy shared across the pipeline:
// validation, auth, not-found, transient and permanent backend failures.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError reports a bad or missing parameter. It is resolved at the
// edge of the pipeline and never reaches the backend.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// AuthError reports a missing, invalid or expired identity or credential.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s", e.Reason)
}

// NotFoundError reports that a target todo is absent or not owned by the caller.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// StatusError carries an HTTP-style status code from the backend. Whether it
// is transient (retryable) is decided by the resilience layer.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Code)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Message)
}

// PermanentError marks a failure that must never be retried, such as a
// malformed tool name.
type PermanentError struct {
	Reason string
}

func (e *PermanentError) Error() string {
	return e.Reason
}

// Humanize turns any pipeline error into a plain-language message suitable
// for the user. Raw status codes and stack traces never leak through here.
func Humanize(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}

	var aerr *AuthError
	if errors.As(err, &aerr) {
		return "I couldn't verify who you are. Please sign in again."
	}

	var nferr *NotFoundError
	if errors.As(err, &nferr) {
		return fmt.Sprintf("I couldn't find task %d in your list.", nferr.ID)
	}

	var serr *StatusError
	if errors.As(err, &serr) {
		if serr.Code >= 500 || serr.Code == 408 || serr.Code == 429 {
			return "The todo service is having trouble right now. Please try again in a moment."
		}
		return "The todo service rejected that request."
	}

	var perr *PermanentError
	if errors.As(err, &perr) {
		return perr.Reason
	}

	return "Something went wrong while handling that. Please try again."
}
