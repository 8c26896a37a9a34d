package polydebate

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoToken is returned by operations that need a session token when none is stored
var ErrNoToken = errors.New("no session token")

// APIError is an application error reported by the backend (non-2xx response)
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// UnreachableError means the backend could not be reached at all
type UnreachableError struct {
	BaseURL string
	Err     error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("backend unreachable at %s", e.BaseURL)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// ValidationError blocks an action locally before any request is made
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsUnreachable reports whether err is an infrastructure outage
func IsUnreachable(err error) bool {
	var ue *UnreachableError
	return errors.As(err, &ue)
}

// IsValidation reports whether err was raised client-side
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StatusCode returns the HTTP status of an APIError, or 0
func StatusCode(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// IsUnauthorized reports whether the backend rejected the session
func IsUnauthorized(err error) bool {
	s := StatusCode(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// IsNotFound reports a 404 from the backend
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// ErrorCode returns the backend's machine-readable error code, or ""
func ErrorCode(err error) string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func genericStatusMessage(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return fmt.Sprintf("HTTP %d", status)
	}
	return fmt.Sprintf("HTTP %d: %s", status, text)
}
