package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrSessionNotFound    = fmt.Errorf("video session not found")
	ErrArtifactNotFound   = fmt.Errorf("artifact not found")

	// Input validation errors
	ErrInvalidInput     = fmt.Errorf("invalid input")
	ErrMissingArgument  = fmt.Errorf("missing required argument")
	ErrInvalidArgument  = fmt.Errorf("invalid argument")
	ErrInvalidFlag      = fmt.Errorf("invalid flag value")
	ErrInvalidFile      = fmt.Errorf("unsupported file format")
	ErrFileTooLarge     = fmt.Errorf("file too large")
	ErrDurationExceeded = fmt.Errorf("duration exceeds limit")
	ErrInvalidDuration  = fmt.Errorf("invalid duration")
	ErrInvalidURL       = fmt.Errorf("invalid URL")
	ErrNoSelection      = fmt.Errorf("no feature selected")
	ErrNoChapters       = fmt.Errorf("no chapters")

	// Wizard navigation errors
	ErrStepLocked = fmt.Errorf("step not reached yet")
)

// APIError is returned for every non-2xx backend response.
//
// Message holds the response body text, or the status text when the body is empty.
type APIError struct {
	StatusCode int
	Message    string
}

// NewAPIError builds an [APIError] from a status code and raw response body.
func NewAPIError(status int, body []byte) *APIError {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", ErrAPIRequest, e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match [ErrAPIRequest].
func (e *APIError) Unwrap() error { return ErrAPIRequest }

// Detail returns the "detail" field when the body is a JSON error document, else the raw message.
func (e *APIError) Detail() string {
	var doc struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal([]byte(e.Message), &doc); err != nil {
		return e.Message
	}
	if s, ok := doc.Detail.(string); ok && s != "" {
		return s
	}
	return e.Message
}

// UserMessage reduces err to a message suitable for inline display.
//
// API errors yield the server message; everything else yields err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail()
	}
	return err.Error()
}
