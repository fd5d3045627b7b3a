package overseerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid overseerr configuration")
	// ErrNoConnection indicates connection failure
	ErrNoConnection = errors.New("failed to connect to overseerr")
	// ErrUnauthorized indicates authentication failure
	ErrUnauthorized = errors.New("unauthorized: invalid API key")
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("overseerr API error: status %d on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Is lets errors.Is match the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.IsNotFound()
	case ErrUnauthorized:
		return e.IsUnauthorized()
	}
	return false
}

// NetworkError wraps transport failures: refused connections, timeouts, DNS errors.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network request failed for %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is reports true for ErrNoConnection.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNoConnection
}

// PayloadError is returned when a successful response carries a body that cannot be decoded.
type PayloadError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
	Err        error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid JSON received from %s %s (status %d): %v", e.Method, e.Path, e.StatusCode, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// newAPIError builds an APIError, taking the message from the JSON "message" field when the
// body is a JSON object and from the raw text otherwise.
func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Method:     method,
		Path:       path,
		Body:       string(body),
	}

	var payload struct {
		Message *string `json:"message"`
	}
	switch {
	case json.Unmarshal(body, &payload) == nil:
		if payload.Message != nil {
			apiErr.Message = *payload.Message
		} else {
			apiErr.Message = "<unknown error message>"
		}
	case strings.TrimSpace(string(body)) != "":
		apiErr.Message = string(body)
	default:
		apiErr.Message = "<no error details>"
	}

	return apiErr
}
