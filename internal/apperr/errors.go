package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ValidationError reports a malformed or missing request field.
type ValidationError struct {
	Message string
	Details interface{}
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports an unknown room, message or invite token.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// AuthorizationError reports an actor touching a message it did not author.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// UpstreamTimeout reports an outbound call cancelled by its own deadline.
type UpstreamTimeout struct {
	Service string
	After   time.Duration
}

func (e *UpstreamTimeout) Error() string {
	return fmt.Sprintf("%s request timed out after %s", e.Service, e.After)
}

// UpstreamError reports a non-2xx answer from the chat provider or the LLM.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s error: status %d", e.Service, e.StatusCode)
}

// TransportError wraps any other failure reaching an upstream.
type TransportError struct {
	Service string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ConfigurationError is raised at startup when required settings are absent.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + strings.Join(e.Missing, ", ")
}

func Validation(message string) error {
	return &ValidationError{Message: message}
}

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func Forbidden(message string) error {
	return &AuthorizationError{Message: message}
}

// StatusCode maps an error from the taxonomy onto an HTTP status.
func StatusCode(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		forbidden  *AuthorizationError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

func IsTimeout(err error) bool {
	var timeout *UpstreamTimeout
	return errors.As(err, &timeout)
}
