package skynet

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a Skynet response that a client operation could not use.
type APIError struct {
	Operation  string
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("skynet %s error (%s): %s: %v", e.Operation, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("skynet %s error (%s): %s", e.Operation, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for APIError.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewAPIError creates a new APIError.
func NewAPIError(operation, code, message string) *APIError {
	return &APIError{
		Operation: operation,
		Code:      code,
		Message:   message,
	}
}

// WithCause adds a cause to the error.
func (e *APIError) WithCause(err error) *APIError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *APIError) WithStatusCode(code int) *APIError {
	e.StatusCode = code
	return e
}

// TransportError wraps a failure of the underlying HTTP client.
type TransportError struct {
	Method string
	Path   string
	Cause  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Cause)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Cause}
}

// FieldError reports a required request parameter that was not supplied.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %q", ErrMissingField, e.Field)
}

func (e *FieldError) Unwrap() error {
	return ErrMissingField
}

// Sentinel errors.
var (
	// ErrMissingField indicates a required request parameter is absent.
	ErrMissingField = errors.New("missing required field")

	// ErrAuthenticationFailed indicates no usable security token was issued.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrTransport indicates the request never produced an HTTP response.
	ErrTransport = errors.New("transport failure")

	// ErrUnknownOperation indicates an operation name that the client does not expose.
	ErrUnknownOperation = errors.New("unknown operation")
)

// IsRetryable returns true if the error is worth retrying by the caller.
// The client itself never retries.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusInternalServerError {
		return true
	}
	return errors.Is(err, ErrTransport)
}
