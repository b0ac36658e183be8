package detection

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// Sentinel errors for common conditions.
var (
	// ErrNoModel is returned when the model file is missing.
	ErrNoModel = errors.New("detection: model file not found")

	// ErrNoLabels is returned when the label file is missing or empty.
	ErrNoLabels = errors.New("detection: no labels")

	// ErrEmptyImage is returned for nil or zero-sized images.
	ErrEmptyImage = errors.New("detection: empty image")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("detection: detector closed")

	// ErrNoCredentials is returned when no cloud credentials can be found.
	ErrNoCredentials = errors.New("detection: no cloud credentials")

	// ErrDetectorPanic is returned when a detector panicked.
	ErrDetectorPanic = errors.New("detection: detector panicked")

	// ErrUnknown is used for failures that carry no error.
	ErrUnknown = errors.New("detection: unknown failure")
)

// APIError represents an error response from the cloud vision API.
type APIError struct {
	// Code is the gRPC status code.
	Code codes.Code

	// Message is the error message from the API.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("detection [cloud]: API error %s: %s", e.Code, e.Message)
}

// IsRateLimited returns true if the quota was exhausted.
func (e *APIError) IsRateLimited() bool {
	return e.Code == codes.ResourceExhausted
}

// IsUnauthorized returns true for authentication and permission errors.
func (e *APIError) IsUnauthorized() bool {
	return e.Code == codes.Unauthenticated || e.Code == codes.PermissionDenied
}

// IsRetryable returns true if the request could succeed when retried.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.Code == codes.Unavailable || e.Code == codes.DeadlineExceeded
}
