package errors

import (
	stdErrors "errors"
	"fmt"
)

// RemoteError is a domain error reported by the backing store, either as an
// "error" field in the response payload or as a failing HTTP status.
type RemoteError struct {
	Message    string
	StatusCode int
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// NewRemoteError creates a RemoteError
func NewRemoteError(statusCode int, message string) *RemoteError {
	return &RemoteError{Message: message, StatusCode: statusCode}
}

// IsRemoteError checks if err is a RemoteError
func IsRemoteError(err error) bool {
	var remoteErr *RemoteError
	return stdErrors.As(err, &remoteErr)
}
