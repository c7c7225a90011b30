// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Not-found and authorization sentinels. Handlers map these onto HTTP
// status codes; anything else coming out of a service is treated as an
// internal error and never shown to the caller verbatim.
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrPermissionDenied      = errors.New("permission denied")
)

// ValidationError marks client input that violates an invariant. The
// message is always specific enough for the caller to fix the request:
// it names the offending field, participant or amounts.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err (or anything it wraps) is a
// ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
