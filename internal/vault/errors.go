// errors.go defines the error taxonomy for vault operations. Handlers map
// these to HTTP status codes; nothing below the handler layer knows about
// HTTP. Validation and authentication failures carry a user-facing message;
// storage failures wrap the underlying cause, which is logged but never
// serialized into a response.
package vault

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a genuinely absent record and a record owned
	// by a different user. The two are deliberately indistinguishable so a
	// probing caller cannot confirm that another owner's record exists.
	ErrNotFound = errors.New("record not found")

	// ErrNoFieldsToUpdate is returned when an update request carries no
	// changes. Raised before any store or codec call.
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)

// ValidationError reports user-correctable bad input (missing PIN, an empty
// update, a generation length that cannot satisfy the character-class
// guarantee). Maps to HTTP 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// AuthenticationError reports a failed credential: a missing or invalid
// session, or a wrong PIN. A wrong PIN is a failed credential, not an
// authorization boundary, so it maps to HTTP 401 rather than 403.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// NewAuthenticationError builds an AuthenticationError with the given message.
func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{Message: message}
}

// StorageError wraps a failure from the persistence layer. Maps to HTTP 500
// and is potentially retryable by the caller; the core performs no retries
// itself.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
