package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced identity or message does
	// not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPayload is returned for a message with neither text nor
	// an attachment, or an unknown edge status.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrAlreadyRequested is returned for a duplicate friend request.
	ErrAlreadyRequested = errors.New("friend request already sent")
)

// StorageError wraps a persistence collaborator failure. Store write
// failures are always surfaced, never swallowed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
