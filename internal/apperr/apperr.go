// Package apperr defines the error taxonomy shared across the agent loop,
// API client, and CLI. Errors are distinguished by behavior (how the caller
// should react), not by type hierarchy, per the session's error handling
// design: transport/protocol/request-too-large/cancelled abort a turn with
// rollback, tool/permission errors become ToolResult content instead.
package apperr

import (
	"errors"
	"fmt"
)

// Category classifies an error for the purposes of turn rollback and
// user-facing messaging.
type Category int

const (
	// CategoryTransport is a network/TLS/SSE connection failure.
	CategoryTransport Category = iota
	// CategoryProtocol is a bad HTTP status from the API.
	CategoryProtocol
	// CategoryRequestTooLarge is a pre-flight body size check failure.
	CategoryRequestTooLarge
	// CategoryCancelled is a cooperative cancellation.
	CategoryCancelled
	// CategoryConfig is a malformed settings file (caller should ignore and
	// fall back to defaults; this category exists for logging only).
	CategoryConfig
	// CategoryAuth is an authentication failure.
	CategoryAuth
)

// Error wraps an underlying cause with a Category and a user-facing message.
type Error struct {
	Category Category
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(cat Category, message string, cause error) *Error {
	return &Error{Category: cat, Message: message, Cause: cause}
}

// ErrCancelled is returned by the agent loop and API client when the
// caller's cancellation token fires mid-turn.
var ErrCancelled = &Error{Category: CategoryCancelled, Message: "Stopped."}

// ErrRequestTooLarge is returned by the API client's pre-flight guard.
var ErrRequestTooLarge = &Error{Category: CategoryRequestTooLarge, Message: "conversation too long; /clear"}

// IsCancelled reports whether err is (or wraps) a cancellation error.
func IsCancelled(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Category == CategoryCancelled
	}
	return false
}

// CategoryOf reports the Category of err, or CategoryTransport if err does
// not carry one (the conservative default: treat unknown errors as
// turn-aborting transport failures).
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryTransport
}
