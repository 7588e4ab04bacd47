package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for different categories
var (
	// ErrMalformedChunk - backend emitted a stream fragment matching no recognized shape (fatal to the invocation, never retried)
	ErrMalformedChunk = errors.New("malformed chunk")

	// ErrUnknownTool - model requested a tool that is not registered (surfaced as a tool response, never aborts the conversation)
	ErrUnknownTool = errors.New("unknown tool")

	// ErrUnsupportedRole - message role not recognized by the backend adapter (rejected before sending)
	ErrUnsupportedRole = errors.New("unsupported role")

	// ErrNotFound - thread not found in the store
	ErrNotFound = errors.New("not found")

	// ErrCorrupt - persisted thread cannot be decoded
	ErrCorrupt = errors.New("corrupt record")

	// ErrAlreadyExists - generated thread id collides with an existing record
	ErrAlreadyExists = errors.New("already exists")

	// ErrIO - store read/write failure other than missing or corrupt records
	ErrIO = errors.New("io error")

	// ErrInvalidInput - caller violated the invocation contract
	ErrInvalidInput = errors.New("invalid input")
)

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsCategory checks if error belongs to a specific category.
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// NotFound wraps a message as not found.
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// Corrupt wraps a message as a corrupt record.
func Corrupt(message string) error {
	return fmt.Errorf("%s: %w", message, ErrCorrupt)
}

// AlreadyExists wraps a message as an id collision.
func AlreadyExists(message string) error {
	return fmt.Errorf("%s: %w", message, ErrAlreadyExists)
}

// InvalidInput wraps a message as a contract violation.
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// MalformedChunk wraps the raw payload of an unrecognized stream fragment
// so it survives into diagnostics.
func MalformedChunk(payload string) error {
	return fmt.Errorf("%w: %q", ErrMalformedChunk, payload)
}

// UnknownTool wraps the requested tool name.
func UnknownTool(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

// UnsupportedRole wraps the offending role.
func UnsupportedRole(role string) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedRole, role)
}
