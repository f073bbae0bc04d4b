// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Tag generation errors.
var (
	// ErrModelCall indicates the language model request failed (network, status, body).
	ErrModelCall = errors.New("model call failed")

	// ErrParse indicates the model output contained no decodable JSON.
	ErrParse = errors.New("model output is not valid JSON")

	// ErrSchemaValidation indicates the JSON decoded but violates the tag payload schema.
	ErrSchemaValidation = errors.New("model output failed schema validation")

	// ErrUnresolvedTagReference indicates an association names a tag missing from the same payload.
	ErrUnresolvedTagReference = errors.New("association references unknown tag")

	// ErrRetriesExhausted indicates every generation attempt failed.
	ErrRetriesExhausted = errors.New("tag generation retries exhausted")
)

// Storage errors.
var (
	// ErrDuplicate indicates a unique constraint rejected the write.
	ErrDuplicate = errors.New("duplicate key")

	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")
)

// Response and parsing errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates the configuration is inconsistent.
	ErrInvalidConfig = errors.New("invalid config")
)

// IsRetryable reports whether a failed generation attempt may be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrModelCall) ||
		errors.Is(err, ErrParse) ||
		errors.Is(err, ErrSchemaValidation)
}

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
