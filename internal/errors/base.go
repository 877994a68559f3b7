package errors

import (
	stderrors "errors"
	"fmt"
)

// HeraldError is the base error type for all application errors
type HeraldError struct {
	Message  string        // Human-readable error message
	Context  *ErrorContext // Rich error context
	Cause    error         // Underlying error (for wrapping)
	ExitCode ExitCode      // Exit code for CLI
}

// Error returns the error message with cause if present
func (e *HeraldError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *HeraldError) Unwrap() error {
	return e.Cause
}

// GetUserMessage returns a user-friendly error message with context
func (e *HeraldError) GetUserMessage() string {
	msg := fmt.Sprintf("ERROR: %s", e.Message)

	if e.Cause != nil {
		msg += fmt.Sprintf("\nCause: %v", e.Cause)
	}

	if e.Context != nil {
		msg += e.Context.Format()
	}

	return msg
}

// NewError creates a new HeraldError with the given message and exit code
func NewError(message string, exitCode ExitCode) *HeraldError {
	return &HeraldError{
		Message:  message,
		ExitCode: exitCode,
	}
}

// WrapError wraps an existing error with additional context
func WrapError(cause error, message string, exitCode ExitCode) *HeraldError {
	return &HeraldError{
		Message:  message,
		Cause:    cause,
		ExitCode: exitCode,
	}
}

// WrapErrorWithContext wraps an error with full context
func WrapErrorWithContext(cause error, message string, exitCode ExitCode, context *ErrorContext) *HeraldError {
	return &HeraldError{
		Message:  message,
		Context:  context,
		Cause:    cause,
		ExitCode: exitCode,
	}
}

// ExitCodeOf extracts the exit code carried by err, or ExitGeneralError.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var coded interface{ Code() ExitCode }
	if stderrors.As(err, &coded) {
		return coded.Code()
	}
	return ExitGeneralError
}

// Code returns the CLI exit code.
func (e *HeraldError) Code() ExitCode {
	return e.ExitCode
}

// UserMessage renders err for humans. Errors outside the taxonomy fall back to Error().
func UserMessage(err error) string {
	var um interface{ GetUserMessage() string }
	if stderrors.As(err, &um) {
		return um.GetUserMessage()
	}
	return fmt.Sprintf("ERROR: %v", err)
}
