package errors

import (
	"fmt"
)

// CommandError is raised when a user-facing command cannot complete
type CommandError struct {
	*HeraldError
}

// NewCommandError creates a new command error
func NewCommandError(command string, cause error) *CommandError {
	return &CommandError{
		HeraldError: &HeraldError{
			Message: fmt.Sprintf("Command '%s' failed", command),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: command,
				Component: "Command Handler",
				Suggestions: []string{
					"Try with --debug flag for more information",
				},
			},
			ExitCode: ExitCodeOf(cause),
		},
	}
}

// NotificationError is raised when a scheduled notification cannot be delivered
type NotificationError struct {
	*HeraldError
}

// NewNotificationError creates a new notification error
func NewNotificationError(reason string, cause error) *NotificationError {
	return &NotificationError{
		HeraldError: &HeraldError{
			Message: fmt.Sprintf("Notification failed: %s", reason),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Scheduled Notification",
				Component: "NotifyHandler",
				Suggestions: []string{
					"Check notification.webhook_url",
					"Review the log file for details",
				},
			},
			ExitCode: ExitIOError,
		},
	}
}

// PaperSourceError is raised when the paper index cannot be queried
type PaperSourceError struct {
	*HeraldError
	StatusCode int
}

// NewPaperSourceError creates a new paper source error
func NewPaperSourceError(query string, statusCode int, cause error) *PaperSourceError {
	return &PaperSourceError{
		HeraldError: &HeraldError{
			Message: fmt.Sprintf("Paper search failed for %q", query),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Paper Search",
				Component: "arXiv Client",
				Details: map[string]interface{}{
					"query":       query,
					"status_code": statusCode,
				},
				Recoverable: statusCode == 0 || statusCode == 429 || statusCode >= 500,
			},
			ExitCode: ExitPaperError,
		},
		StatusCode: statusCode,
	}
}

// Transient reports whether retrying the same query may succeed.
func (e *PaperSourceError) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}
