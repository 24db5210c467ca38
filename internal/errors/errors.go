package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewValidationError marks bad user input. The owning wizard step re-prompts
// without advancing.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: msg,
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("Database error: %s", underlyingMsg),
		UserMessage: "Something went wrong. Please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewAuthorizationError(msg string) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     msg,
		UserMessage: "You do not have permission to do that.",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

func NewNotFoundError(entity string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     fmt.Sprintf("%s not found", entity),
		UserMessage: fmt.Sprintf("%s not found. It may have been removed.", entity),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewConflictError names a registration conflict: duplicate registration,
// capacity reached, registration closed, event already past.
func NewConflictError(msg string) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     msg,
		UserMessage: msg,
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

func NewTransportError(cause error) *AppError {
	return &AppError{
		Code:        "E600",
		Message:     "Telegram delivery failed",
		UserMessage: "Message delivery failed. Please try again later.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E700",
		Message:     fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}
