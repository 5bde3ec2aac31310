package ai

import (
	"fmt"
	"strings"
)

// GenerationError is returned when question/answer generation fails:
// provider unreachable, timeout, or malformed/incomplete output.
type GenerationError struct {
	Message   string
	Code      string // provider error code, if any
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("generation failed (%s): %s", e.Code, e.Message)
	}
	return "generation failed: " + e.Message
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *GenerationError) IsRetryable() bool {
	return e.Retryable
}

// GradingError is returned when answer grading fails, under the same
// conditions as GenerationError.
type GradingError struct {
	Message   string
	Code      string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *GradingError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("grading failed (%s): %s", e.Code, e.Message)
	}
	return "grading failed: " + e.Message
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *GradingError) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *GradingError) IsRetryable() bool {
	return e.Retryable
}

// newGenerationError wraps a provider error, classifying retryability.
func newGenerationError(message, code string, cause error) *GenerationError {
	return &GenerationError{
		Message:   message,
		Code:      code,
		Retryable: isTransient(cause),
		Cause:     cause,
	}
}

// newGradingError wraps a provider error, classifying retryability.
func newGradingError(message, code string, cause error) *GradingError {
	return &GradingError{
		Message:   message,
		Code:      code,
		Retryable: isTransient(cause),
		Cause:     cause,
	}
}

// isTransient reports whether a provider error is worth retrying.
// Rate limits, gateway failures and network-level errors are transient;
// auth failures and malformed responses are not.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())

	for _, marker := range []string{"401", "403", "invalid api key", "unauthorized"} {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	for _, marker := range []string{
		"429", "500", "502", "503", "504",
		"rate limit", "timeout", "deadline exceeded",
		"connection refused", "connection reset", "temporarily unavailable",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

