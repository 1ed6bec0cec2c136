package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies LLM failures.
type ErrorType string

const (
	// ErrorTypeTransport covers network/HTTP failures. Retried with
	// backoff; surfaces as a failed build when exhausted.
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeAuth covers credential problems. Never retried.
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeMalformed covers responses the repair chain could not turn
	// into the expected structure. Handled by degrading to an empty
	// result, not by retrying.
	ErrorTypeMalformed ErrorType = "malformed_response"
	// ErrorTypeModel covers unknown/unavailable model configuration.
	ErrorTypeModel ErrorType = "model"
)

// Error is a structured LLM error with classification.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := []string{string(e.Type)}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface so the retry
// package can check retryability without importing llm.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured LLM error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ClassifyError categorizes an error from a provider SDK into a structured
// Error so retry decisions are consistent across providers.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504, 529} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	// Authentication errors (not retryable)
	if statusCode == 401 || statusCode == 403 || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "invalid x-api-key") {
		e := NewError(ErrorTypeAuth, "authentication failed", false, err)
		e.StatusCode = statusCode
		return e
	}

	// Model not found (not retryable without config change)
	if strings.Contains(lower, "model") && (strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist")) {
		e := NewError(ErrorTypeModel, "model not found", false, err)
		e.StatusCode = statusCode
		return e
	}

	// Rate limiting and server-side failures (retryable)
	if statusCode == 429 || statusCode >= 500 ||
		strings.Contains(lower, "rate limit") || strings.Contains(lower, "overloaded") ||
		strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out") ||
		strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") || strings.Contains(lower, "eof") {
		e := NewError(ErrorTypeTransport, "transport failure", true, err)
		e.StatusCode = statusCode
		return e
	}

	// Unknown failures default to non-retryable transport errors: we still
	// want the build to fail loudly rather than loop on something permanent.
	e := NewError(ErrorTypeTransport, "llm request failed", false, err)
	e.StatusCode = statusCode
	return e
}
