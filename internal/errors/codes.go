package errors

import (
	"fmt"
)

// ErrorCode represents a specific error type for triage operations.
type ErrorCode string

const (
	// ErrCodeSessionNotFound indicates the interview session id is unknown or evicted.
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodePersistenceFailed indicates a transient persistence failure.
	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
	// ErrCodeFinalizationFailed indicates record creation failed after all retry attempts.
	ErrCodeFinalizationFailed ErrorCode = "ASSESSMENT_FINALIZATION_FAILED"
	// ErrCodeConfigUnavailable indicates a required downstream capability is not configured.
	ErrCodeConfigUnavailable ErrorCode = "CONFIGURATION_UNAVAILABLE"
	// ErrCodeProviderUnavailable indicates an external provider call failed.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// ServiceError represents a structured error for triage operations.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *ServiceError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// SessionNotFound creates a session not found error.
func SessionNotFound(sessionID string) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeSessionNotFound,
		Message: fmt.Sprintf("session not found: %s", sessionID),
	}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeInvalidArgument, Message: msg}
}

// PersistenceFailed creates a persistence failed error.
func PersistenceFailed(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodePersistenceFailed, Message: msg, Cause: cause}
}

// FinalizationFailed creates an assessment finalization failed error.
func FinalizationFailed(cause error) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeFinalizationFailed,
		Message: "failed to create patient record after retries",
		Cause:   cause,
	}
}

// ConfigUnavailable creates a configuration unavailable error.
func ConfigUnavailable(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeConfigUnavailable, Message: msg}
}

// ProviderUnavailable creates a provider unavailable error.
func ProviderUnavailable(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeProviderUnavailable, Message: msg, Cause: cause}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// Timeout creates a timeout error.
func Timeout(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeTimeout, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *ServiceError {
	return &ServiceError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if svcErr, ok := err.(*ServiceError); ok {
		return svcErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a ServiceError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if svcErr, ok := err.(*ServiceError); ok {
		return svcErr.Code
	}
	return defaultCode
}
