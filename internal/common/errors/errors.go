// Package errors provides the standardized error type shared by the client SDK,
// the terminal front end and the mock backend.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeBackendUnavailable    ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeBackendTimeout        ErrorCode = "BACKEND_TIMEOUT"
	ErrCodeBackendRequestFailed  ErrorCode = "BACKEND_REQUEST_FAILED"
	ErrCodeResourceNotFound      ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeResponseDecodeFailed  ErrorCode = "RESPONSE_DECODE_FAILED"
	ErrCodeResponseSchemaInvalid ErrorCode = "RESPONSE_SCHEMA_INVALID"

	ErrCodeNotAuthenticated     ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeSignupFailed         ErrorCode = "SIGNUP_FAILED"

	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeSendInProgress     ErrorCode = "SEND_IN_PROGRESS"
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewBackendUnavailableError wraps a transport failure reaching the backend.
func NewBackendUnavailableError(endpoint string, err error) *StandardError {
	return newError(ErrCodeBackendUnavailable, "Backend is unreachable",
		fmt.Sprintf("endpoint: %s, error: %s", endpoint, err.Error()), true)
}

// NewBackendTimeoutError reports a request cut short by its deadline.
func NewBackendTimeoutError(endpoint string) *StandardError {
	return newError(ErrCodeBackendTimeout, "Backend request timed out",
		fmt.Sprintf("endpoint: %s", endpoint), true)
}

// NewBackendRequestFailedError reports a non-2xx backend status.
func NewBackendRequestFailedError(endpoint string, status int, body string) *StandardError {
	return newError(ErrCodeBackendRequestFailed, "Backend request failed",
		fmt.Sprintf("endpoint: %s, status: %d, body: %s", endpoint, status, truncate(body, 256)), status >= 500).
		WithMetadata("status", status)
}

func NewResourceNotFoundError(resource, id string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("%s not found", resource),
		fmt.Sprintf("id: %s", id), false)
}

func NewResponseDecodeFailedError(endpoint string, err error) *StandardError {
	return newError(ErrCodeResponseDecodeFailed, "Backend response could not be decoded",
		fmt.Sprintf("endpoint: %s, error: %s", endpoint, err.Error()), false)
}

// NewResponseSchemaInvalidError reports a payload that failed schema validation.
func NewResponseSchemaInvalidError(endpoint string, violations []string) *StandardError {
	return newError(ErrCodeResponseSchemaInvalid, "Backend response does not match the expected shape",
		fmt.Sprintf("endpoint: %s, violations: %s", endpoint, strings.Join(violations, "; ")), false).
		WithMetadata("violations", violations)
}

func NewNotAuthenticatedError() *StandardError {
	return newError(ErrCodeNotAuthenticated, "Not logged in", "run the login command first", false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthenticationFailed, "Authentication failed", details, false)
}

func NewSignupFailedError(details string) *StandardError {
	return newError(ErrCodeSignupFailed, "Signup failed", details, false)
}

func NewInvalidInputError(field, details string) *StandardError {
	return newError(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s", field), details, false).
		WithMetadata("field", field)
}

func NewSendInProgressError(chatID string) *StandardError {
	return newError(ErrCodeSendInProgress, "A message is already being sent",
		fmt.Sprintf("chatId: %s", chatID), false)
}

func NewSessionStoreFailedError(op string, err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store error",
		fmt.Sprintf("op: %s, error: %s", op, err.Error()), true)
}

func NewRateLimitedError(details string) *StandardError {
	return newError(ErrCodeRateLimited, "Rate limit exceeded", details, true)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

// NewSearchQueryFailedError creates a retryable search error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Search query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 3. Utility Functions
// ==========================

// As normalizes any error into a StandardError.
func As(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewBackendTimeoutError("unknown")
	}
	return NewInternalError(err)
}

// HasCode reports whether err is a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeBackendUnavailable,
		ErrCodeBackendTimeout,
		ErrCodeSessionStoreFailed,
		ErrCodeRateLimited,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "BACKEND") || strings.HasPrefix(codeStr, "RESPONSE"):
		return "BACKEND"
	case strings.Contains(codeStr, "AUTH") || strings.Contains(codeStr, "SIGNUP") || strings.Contains(codeStr, "SESSION"):
		return "AUTH"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "PROGRESS") || code == ErrCodeResourceNotFound:
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the status the mock backend answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeNotAuthenticated, ErrCodeAuthenticationFailed:
		return http.StatusUnauthorized
	case ErrCodeResourceNotFound:
		return http.StatusNotFound
	case ErrCodeSignupFailed, ErrCodeSendInProgress:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeBackendUnavailable, ErrCodeDatabaseConnectionFailed:
		return http.StatusServiceUnavailable
	case ErrCodeBackendTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
