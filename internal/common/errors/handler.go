package errors

import (
	"fmt"
	"io"
)

// Exit codes returned by the terminal front end.
const (
	ExitSuccess        = 0
	ExitGeneral        = 1
	ExitUsageError     = 2
	ExitBackendError   = 3
	ExitAuthError      = 4
	ExitValidation     = 5
	ExitSessionFailure = 6
)

// ErrorHandler normalizes, logs and reports errors at the process edges.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err with its category and returns the normalized form.
func (h *ErrorHandler) Handle(operation string, err error) *StandardError {
	stdErr := As(err)
	if stdErr == nil {
		return nil
	}
	h.logger.Error("operation failed", map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
	return stdErr
}

// HandleCommandError writes a user-facing summary of err to w and returns the exit code.
func (h *ErrorHandler) HandleCommandError(w io.Writer, operation string, err error) int {
	stdErr := h.Handle(operation, err)
	if stdErr == nil {
		return ExitSuccess
	}
	fmt.Fprintf(w, "Error: %s\n", stdErr.Message)
	if stdErr.Details != "" {
		fmt.Fprintf(w, "  Cause: %s\n", stdErr.Details)
	}
	if stdErr.Retryable {
		fmt.Fprintln(w, "  The request can be retried.")
	}
	return ExitCode(stdErr.Code)
}

// ExitCode maps an error code to a process exit status.
func ExitCode(code ErrorCode) int {
	switch GetErrorCategory(code) {
	case "BACKEND":
		return ExitBackendError
	case "AUTH":
		if code == ErrCodeSessionStoreFailed {
			return ExitSessionFailure
		}
		return ExitAuthError
	case "VALIDATION":
		return ExitValidation
	default:
		return ExitGeneral
	}
}

// ErrorResponse is the JSON body written for failed HTTP requests.
type ErrorResponse struct {
	Error *StandardError `json:"error"`
}

// ToHTTP returns the status code and body describing err.
func (h *ErrorHandler) ToHTTP(operation string, err error) (int, ErrorResponse) {
	stdErr := h.Handle(operation, err)
	return HTTPStatus(stdErr.Code), ErrorResponse{Error: stdErr}
}
