// Package errors provides the standardized error taxonomy shared by the API client and controllers.
package errors

import (
	goerrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNetwork    ErrorCode = "NETWORK_ERROR"
	ErrCodeAPI        ErrorCode = "API_ERROR"
	ErrCodeShape      ErrorCode = "SHAPE_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_FAILED"
	ErrCodeAuth       ErrorCode = "AUTH_FAILED"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"

	ErrCodeTransitionInFlight ErrorCode = "TRANSITION_IN_FLIGHT"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"

	ErrCodeConfig   ErrorCode = "CONFIG_ERROR"
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// GenericAPIMessage is used when a non-2xx response carries no message.
const GenericAPIMessage = "Request failed"

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Status    int                    `json:"status,omitempty"`
	Retryable bool                   `json:"retryable"`
	Fields    map[string]string      `json:"fields,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Err       error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("StandardError[%s %d]: %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Err
}

// ==========================
// 2. Error Constructors
// ==========================

// NewNetworkError wraps a transport failure (DNS, refused connection, timeout).
func NewNetworkError(operation string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeNetwork,
		Message:   "An error occurred during the request",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, details),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// NewAPIError creates an error for a non-2xx response.
func NewAPIError(status int, message string) *StandardError {
	if strings.TrimSpace(message) == "" {
		message = GenericAPIMessage
	}
	return &StandardError{
		Code:      ErrCodeAPI,
		Message:   message,
		Status:    status,
		Retryable: status >= 500,
		Timestamp: time.Now().UTC(),
	}
}

// NewShapeError reports a response envelope that did not match the resource adapter.
func NewShapeError(resource, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeShape,
		Message:   "Unexpected response format",
		Details:   fmt.Sprintf("resource: %s, %s", resource, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError carries per-field client-side validation messages.
func NewValidationError(fields map[string]string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "Please correct the highlighted fields",
		Details:   joinFields(fields),
		Fields:    fields,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthError reports a failed login or an unauthorized response.
func NewAuthError(message string) *StandardError {
	if strings.TrimSpace(message) == "" {
		message = "Login failed"
	}
	return &StandardError{
		Code:      ErrCodeAuth,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedError is an AuthError raised by a 401/403 response.
func NewUnauthorizedError(status int, message string) *StandardError {
	if strings.TrimSpace(message) == "" {
		message = "Your session has expired, please log in again"
	}
	return &StandardError{
		Code:      ErrCodeAuth,
		Message:   message,
		Status:    status,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotFoundError(resource string, id interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   "Record not found",
		Details:   fmt.Sprintf("resource: %s, id: %v", resource, id),
		Status:    404,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInFlightError is returned when a guarded action is already running.
func NewInFlightError(action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransitionInFlight,
		Message:   "Another action is already in progress",
		Details:   fmt.Sprintf("action: %s", action),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidTransitionError(from, to string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   fmt.Sprintf("Cannot change status from %s to %s", from, to),
		Details:   fmt.Sprintf("from: %s, to: %s", from, to),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewConfigError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfig,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard extracts a StandardError from err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if goerrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the error code of err, INTERNAL_ERROR for foreign errors and "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// UserMessage is the text shown to the operator for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	stdErr, ok := AsStandard(err)
	if !ok {
		return "Unexpected error"
	}
	if stdErr.Code == ErrCodeValidation && len(stdErr.Fields) > 0 {
		return fmt.Sprintf("%s: %s", stdErr.Message, joinFields(stdErr.Fields))
	}
	return stdErr.Message
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "NETWORK"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "API") || strings.Contains(codeStr, "SHAPE") || strings.Contains(codeStr, "NOT_FOUND"):
		return "SERVER"
	case strings.Contains(codeStr, "AUTH"):
		return "AUTH"
	case strings.Contains(codeStr, "TRANSITION"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "CONFIG"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fields[k]))
	}
	return strings.Join(parts, "; ")
}
