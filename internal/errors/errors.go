package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError describes one rejected field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error codes
const (
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeInvalidParameter  = "INVALID_PARAMETER"
	CodeNotFound          = "NOT_FOUND"
	CodeUnknownView       = "UNKNOWN_VIEW"
	CodeUnknownChart      = "UNKNOWN_CHART"
	CodeReportNotFound    = "REPORT_NOT_FOUND"
	CodeSchemaError       = "SCHEMA_ERROR"
	CodeDatasetNotLoaded  = "DATASET_NOT_LOADED"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInternal          = "INTERNAL_SERVER_ERROR"
	CodeFileSystem        = "FILESYSTEM_ERROR"
	CodeWebSocketUpgrade  = "WEBSOCKET_UPGRADE_FAILED"
	CodeUnavailable       = "SERVICE_UNAVAILABLE"
)

// Predefined error types for common scenarios
var (
	// 404 Not Found
	ErrNotFound       = New(http.StatusNotFound, CodeNotFound, "Resource not found")
	ErrReportNotFound = New(http.StatusNotFound, CodeReportNotFound, "Analytics report is not available")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer   = New(http.StatusInternalServerError, CodeInternal, "Internal server error")
	ErrWebSocketUpgrade = New(http.StatusInternalServerError, CodeWebSocketUpgrade, "WebSocket upgrade failed")

	// 503 Service Unavailable
	ErrDatasetNotLoaded = New(http.StatusServiceUnavailable, CodeDatasetNotLoaded, "No dataset has been loaded yet")
)

// WithStatus returns a copy of e carrying status and details
func (e *APIError) WithStatus(status int, details interface{}) *APIError {
	return NewWithDetails(status, e.ErrorCode, e.Message, details)
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// InvalidParameter reports a query or path parameter that could not be parsed
func InvalidParameter(name, value string, err error) *APIError {
	msg := fmt.Sprintf("invalid value %q for parameter %s", value, name)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return NewWithDetails(http.StatusBadRequest, CodeInvalidParameter, msg, ValidationError{
		Field:   name,
		Message: msg,
	})
}

// UnknownViewError reports a view name outside the known set
func UnknownViewError(name string, known []string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeUnknownView,
		fmt.Sprintf("unknown view %q", name),
		map[string]interface{}{"view": name, "available": known})
}

// UnknownChartError reports a chart name outside the known set
func UnknownChartError(name string, known []string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeUnknownChart,
		fmt.Sprintf("unknown chart %q", name),
		map[string]interface{}{"chart": name, "available": known})
}

// SchemaError reports source columns that are required but absent
func SchemaError(source string, missing []string) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, CodeSchemaError,
		fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
		map[string]interface{}{"source": source, "missing_columns": missing})
}

// FileSystemError creates a filesystem error
func FileSystemError(operation string, err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, CodeFileSystem, fmt.Sprintf("File system error during %s", operation), err.Error())
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeValidationFailed,
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}

// NewValidationError creates a simple validation error
func NewValidationError(message string) *APIError {
	return New(http.StatusBadRequest, CodeValidationFailed, message)
}
