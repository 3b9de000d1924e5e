package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// APIError represents a standardized error response returned by the HTTP and MCP surfaces.
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeConfiguration  = "CONFIGURATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
	ErrCodeCanceled       = "REQUEST_CANCELED"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidKnowledgeBase = errors.New("invalid knowledge base")
)

// ValidationError represents a rejected intake field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ConfigError represents a malformed knowledge-base entry, detected at load time.
type ConfigError struct {
	Condition string `json:"condition"`
	Field     string `json:"field"`
	Message   string `json:"message"`
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	name := e.Condition
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("knowledge base entry %q: %s: %s", name, e.Field, e.Message)
}

// Unwrap lets callers match any knowledge-base problem with errors.Is(err, ErrInvalidKnowledgeBase).
func (e *ConfigError) Unwrap() error {
	return ErrInvalidKnowledgeBase
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewConfigError creates a new ConfigError
func NewConfigError(condition, field, message string) *ConfigError {
	return &ConfigError{
		Condition: condition,
		Field:     field,
		Message:   message,
	}
}

// IsValidationError reports whether err (or anything it wraps or joins) is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCanceled reports whether err stems from a cancelled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ErrorCode maps an error onto one of the API error codes.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidationError(err):
		return ErrCodeValidation
	case errors.Is(err, ErrInvalidKnowledgeBase):
		return ErrCodeConfiguration
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case IsCanceled(err):
		return ErrCodeCanceled
	default:
		return ErrCodeInternalServer
	}
}
