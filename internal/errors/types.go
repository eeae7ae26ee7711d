package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType defines the category of the error
type ErrorType string

const (
	ErrorTypeCompletion    ErrorType = "COMPLETION_ERROR"
	ErrorTypeExtraction    ErrorType = "EXTRACTION_ERROR"
	ErrorTypeValidation    ErrorType = "VALIDATION_ERROR"
	ErrorTypeResolution    ErrorType = "RESOLUTION_ERROR"
	ErrorTypeAugmentation  ErrorType = "AUGMENTATION_ERROR"
	ErrorTypeBadRequest    ErrorType = "BAD_REQUEST"
	ErrorTypeTranscription ErrorType = "TRANSCRIPTION_ERROR"
	ErrorTypeStorage       ErrorType = "STORAGE_ERROR"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeUnavailable   ErrorType = "UNAVAILABLE_ERROR"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
)

// AppError represents a structured error for the application
type AppError struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	StatusCode    int       `json:"statusCode"`
	ErrorCode     string    `json:"errorCode"`
	IsOperational bool      `json:"isOperational"`
	Recovery      string    `json:"recoverySuggestion,omitempty"`
	Err           error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Code returns the application-specific error code
func (e *AppError) Code() string {
	return e.ErrorCode
}

// RecoverySuggestion returns the suggestion on how to recover from the error
func (e *AppError) RecoverySuggestion() string {
	return e.Recovery
}

// IsRetryable reports whether repeating the operation could succeed.
// Nothing in the recipe pipeline retries on its own; the flag is exposed to
// callers and to the transcription fallback.
func (e *AppError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeCompletion, ErrorTypeTranscription, ErrorTypeUnavailable:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// As returns the first *AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal for foreign errors.
func TypeOf(err error) ErrorType {
	if appErr, ok := As(err); ok {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// NewCompletionError creates an error for a failed language model call (502)
func NewCompletionError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeCompletion,
		Message:       message,
		StatusCode:    http.StatusBadGateway,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Check that the Ollama server is running and the model is pulled.",
		Err:           err,
	}
}

// NewExtractionError creates an error for model output that holds no usable JSON object (502)
func NewExtractionError(message string, preview string) *AppError {
	msg := message
	if preview != "" {
		msg = fmt.Sprintf("%s (raw: %s)", message, preview)
	}
	return &AppError{
		Type:          ErrorTypeExtraction,
		Message:       msg,
		StatusCode:    http.StatusBadGateway,
		ErrorCode:     "EXTRACTION_FAILED",
		IsOperational: true,
		Recovery:      "The model answered with something other than a JSON object. Try again or use a different model.",
	}
}

// NewValidationError creates an error for a recipe that violates the required shape (422)
func NewValidationError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeValidation,
		Message:       message,
		StatusCode:    http.StatusUnprocessableEntity,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewBadRequestError creates a new bad request error (400)
func NewBadRequestError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeBadRequest,
		Message:       message,
		StatusCode:    http.StatusBadRequest,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewNotFoundError creates a new not found error (404)
func NewNotFoundError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeNotFound,
		Message:       message,
		StatusCode:    http.StatusNotFound,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewUnavailableError creates an error for a feature whose backing service is not configured (503)
func NewUnavailableError(message string, errorCode string) *AppError {
	return &AppError{
		Type:          ErrorTypeUnavailable,
		Message:       message,
		StatusCode:    http.StatusServiceUnavailable,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Ask the operator to configure the backing service.",
	}
}

// NewTranscriptionError creates a new transcription error (500)
func NewTranscriptionError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeTranscription,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Try recording again with less background noise.",
		Err:           err,
	}
}

// NewStorageError creates a new storage error (500)
func NewStorageError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeStorage,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Try again later.",
		Err:           err,
	}
}

// NewInternalError wraps an unexpected failure (500)
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeInternal,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     "INTERNAL",
		IsOperational: false,
		Err:           err,
	}
}
