package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application error codes.
type ErrorCode string

const (
	// Local precondition failures: nothing was sent.
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	// Action not allowed in the controller's current state.
	ErrState    ErrorCode = "STATE_ERROR"
	ErrNotFound ErrorCode = "NOT_FOUND"
	ErrInternal ErrorCode = "INTERNAL_ERROR"

	// Backend failures
	ErrTransport ErrorCode = "TRANSPORT_ERROR"
	ErrBackend   ErrorCode = "BACKEND_ERROR"
	// A response that lost the race against a newer request.
	ErrStale ErrorCode = "STALE_RESPONSE"

	// Playback
	ErrSpeech      ErrorCode = "SPEECH_ERROR"
	ErrEngineBusy  ErrorCode = "ENGINE_BUSY"
	ErrStorage     ErrorCode = "STORAGE_ERROR"
	ErrUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Generic fallbacks shown when the backend does not explain itself.
const (
	MsgTransport = "An error occurred while processing your request. Please try again."
	MsgBackend   = "The request could not be completed."
)

// AppError represents an application error with code and metadata.
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// HTTPStatus returns the HTTP status code for the error.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrState, ErrEngineBusy, ErrStale:
		return http.StatusConflict
	case ErrTransport, ErrBackend, ErrStorage:
		return http.StatusBadGateway
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// As is errors.As re-exported so callers need not import both packages.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Common error constructors
func Internal(message string) *AppError {
	return New(ErrInternal, message)
}

func InternalWrap(message string, err error) *AppError {
	return Wrap(ErrInternal, message, err)
}

func Validation(message string) *AppError {
	return New(ErrValidation, message)
}

func Validationf(format string, args ...interface{}) *AppError {
	return New(ErrValidation, fmt.Sprintf(format, args...))
}

func State(message string) *AppError {
	return New(ErrState, message)
}

func NotFound(resource string) *AppError {
	return New(ErrNotFound, fmt.Sprintf("%s not found", resource))
}

// Transport wraps a network or decoding failure behind the generic user-facing message.
func Transport(err error) *AppError {
	return Wrap(ErrTransport, MsgTransport, err)
}

// Backend reports a business failure, preferring the backend's own message.
func Backend(message, fallback string) *AppError {
	if message == "" {
		message = fallback
	}
	if message == "" {
		message = MsgBackend
	}
	return New(ErrBackend, message)
}

func Stale(operation string) *AppError {
	return New(ErrStale, fmt.Sprintf("%s response superseded by a newer request", operation))
}
