package realtime

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type.
type ErrorCode int

const (
	// Protocol errors (from server error responses)
	ErrorUnknown ErrorCode = iota
	ErrorUnsupportedVersion
	ErrorUnauthorized
	ErrorInvalidMessage
	ErrorRoomNotFound
	ErrorAccessDenied
	ErrorRateLimited
	ErrorInternalServer

	// Client-side errors
	ErrorConnection
	ErrorDisconnected
	ErrorTimeout
	ErrorInvalidConfig
	ErrorSerialization
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorUnsupportedVersion:
		return "unsupported_version"
	case ErrorUnauthorized:
		return "unauthorized"
	case ErrorInvalidMessage:
		return "invalid_message"
	case ErrorRoomNotFound:
		return "room_not_found"
	case ErrorAccessDenied:
		return "access_denied"
	case ErrorRateLimited:
		return "rate_limited"
	case ErrorInternalServer:
		return "internal_error"
	case ErrorConnection:
		return "connection_error"
	case ErrorDisconnected:
		return "disconnected"
	case ErrorTimeout:
		return "timeout"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorSerialization:
		return "serialization_error"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// ParseErrorCode converts a protocol error code string to ErrorCode.
func ParseErrorCode(code string) ErrorCode {
	switch code {
	case "unsupported_version":
		return ErrorUnsupportedVersion
	case "unauthorized":
		return ErrorUnauthorized
	case "invalid_message":
		return ErrorInvalidMessage
	case "room_not_found":
		return ErrorRoomNotFound
	case "access_denied":
		return ErrorAccessDenied
	case "rate_limited":
		return ErrorRateLimited
	case "internal_error":
		return ErrorInternalServer
	default:
		return ErrorUnknown
	}
}

// RealtimeError is a structured error with code and context.
type RealtimeError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *RealtimeError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s (wrapped: %v)", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *RealtimeError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is support for code comparison.
func (e *RealtimeError) Is(target error) bool {
	t, ok := target.(*RealtimeError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new RealtimeError with the given code and message.
func NewError(code ErrorCode, message string) *RealtimeError {
	return &RealtimeError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with a RealtimeError.
func WrapError(code ErrorCode, message string, err error) *RealtimeError {
	return &RealtimeError{
		Code:    code,
		Message: message,
		Wrapped: err,
	}
}

// FromProtocolError converts a protocol Error to RealtimeError.
func FromProtocolError(e *Error) *RealtimeError {
	if e == nil {
		return nil
	}
	return &RealtimeError{
		Code:    ParseErrorCode(e.Code),
		Message: e.Msg,
	}
}

// IsConnectionError checks if an error is connection-related.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var re *RealtimeError
	if !errors.As(err, &re) {
		return false
	}
	return re.Code == ErrorConnection || re.Code == ErrorDisconnected || re.Code == ErrorTimeout
}
