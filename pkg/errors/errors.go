package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies failures from the Jike API client
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeProtocol    ErrorType = "protocol"
	ErrorTypeAuthExpired ErrorType = "auth_expired"
	ErrorTypeAuthTimeout ErrorType = "auth_timeout"
	ErrorTypeRemote      ErrorType = "remote"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Path    string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s error (code %d) on %s: %s", e.Type, e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// NewNetwork wraps a transport-level failure
func NewNetwork(err error) *Error {
	return &Error{
		Type:    ErrorTypeNetwork,
		Message: fmt.Sprintf("network error: %v", err),
	}
}

// NewProtocol reports a response that violated the expected contract
func NewProtocol(msg string) *Error {
	return &Error{
		Type:    ErrorTypeProtocol,
		Message: msg,
	}
}

// NewAuthExpired reports an unrecoverable credential expiry; the caller must
// re-run the QR handshake
func NewAuthExpired(msg string) *Error {
	return &Error{
		Type:    ErrorTypeAuthExpired,
		Message: msg,
		Code:    401,
	}
}

// NewAuthTimeout reports that the QR confirmation was never received within
// the poll bound
func NewAuthTimeout(msg string) *Error {
	return &Error{
		Type:    ErrorTypeAuthTimeout,
		Message: msg,
	}
}

// NewRemote reports a non-auth HTTP failure with enough context for the
// caller to decide on a manual retry
func NewRemote(code int, path string) *Error {
	return &Error{
		Type:    ErrorTypeRemote,
		Message: fmt.Sprintf("server returned status %d", code),
		Code:    code,
		Path:    path,
	}
}

// TypeOf returns the error's type, or empty string for foreign errors
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ""
}

// IsAuthExpired reports whether the error is fatal to the current session
func IsAuthExpired(err error) bool {
	return TypeOf(err) == ErrorTypeAuthExpired
}

// IsNetwork reports whether the error is a transport-level failure
func IsNetwork(err error) bool {
	return TypeOf(err) == ErrorTypeNetwork
}

// IsRetryable checks if an error type may be retried by callers.
// Network failures are safe to retry for idempotent calls; protocol and auth
// failures never are. Remote failures are left to the caller's judgement.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork:
		return true
	case ErrorTypeProtocol, ErrorTypeAuthExpired, ErrorTypeAuthTimeout, ErrorTypeRemote:
		return false
	default:
		return false
	}
}
