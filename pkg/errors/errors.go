package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Settings override errors
	ErrOverrideRead  ErrorCode = "OVERRIDE_READ"
	ErrOverrideParse ErrorCode = "OVERRIDE_PARSE"

	// Pipeline errors
	ErrTraversal ErrorCode = "TRAVERSAL"
	ErrCleanup   ErrorCode = "CLEANUP"
	ErrPack      ErrorCode = "PACK"

	// Image errors
	ErrImageDecode ErrorCode = "IMAGE_DECODE"
	ErrImageEncode ErrorCode = "IMAGE_ENCODE"
	ErrImageTooBig ErrorCode = "IMAGE_TOO_BIG"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileWrite  ErrorCode = "FILE_WRITE"
	ErrDirCreate  ErrorCode = "DIR_CREATE"
)

// TexpackError is the standard error type used throughout texpack
type TexpackError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error renders "[CODE] message (path): wrapped". The path part appears
// only when a "path" detail is set.
func (e *TexpackError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if path, ok := e.Details["path"]; ok {
		fmt.Fprintf(&b, " (%v)", path)
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, ": %v", e.Wrapped)
	}
	return b.String()
}

// Unwrap implements the errors.Unwrap interface
func (e *TexpackError) Unwrap() error {
	return e.Wrapped
}

// Is matches any TexpackError with the same code
func (e *TexpackError) Is(target error) bool {
	var targetErr *TexpackError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

func newError(code ErrorCode, message string, wrapped error) *TexpackError {
	return &TexpackError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: wrapped,
	}
}

// New creates a new TexpackError with the given code and message
func New(code ErrorCode, message string) *TexpackError {
	return newError(code, message, nil)
}

// Newf creates a new TexpackError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *TexpackError {
	return newError(code, fmt.Sprintf(format, args...), nil)
}

// Wrap wraps err under code. A nil err gives nil.
func Wrap(err error, code ErrorCode, message string) *TexpackError {
	if err == nil {
		return nil
	}
	return newError(code, message, err)
}

// Wrapf is Wrap with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *TexpackError {
	if err == nil {
		return nil
	}
	return newError(code, fmt.Sprintf(format, args...), err)
}

// WithDetail adds a detail to the error
func (e *TexpackError) WithDetail(key string, value interface{}) *TexpackError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// AsTexpackError returns the first TexpackError in err's chain
func AsTexpackError(err error) (*TexpackError, bool) {
	var texErr *TexpackError
	if errors.As(err, &texErr) {
		return texErr, true
	}
	return nil, false
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	if texErr, ok := AsTexpackError(err); ok {
		return texErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a TexpackError
func GetErrorCode(err error) ErrorCode {
	if texErr, ok := AsTexpackError(err); ok {
		return texErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a TexpackError
func GetErrorDetails(err error) map[string]interface{} {
	if texErr, ok := AsTexpackError(err); ok {
		return texErr.Details
	}
	return nil
}
