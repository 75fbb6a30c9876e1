package render

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable machine-readable identifier for a render failure.
type ErrorCode string

const (
	// ErrDownloadFailed marks a non-2xx response or transport failure while
	// fetching source bytes.
	ErrDownloadFailed ErrorCode = "animated-renderer.DownloadFailed"
	// ErrDecodeFailed marks a parse error on an image container.
	ErrDecodeFailed ErrorCode = "animated-renderer.DecodeFailed"
	// ErrUnsupportedSource marks an unknown source kind, or a fast-path
	// transcode attempted on a frame sequence.
	ErrUnsupportedSource ErrorCode = "animated-renderer.UnsupportedSource"
	// ErrCodecNotInitialized marks codec use before initialization.
	ErrCodecNotInitialized ErrorCode = "animated-renderer.CodecNotInitialized"
	// ErrCodecRunFailed marks a codec invocation that returned non-zero.
	ErrCodecRunFailed ErrorCode = "animated-renderer.CodecRunFailed"
	// ErrPoolShutdown marks a task submitted after pool termination.
	ErrPoolShutdown ErrorCode = "animated-renderer.PoolShutdown"
	// ErrInvalidJob marks a job rejected at construction.
	ErrInvalidJob ErrorCode = "animated-renderer.InvalidJob"
)

// Error is a tagged render failure carrying a stable code.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// NewError creates a tagged error. err may be nil.
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Errorf creates a tagged error with a formatted message.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the ErrorCode from err, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
