// Package exception provides the error types shared by the sync core.
// Errors are classified as retryable (transient upstream or store failures)
// or not, which drives the upstream retry decorator and the per-entity error log.
package exception

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"strings"
)

// BatchError is an error raised inside a sync component.
// It records the module that raised it, a short message, the wrapped cause
// and whether the failure is transient.
type BatchError struct {
	// Module names the component where the error occurred (e.g. "upstream", "repository", "executor").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped cause.
	OriginalErr error
	// Entity optionally identifies the record the error applies to (e.g. "game 0022500123").
	Entity string
	// StackTrace is captured at construction time for debugging.
	StackTrace string

	isRetryable bool
}

// NewBatchError creates a new BatchError.
func NewBatchError(module, message string, originalErr error, isRetryable bool) *BatchError {
	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		StackTrace:  captureStack(),
		isRetryable: isRetryable,
	}
}

// NewBatchErrorf creates a BatchError whose message is built with fmt.Sprintf.
// A trailing error argument is taken as the wrapped cause and is not formatted.
func NewBatchErrorf(module string, isRetryable bool, format string, a ...interface{}) *BatchError {
	var cause error
	if n := len(a); n > 0 {
		if err, ok := a[n-1].(error); ok && strings.Count(format, "%")-2*strings.Count(format, "%%") < n {
			cause = err
			a = a[:n-1]
		}
	}
	return NewBatchError(module, fmt.Sprintf(format, a...), cause, isRetryable)
}

// ForEntity returns a copy of e annotated with the entity it applies to.
func (e *BatchError) ForEntity(entity string) *BatchError {
	c := *e
	c.Entity = entity
	return &c
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	prefix := "[" + e.Module + "]"
	if e.Entity != "" {
		prefix += " " + e.Entity + ":"
	}
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s %s: %v", prefix, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

// Unwrap returns the original error for errors.Is/As.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is transient.
func (e *BatchError) IsRetryable() bool {
	return e.isRetryable
}

func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ErrRateLimited signals that the upstream rejected a call because of rate limiting.
var ErrRateLimited = errors.New("upstream rate limited")

// ErrNotFound signals that the upstream has no record for the requested key.
var ErrNotFound = errors.New("upstream record not found")

// IsTemporary reports whether err is worth retrying.
// A BatchError in the chain decides by its flag; context cancellation is never temporary;
// network timeouts and rate limiting are.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var be *BatchError
	if errors.As(err, &be) {
		return be.IsRetryable()
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "EOF")
}

// ExtractErrorMessage returns the short message of a BatchError or err.Error() otherwise.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *BatchError
	if errors.As(err, &be) {
		if be.Entity != "" {
			return be.Entity + ": " + be.Message
		}
		return be.Message
	}
	return err.Error()
}
