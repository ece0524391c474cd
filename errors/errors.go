// Package errors provides QVIZ's error handling foundation.
//
// It re-exports the cockroachdb/errors API so the rest of the codebase
// imports one package for construction, wrapping, stack capture, and
// sentinel matching, plus the sentinels and predicates shared across
// subsystems.
package errors

import (
	"strings"

	crdberrors "github.com/cockroachdb/errors"
)

// Construction and wrapping.
var (
	New       = crdberrors.New
	Newf      = crdberrors.Newf
	Wrap      = crdberrors.Wrap
	Wrapf     = crdberrors.Wrapf
	WithStack = crdberrors.WithStack

	WithMessage  = crdberrors.WithMessage
	WithMessagef = crdberrors.WithMessagef
	WithHint     = crdberrors.WithHint
	WithHintf    = crdberrors.WithHintf
	WithDetail   = crdberrors.WithDetail
	WithDetailf  = crdberrors.WithDetailf
)

// Inspection.
var (
	Is         = crdberrors.Is
	IsAny      = crdberrors.IsAny
	As         = crdberrors.As
	Unwrap     = crdberrors.Unwrap
	UnwrapOnce = crdberrors.UnwrapOnce
	UnwrapAll  = crdberrors.UnwrapAll

	GetAllHints   = crdberrors.GetAllHints
	GetAllDetails = crdberrors.GetAllDetails
)

// Assertions for conditions that indicate engine bugs rather than bad input.
var (
	AssertionFailedf                 = crdberrors.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdberrors.NewAssertionErrorWithWrappedErrf
)

// Stack trace extraction.
var (
	GetReportableStackTrace = crdberrors.GetReportableStackTrace
)

// GetStack returns the reportable stack trace attached to err, or nil.
func GetStack(err error) interface{} {
	if st := crdberrors.GetReportableStackTrace(err); st != nil {
		return st
	}
	return nil
}

// Sentinel errors for common failure categories. Match with errors.Is or
// the predicate helpers below.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = New("operation timed out")

	// ErrConflict indicates a resource conflict (e.g., duplicate slug)
	ErrConflict = New("resource conflict")

	// ErrServiceUnavailable indicates a required service is not available
	ErrServiceUnavailable = New("service unavailable")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
// Also matches string-based "not found" errors from layers that cannot
// carry the sentinel (SQL drivers, remote fetches).
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if Is(err, ErrNotFound) {
		return true
	}
	msg := err.Error()
	return msg == "not found" || strings.HasSuffix(msg, "not found") || strings.HasPrefix(msg, "not found:")
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsTimeoutError checks if an error is or wraps ErrTimeout
func IsTimeoutError(err error) bool {
	return err != nil && Is(err, ErrTimeout)
}

// WrapNotFound wraps an error as a not-found error with context
func WrapNotFound(err error, context string) error {
	return Wrap(Wrap(ErrNotFound, err.Error()), context)
}

// WrapInvalidRequest wraps an error as an invalid-request error with context
func WrapInvalidRequest(err error, context string) error {
	return Wrap(Wrap(ErrInvalidRequest, err.Error()), context)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
