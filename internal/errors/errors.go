// Package errors provides structured errors for sysmon components.
//
// Sampler failures are never fatal. They are classified by code so the
// engine can log them at the per-source boundary and keep cycling.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig  = "CONFIG"
	ErrSource  = "SOURCE"  // external tool missing, errored, or produced malformed output
	ErrSensor  = "SENSOR"  // host API lacks the requested data
	ErrSampler = "SAMPLER" // sampler panicked
)

// Error represents a structured error with code, message, suggestion, and optional cause.
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// SourceUnavailable reports that an external data source could not be used this cycle.
func SourceUnavailable(cause error, message string) *Error {
	return WrapWithCode(cause, ErrSource, message, "")
}

// SensorUnavailable reports that the host does not expose the requested readings.
func SensorUnavailable(cause error, message string) *Error {
	return WrapWithCode(cause, ErrSensor, message, "")
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// Summary renders err on a single line, suitable for log output and status bars.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var sErr *Error
	if !errors.As(err, &sErr) {
		return err.Error()
	}
	msg := sErr.Message
	if sErr.Cause != nil {
		msg += ": " + strings.TrimSpace(Summary(sErr.Cause))
	}
	return msg
}
