// Package errors provides structured errors for lookout with stable codes
// and attached details. Nothing in this package (or in code raising these
// errors) is allowed to terminate the process; every failure path resolves
// to "use best available state and continue".
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Store errors
	ErrCodeStoreCorrupt   ErrorCode = "STORE_CORRUPT"
	ErrCodeStoreWrite     ErrorCode = "STORE_WRITE_FAILED"
	ErrCodeStoreMigration ErrorCode = "STORE_MIGRATION_FAILED"

	// Daemon errors
	ErrCodeDaemonUnavailable ErrorCode = "DAEMON_UNAVAILABLE"
	ErrCodeDaemonTimeout     ErrorCode = "DAEMON_TIMEOUT"
	ErrCodeDaemonProtocol    ErrorCode = "DAEMON_PROTOCOL"
	ErrCodeDaemonRunning     ErrorCode = "DAEMON_ALREADY_RUNNING"

	// Session errors
	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeProjectNotFound    ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeTranscriptNotFound ErrorCode = "TRANSCRIPT_NOT_FOUND"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// LookoutError represents a structured error with context
type LookoutError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *LookoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *LookoutError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *LookoutError) WithDetail(key string, value interface{}) *LookoutError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *LookoutError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new LookoutError
func New(code ErrorCode, message string) *LookoutError {
	return &LookoutError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a LookoutError
func Wrap(err error, code ErrorCode, message string) *LookoutError {
	return &LookoutError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific LookoutError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	lerr, ok := err.(*LookoutError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return lerr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if lerr, ok := err.(*LookoutError); ok {
		return lerr.Code
	}
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		return GetCode(unwrapper.Unwrap())
	}
	return ErrCodeInternal
}
