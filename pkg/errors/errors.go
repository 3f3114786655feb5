package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType categorizes domain errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeProcess    ErrorType = "process"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeCancelled  ErrorType = "cancelled"

	// Service supervision errors
	ErrorTypeHookNotFound   ErrorType = "hook_not_found"
	ErrorTypeOperation      ErrorType = "operation"
	ErrorTypeInterrupted    ErrorType = "interrupted"
	ErrorTypeUnknownService ErrorType = "unknown_service"
	ErrorTypeUnknownAction  ErrorType = "unknown_action"
)

// DomainError is the error returned by every package of this module
type DomainError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *DomainError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Type))
	sb.WriteString(": ")
	sb.WriteString(e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		sb.WriteString(" [")
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("]")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another *DomainError of the same type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithContext attaches a key/value pair and returns the same error for chaining
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func newError(errorType ErrorType, message string, cause error) *DomainError {
	return &DomainError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

func NewValidationError(message string, cause error) *DomainError {
	return newError(ErrorTypeValidation, message, cause)
}

func NewIOError(message string, cause error) *DomainError {
	return newError(ErrorTypeIO, message, cause)
}

func NewProcessError(message string, cause error) *DomainError {
	return newError(ErrorTypeProcess, message, cause)
}

func NewInternalError(message string, cause error) *DomainError {
	return newError(ErrorTypeInternal, message, cause)
}

func NewNotFoundError(message string, cause error) *DomainError {
	return newError(ErrorTypeNotFound, message, cause)
}

func NewTimeoutError(message string, cause error) *DomainError {
	return newError(ErrorTypeTimeout, message, cause)
}

func NewCancelledError(message string, cause error) *DomainError {
	return newError(ErrorTypeCancelled, message, cause)
}

// NewHookNotFoundError reports a missing hook script; fatal for that operation
func NewHookNotFoundError(message string, cause error) *DomainError {
	return newError(ErrorTypeHookNotFound, message, cause)
}

// NewOperationError reports a violated operation postcondition
func NewOperationError(message string, cause error) *DomainError {
	return newError(ErrorTypeOperation, message, cause)
}

// NewInterruptedError reports a hook killed by an interrupt signal
func NewInterruptedError(message string, cause error) *DomainError {
	return newError(ErrorTypeInterrupted, message, cause)
}

func NewUnknownServiceError(message string, cause error) *DomainError {
	return newError(ErrorTypeUnknownService, message, cause)
}

func NewUnknownActionError(message string, cause error) *DomainError {
	return newError(ErrorTypeUnknownAction, message, cause)
}

// TypeOf returns the type of the outermost DomainError in the chain, or "" if none
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ""
}

func hasType(err error, errorType ErrorType) bool {
	for err != nil {
		if de, ok := err.(*DomainError); ok && de.Type == errorType {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

func IsValidationError(err error) bool { return hasType(err, ErrorTypeValidation) }
func IsIOError(err error) bool         { return hasType(err, ErrorTypeIO) }
func IsProcessError(err error) bool    { return hasType(err, ErrorTypeProcess) }
func IsInternalError(err error) bool   { return hasType(err, ErrorTypeInternal) }
func IsNotFoundError(err error) bool   { return hasType(err, ErrorTypeNotFound) }
func IsTimeoutError(err error) bool    { return hasType(err, ErrorTypeTimeout) }
func IsCancelledError(err error) bool  { return hasType(err, ErrorTypeCancelled) }

func IsHookNotFoundError(err error) bool   { return hasType(err, ErrorTypeHookNotFound) }
func IsOperationError(err error) bool      { return hasType(err, ErrorTypeOperation) }
func IsInterruptedError(err error) bool    { return hasType(err, ErrorTypeInterrupted) }
func IsUnknownServiceError(err error) bool { return hasType(err, ErrorTypeUnknownService) }
func IsUnknownActionError(err error) bool  { return hasType(err, ErrorTypeUnknownAction) }
