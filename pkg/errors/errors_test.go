package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewOperationError("PID not reported", nil).
		WithContext("service", "web").
		WithContext("operation", "start")

	assert.Equal(t, "operation: PID not reported [operation=start, service=web]", err.Error())
}

func TestDomainError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewIOError("failed to write pidfile", cause)

	assert.Equal(t, "io: failed to write pidfile: boom", err.Error())
	assert.Equal(t, cause, err.Unwrap())
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
	}{
		{"hook_not_found", NewHookNotFoundError("start hook not found", nil), IsHookNotFoundError},
		{"operation", NewOperationError("not reloadable", nil), IsOperationError},
		{"interrupted", NewInterruptedError("interrupted", nil), IsInterruptedError},
		{"unknown_service", NewUnknownServiceError("unknown service: x", nil), IsUnknownServiceError},
		{"unknown_action", NewUnknownActionError("unknown stack action: x", nil), IsUnknownActionError},
		{"validation", NewValidationError("bad", nil), IsValidationError},
		{"io", NewIOError("bad", nil), IsIOError},
		{"process", NewProcessError("bad", nil), IsProcessError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.predicate(tt.err))
			assert.False(t, tt.predicate(NewInternalError("other", nil)))
		})
	}
}

func TestPredicates_Wrapped(t *testing.T) {
	inner := NewHookNotFoundError("stop hook not found", nil)
	outer := NewProcessError("failed to run hook", inner)
	wrapped := fmt.Errorf("stack: %w", outer)

	assert.True(t, IsHookNotFoundError(wrapped))
	assert.True(t, IsProcessError(wrapped))
	assert.False(t, IsInterruptedError(wrapped))
	assert.Equal(t, ErrorTypeProcess, TypeOf(wrapped))
}

func TestDomainError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewInterruptedError("interrupt", nil))

	assert.True(t, stderrors.Is(err, &DomainError{Type: ErrorTypeInterrupted}))
	assert.False(t, stderrors.Is(err, &DomainError{Type: ErrorTypeOperation}))
}

func TestTypeOf_NonDomain(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(fmt.Errorf("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
}
