package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeMalformed    = "MALFORMED_HAR"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeAgentError   = "AGENT_ERROR"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}

// WrapHarError converts a HAR parse or validation failure to a coded error
// and logs it.
func WrapHarError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		coded = &CodedError{Code: ErrCodeTimeout, Message: "operation timed out", Cause: err}
	} else {
		coded = &CodedError{Code: ErrCodeMalformed, Message: err.Error(), Cause: err}
	}

	slog.Warn("HAR processing error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}
