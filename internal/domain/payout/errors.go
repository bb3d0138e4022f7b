package payout

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies admission failures so the boundary can tell
// "fix your request" apart from "your request conflicts with a prior one".
type ErrorCode string

const (
	CodeValidation          ErrorCode = "validation"
	CodeIdempotencyConflict ErrorCode = "idempotency_conflict"
	CodeInvariantViolation  ErrorCode = "invariant_violation"
	CodeInfrastructure      ErrorCode = "infrastructure"
	CodeNotFound            ErrorCode = "not_found"
)

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Message != "":
		return e.Message
	case e.Op != "":
		return fmt.Sprintf("%s (%s)", e.Op, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

func ValidationError(msg string) error {
	return NewError(CodeValidation, "", msg, nil)
}

func ConflictError(msg string) error {
	return NewError(CodeIdempotencyConflict, "", msg, nil)
}

func InvariantError(op, msg string) error {
	return NewError(CodeInvariantViolation, op, msg, nil)
}

func NotFoundError(op, msg string) error {
	return NewError(CodeNotFound, op, msg, nil)
}

// InfrastructureError tags a storage failure. Errors that already carry a
// code pass through untouched.
func InfrastructureError(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return NewError(CodeInfrastructure, op, err.Error(), err)
}

func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

func CodeOf(err error) ErrorCode {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}

// MessageOf returns the caller-facing message without the op prefix.
func MessageOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error()
}
