package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a failure so callers can decide how to surface it.
type Code string

const (
	CodeValidation   Code = "validation"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeExternal     Code = "external"
	CodeInternal     Code = "internal"
)

type Error struct {
	Code    Code
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, op, message string, cause error) error {
	return &Error{Code: code, Op: op, Message: message, Cause: cause}
}

func Validation(op, message string) error {
	return New(CodeValidation, op, message, nil)
}

func Unauthorized(op, message string, cause error) error {
	return New(CodeUnauthorized, op, message, cause)
}

func NotFound(op, message string, cause error) error {
	return New(CodeNotFound, op, message, cause)
}

func Conflict(op, message string, cause error) error {
	return New(CodeConflict, op, message, cause)
}

func External(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return New(CodeExternal, op, cause.Error(), cause)
}

func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code carried by err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if !errors.As(err, &e) {
		return CodeInternal
	}
	return e.Code
}
