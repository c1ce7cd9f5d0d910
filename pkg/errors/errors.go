// Package errors provides the unified error type and factory functions for
// molgraph. Every layer (domain, application, infrastructure, interfaces) uses
// AppError as the single carrier for structured error information, so HTTP
// responses, gRPC statuses, logs and metrics all agree on the failure code.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack returns a formatted call-stack string starting two frames above
// the caller (skipping captureStack itself and the factory).
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// AppError
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the single structured error type used throughout molgraph.
// It supports errors.Is / errors.As / errors.Unwrap across layers.
//
// Usage:
//
//	return errors.New(errors.ErrCodeTypeKind, "residue at position 2 is nil")
//	return errors.Wrap(err, errors.CodeDBConnectionError, "failed to load snapshot")
//	return errors.Membership("small molecule is not in this model").WithDetail("id=HOH100")
type AppError struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is the primary human-readable description.
	Message string

	// Detail carries supplementary context (ids, positions, values).
	Detail string

	// Cause is the underlying error, if any.
	Cause error

	// Stack is captured by the factories. It never appears in Error().
	Stack string
}

// Error implements the standard error interface.
// Format: "[<code>] <message>: <detail>"
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap returns the underlying cause error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a shallow copy of the receiver with Detail set.
// It is safe to call on a nil pointer (returns nil).
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy of the receiver with Cause set to err.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// ─────────────────────────────────────────────────────────────────────────────
// Primary factory functions
// ─────────────────────────────────────────────────────────────────────────────

// New constructs a fresh AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Newf is New with fmt.Sprintf formatting of the message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(1),
	}
}

// Wrap constructs an AppError that wraps an existing error.
// If err is nil, Wrap returns nil. When code is CodeUnknown and err already
// carries an AppError, the original code is kept.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Error-chain inspection helpers
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any error in err's chain is an *AppError with the
// given code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		if ae, ok := err.(*AppError); ok && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether err's chain carries a not-found code.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound) || IsCode(err, ErrCodeModelNotFound)
}

// IsTypeKind reports a wrong runtime kind passed to a constructor or mutator.
func IsTypeKind(err error) bool { return IsCode(err, ErrCodeTypeKind) }

// IsValueRange reports a right-kind value that is out of its allowed range.
func IsValueRange(err error) bool { return IsCode(err, ErrCodeValueRange) }

// IsBrokenStrand reports a secondary structure spanning several chains.
func IsBrokenStrand(err error) bool { return IsCode(err, ErrCodeBrokenStrand) }

// IsMembership reports removal of a structure that was never a member.
func IsMembership(err error) bool { return IsCode(err, ErrCodeMembership) }

// IsAlreadyOwned reports an attempt to give a structure a second owner.
func IsAlreadyOwned(err error) bool { return IsCode(err, ErrCodeAlreadyOwned) }

// IsSelectionSyntax reports an atom selection expression that does not parse.
func IsSelectionSyntax(err error) bool { return IsCode(err, ErrCodeSelectionSyntax) }

// IsValidation reports any client-side input failure.
func IsValidation(err error) bool {
	code := GetCode(err)
	return code != CodeOK && code != CodeUnknown && IsClientError(code) &&
		code != CodeNotFound && code != ErrCodeModelNotFound && code != ErrCodeMembership
}

// GetCode extracts the ErrorCode from the first *AppError found in err's chain.
// If no *AppError is present, CodeUnknown is returned.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// ─────────────────────────────────────────────────────────────────────────────
// Convenience factories
// ─────────────────────────────────────────────────────────────────────────────

func newAt(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   captureStack(2),
	}
}

// NotFound constructs a CodeNotFound AppError.
func NotFound(message string) *AppError { return newAt(CodeNotFound, message) }

// InvalidParam constructs a CodeInvalidParam AppError.
func InvalidParam(message string) *AppError { return newAt(CodeInvalidParam, message) }

// Internal constructs a CodeInternal AppError.
func Internal(message string) *AppError { return newAt(CodeInternal, message) }

// Conflict constructs a CodeConflict AppError.
func Conflict(message string) *AppError { return newAt(CodeConflict, message) }

// TypeKind constructs an ErrCodeTypeKind AppError.
func TypeKind(message string) *AppError { return newAt(ErrCodeTypeKind, message) }

// ValueRange constructs an ErrCodeValueRange AppError.
func ValueRange(message string) *AppError { return newAt(ErrCodeValueRange, message) }

// BrokenStrand constructs an ErrCodeBrokenStrand AppError.
func BrokenStrand(message string) *AppError { return newAt(ErrCodeBrokenStrand, message) }

// Membership constructs an ErrCodeMembership AppError.
func Membership(message string) *AppError { return newAt(ErrCodeMembership, message) }

// AlreadyOwned constructs an ErrCodeAlreadyOwned AppError.
func AlreadyOwned(message string) *AppError { return newAt(ErrCodeAlreadyOwned, message) }

// SelectionSyntax constructs an ErrCodeSelectionSyntax AppError.
func SelectionSyntax(message string) *AppError { return newAt(ErrCodeSelectionSyntax, message) }

// ModelNotFound constructs an ErrCodeModelNotFound AppError.
func ModelNotFound(id string) *AppError {
	return newAt(ErrCodeModelNotFound, "model not found").WithDetail("id=" + id)
}

//Personal.AI order the ending
