// Package qserr defines the failure taxonomy for quickstore.
//
// Every error returned by the value model, parser, writer, formatter, stores,
// or CLI maps to exactly one FailureClass, which determines the exit code and
// lets callers branch on the kind of failure rather than on message text.
package qserr

import (
	"errors"
	"fmt"
)

// FailureClass is a stable failure category.
type FailureClass string

const (
	SyntaxError        FailureClass = "SYNTAX_ERROR"
	TypeMismatch       FailureClass = "TYPE_MISMATCH"
	KeyNotFound        FailureClass = "KEY_NOT_FOUND"
	DuplicateKey       FailureClass = "DUPLICATE_KEY"
	InvalidNumber      FailureClass = "INVALID_NUMBER"
	NestingTooDeep     FailureClass = "NESTING_TOO_DEEP"
	MisplacedObject    FailureClass = "MISPLACED_OBJECT"
	MisplacedArray     FailureClass = "MISPLACED_ARRAY"
	MisplacedKey       FailureClass = "MISPLACED_KEY"
	MisplacedEnd       FailureClass = "MISPLACED_END"
	ValueOutOfSequence FailureClass = "VALUE_OUT_OF_SEQUENCE"
	NotCanonical       FailureClass = "NOT_CANONICAL"
	InvalidEntry       FailureClass = "INVALID_ENTRY"
	IOError            FailureClass = "IO_ERROR"
	CLIUsage           FailureClass = "CLI_USAGE"
	InternalError      FailureClass = "INTERNAL_ERROR"
)

// ExitCode returns the process exit code for this failure class.
func (fc FailureClass) ExitCode() int {
	switch fc {
	case IOError, InternalError:
		return 10
	default:
		return 2
	}
}

// Error is the structured error type for all quickstore failures.
// Offset is the input position for text-level failures and -1 otherwise.
type Error struct {
	Class   FailureClass
	Offset  int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("qserr: %s at %d: %s", e.Class, e.Offset, msg)
	}
	return fmt.Sprintf("qserr: %s: %s", e.Class, msg)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given class and message.
func New(class FailureClass, offset int, message string) *Error {
	return &Error{Class: class, Offset: offset, Message: message}
}

// Newf is New with a format string and no offset.
func Newf(class FailureClass, format string, args ...any) *Error {
	return &Error{Class: class, Offset: -1, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(class FailureClass, offset int, message string, cause error) *Error {
	return &Error{Class: class, Offset: offset, Message: message, Cause: cause}
}

// ClassOf returns the class of the first *Error in err's chain, or
// InternalError when err carries no classification. A nil err has no class.
func ClassOf(err error) FailureClass {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return InternalError
}

// Is reports whether err's chain contains an *Error of the given class.
func Is(err error, class FailureClass) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Class == class {
			return true
		}
		err = e.Cause
	}
	return false
}
