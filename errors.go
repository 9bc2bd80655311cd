package mediator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"golang.org/x/text/cases"
)

const (
	// DefaultErrorCode replaces an empty or blank code.
	DefaultErrorCode = "error"
	// DefaultErrorMessage replaces an empty or blank message.
	DefaultErrorMessage = "An error occurred."
	// UnexpectedErrorMessage is the client-safe message used when a fault
	// is translated by the exception boundary.  The fault's own message is
	// never sent over the wire.
	UnexpectedErrorMessage = "An error occurred while processing the request."
)

// Error codes produced by this package.  Handlers are free to use
// any other code.
const (
	CodeUnexpected        = "unexpected"
	CodeValidation        = "validation"
	CodeNoRequest         = "no_request"
	CodeMalformedRequest  = "malformed_request"
	CodeEmptyResponse     = "empty_response"
	CodeMalformedResponse = "malformed_response"
	CodeHTTPStatus        = "http_status"
)

// Error is the failure half of an HTTPResult.  It is a value type: it
// has no setters and copies are independent.
//
// The cause is kept for local debugging (and errors.Is / errors.As) but is
// excluded from equality and is never serialized.
type Error struct {
	code    string
	message string
	cause   error
}

// ErrorFrom builds an Error with DefaultErrorCode.
func ErrorFrom(message string) Error {
	return ErrorWithCause(DefaultErrorCode, message, nil)
}

// ErrorWithCode builds an Error with the given code and message.
func ErrorWithCode(code, message string) Error {
	return ErrorWithCause(code, message, nil)
}

// ErrorWithCause builds an Error that remembers the fault that caused it.
// Blank codes and messages are replaced by the package defaults.
func ErrorWithCause(code, message string, cause error) Error {
	if strings.TrimSpace(code) == "" {
		code = DefaultErrorCode
	}
	if strings.TrimSpace(message) == "" {
		message = DefaultErrorMessage
	}
	return Error{
		code:    code,
		message: message,
		cause:   cause,
	}
}

func (e Error) Code() string    { return e.code }
func (e Error) Message() string { return e.message }

// CausedBy returns the fault this Error was built from, if any.
func (e Error) CausedBy() error { return e.cause }

// Error implements error.  The format is "<code>: <message>".
func (e Error) Error() string {
	if e.code == "" && e.message == "" {
		return "<nil>"
	}
	return e.code + ": " + e.message
}

func (e Error) Unwrap() error { return e.cause }

// IsZero reports whether e was never constructed.
func (e Error) IsZero() bool {
	return e.code == "" && e.message == "" && e.cause == nil
}

// Equal compares codes without regard to case and messages exactly.
func (e Error) Equal(other Error) bool {
	if e.message != other.message {
		return false
	}
	if e.code == other.code {
		return true
	}
	fold := cases.Fold()
	return fold.String(e.code) == fold.String(other.code)
}

type wireError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

func (e Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireError{Code: e.code, Message: e.message})
}

func (e *Error) UnmarshalJSON(b []byte) error {
	var w wireError
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = ErrorWithCode(w.Code, w.Message)
	return nil
}

// BadResultError is the configuration fault raised when an HTTPResult
// is constructed with a status code outside the range allowed for its
// kind.  It is raised with panic: it indicates a programming mistake.
type BadResultError struct {
	StatusCode int
	Ok         bool
}

func (e *BadResultError) Error() string {
	if e.Ok {
		return fmt.Sprintf("mediator: bad result: ok status code must be 200-299, got %d", e.StatusCode)
	}
	return fmt.Sprintf("mediator: bad result: error status code must be 400-599, got %d", e.StatusCode)
}

// ConfigError is the configuration fault raised (with panic) for
// registration and wiring mistakes: duplicate request types, conflicting
// routes, missing handlers and the like.
type ConfigError struct {
	Subject string
	Problem string
}

func (e *ConfigError) Error() string {
	if e.Subject == "" {
		return "mediator: " + e.Problem
	}
	return "mediator: " + e.Subject + ": " + e.Problem
}

func configPanicf(subject string, format string, args ...any) {
	panic(&ConfigError{Subject: subject, Problem: fmt.Sprintf(format, args...)})
}

// PanicError carries a recovered panic value that was not itself an error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

var (
	// ErrNoRequest is the cause attached when an inbound call carries no
	// request at all.
	ErrNoRequest = errors.New("mediator: no request")
)
