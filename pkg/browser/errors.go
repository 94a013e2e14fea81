package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// ErrorKind classifies a failure so callers can tell failures apart
// without parsing messages.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindUnknownRef      ErrorKind = "unknown_ref"
	KindIndexOutOfRange ErrorKind = "index_out_of_range"
	KindTimeout         ErrorKind = "timeout"
	KindDriver          ErrorKind = "driver"
	KindSessionAbsent   ErrorKind = "session_absent"
	KindPolicy          ErrorKind = "policy"
)

// Error is the error type returned by the browser core.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUnknownRef      = &Error{Kind: KindUnknownRef}
	ErrIndexOutOfRange = &Error{Kind: KindIndexOutOfRange}
	ErrTimeout         = &Error{Kind: KindTimeout}
	ErrDriver          = &Error{Kind: KindDriver}
	ErrSessionAbsent   = &Error{Kind: KindSessionAbsent}
	ErrPolicy          = &Error{Kind: KindPolicy}
)

// Errorf creates an *Error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of err. Errors that are not *Error are classified
// from the driver: timeouts become KindTimeout, anything else KindDriver.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	if errors.Is(err, playwright.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindDriver
}

// wrap turns a driver error into an *Error tagged with op.
// Errors that already are *Error keep their kind and gain op if missing.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		if be.Op == "" {
			return &Error{Kind: be.Kind, Op: op, Err: be.Err}
		}
		return err
	}
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}

// Message returns a single-paragraph message for err, dropping the call log
// Playwright appends to driver errors.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.Index(msg, "\nCall log:"); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(msg)
}
