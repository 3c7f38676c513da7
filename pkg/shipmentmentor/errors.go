package shipmentmentor

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error so callers can branch without parsing messages.
type Kind string

const (
	// KindConfiguration means the client is missing required settings (access token).
	KindConfiguration Kind = "configuration"
	// KindValidation means the payload failed schema validation.
	KindValidation Kind = "validation"
	// KindTransport covers network, TLS, timeout and non-2xx HTTP failures.
	KindTransport Kind = "transport"
	// KindRemote means the service answered with a non-success envelope.
	KindRemote Kind = "remote"
	// KindMalformedResponse means the service answered 2xx with a body that is not an envelope.
	KindMalformedResponse Kind = "malformed_response"
)

// Error is the error type returned by every Client operation.
type Error struct {
	Kind       Kind
	Op         string
	Message    string
	StatusCode int
	Violations []Violation
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	b.WriteString(" error")
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) withOp(op string) *Error {
	e.Op = op
	return e
}

func (e *Error) withCause(err error) *Error {
	e.Cause = err
	return e
}

func (e *Error) withStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrConfiguration     = &Error{Kind: KindConfiguration}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrTransport         = &Error{Kind: KindTransport}
	ErrRemote            = &Error{Kind: KindRemote}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
)

// ErrMissingAccessToken is the cause attached to configuration errors raised at call time.
var ErrMissingAccessToken = errors.New("invalid access token")

// KindOf returns the Kind of err, or "" if err is not (and does not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Violation is a single field-level schema failure.
type Violation struct {
	Field   string
	Rule    string
	Message string
}

func (v Violation) String() string {
	return v.Message
}

func validationError(violations []Violation) *Error {
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Message
	}
	return &Error{
		Kind:       KindValidation,
		Message:    strings.Join(msgs, ", "),
		Violations: violations,
	}
}

func remoteMessage(status, message string) string {
	if message != "" {
		return message
	}
	return fmt.Sprintf("remote status %q", status)
}
