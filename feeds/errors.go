package feeds

import (
	"errors"
	"fmt"
)

// ErrNoPreference means the blog has not been initialized yet
var ErrNoPreference = errors.New("preference not found")

// ErrorKind tells the caller how a failed build should be answered
type ErrorKind int

const (
	ServiceUnavailable ErrorKind = iota
	NotFound
	BadRequest
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case BadRequest:
		return "bad request"
	default:
		return "service unavailable"
	}
}

// Error is returned by the Assembler for every failed build
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err. Errors not produced by this package are
// treated as ServiceUnavailable.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ServiceUnavailable
}

func unavailable(op string, err error) error {
	return &Error{Kind: ServiceUnavailable, Op: op, Err: err}
}

func notFound(op string, err error) error {
	return &Error{Kind: NotFound, Op: op, Err: err}
}

func badRequest(op string, err error) error {
	return &Error{Kind: BadRequest, Op: op, Err: err}
}
