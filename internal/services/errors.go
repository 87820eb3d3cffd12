package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind classifies workflow failures so transports can map them without
// inspecting store or provider errors.
type Kind int

const (
	KindBackend Kind = iota
	KindValidation
	KindDuplicate
	KindNotFound
	KindEmptyTarget
	KindConnectivity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindNotFound:
		return "not_found"
	case KindEmptyTarget:
		return "empty_target"
	case KindConnectivity:
		return "connectivity"
	default:
		return "backend"
	}
}

// Error is the error type returned by every workflow in this package.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on the kind sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrDuplicate    = &Error{Kind: KindDuplicate}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrEmptyTarget  = &Error{Kind: KindEmptyTarget}
	ErrConnectivity = &Error{Kind: KindConnectivity}
	ErrBackend      = &Error{Kind: KindBackend}
)

var (
	// ErrPartialDelivery is wrapped by a broadcast that lost some recipients.
	ErrPartialDelivery = errors.New("some notifications were not written")
	// ErrConfirmationRequired is wrapped when a diet plan already exists and
	// the caller did not confirm adding another.
	ErrConfirmationRequired = errors.New("member already has a diet plan")
)

func validationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func duplicateError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDuplicate, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func backendError(msg string, err error) *Error {
	return &Error{Kind: KindBackend, Message: msg, Err: err}
}

// storeError translates a gorm error into the workflow taxonomy.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindDuplicate, Message: op, Err: err}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Message: op, Err: err}
	default:
		return backendError(op, err)
	}
}

// KindOf reports the kind of err. Errors from outside the taxonomy are
// treated as backend failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBackend
}
