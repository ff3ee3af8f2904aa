// Package fault defines the error taxonomy shared by the adapters and the
// confirmation state machine. Adapter-level errors are translated into one of
// these kinds before any user-visible message is composed; raw backend errors
// never reach the chat.
package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindValidation: malformed mutation fields or reminder schema. Reported, no retry.
	KindValidation Kind = iota
	// KindUnauthorized: allow-list denies or backend auth fails. Fatal for the action.
	KindUnauthorized
	// KindTransient: timeout or rate limit. Retryable.
	KindTransient
	// KindNotFound: unknown reminder id or workspace object.
	KindNotFound
	// KindExpired: proposal TTL elapsed.
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindTransient:
		return "transient"
	case KindNotFound:
		return "not_found"
	case KindExpired:
		return "expired"
	}
	return "unknown"
}

// Error is a kind-tagged error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with a kind.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Newf builds a kind-tagged error from a format string.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the kind of err; untagged errors count as transient, which
// keeps unknown adapter failures retryable rather than silently terminal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindTransient
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
