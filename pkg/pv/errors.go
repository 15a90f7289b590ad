package pv

import (
	"errors"
	"fmt"
	"time"
)

// Facade errors.
var (
	// ErrTimeout is the sentinel wrapped by TimeoutError.
	ErrTimeout = errors.New("timeout")

	// ErrNoAccess is the sentinel wrapped by AccessError.
	ErrNoAccess = errors.New("access denied")

	// ErrValue is the sentinel wrapped by ValueError.
	ErrValue = errors.New("invalid value")

	// ErrClosed is returned by operations on a disconnected handle.
	ErrClosed = errors.New("pv closed")

	// ErrNotImplemented is returned by operations the facade
	// intentionally does not support.
	ErrNotImplemented = errors.New("not implemented")

	// ErrEnumStringsUnset is returned when string formatting of an
	// enum value is requested before the name list is known.
	ErrEnumStringsUnset = errors.New("enum strings unset")
)

// TimeoutError reports a connect, read, write or batch operation that
// did not complete within its allotted time.
type TimeoutError struct {
	// Name is the variable the operation was for.
	Name string

	// Op names the operation (connect, get, put).
	Op string

	// Timeout is the allotted duration.
	Timeout time.Duration

	// Err is the underlying cause, if any.
	Err error
}

// Error returns the message, naming the variable and duration.
func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s: %s did not complete within %s", e.Name, e.Op, e.Timeout)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrTimeout (and the cause chain, if any).
func (e *TimeoutError) Unwrap() error {
	if e.Err != nil {
		return fmt.Errorf("%w: %w", ErrTimeout, e.Err)
	}
	return ErrTimeout
}

// AccessError reports a write attempted without write access. It is
// raised before any network round-trip.
type AccessError struct {
	// Name is the variable the write was for.
	Name string
}

// Error returns the message.
func (e *AccessError) Error() string {
	return fmt.Sprintf("%s: cannot put without write access", e.Name)
}

// Unwrap returns ErrNoAccess.
func (e *AccessError) Unwrap() error { return ErrNoAccess }

// ValueError reports malformed caller input: unresolvable enum text,
// mismatched batch list lengths, a nil callback, or an explicit
// callback index.
type ValueError struct {
	// Msg describes what was wrong.
	Msg string
}

// Error returns the message.
func (e *ValueError) Error() string { return e.Msg }

// Unwrap returns ErrValue.
func (e *ValueError) Unwrap() error { return ErrValue }

func valueErrorf(format string, args ...any) *ValueError {
	return &ValueError{Msg: fmt.Sprintf(format, args...)}
}
