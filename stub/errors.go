package stub

import (
	"errors"
	"fmt"
)

// ErrClosed is the result of calls that were pending when the stub was
// closed, or that were issued after.
var ErrClosed = errors.New("stub closed")

// ErrPendingDiscarded is the result of calls evicted from the pending table
// because PendingLimit was reached.
var ErrPendingDiscarded = errors.New("pending call discarded")

// ErrMalformedEnvelope is returned when a frame is not a protocol envelope.
type ErrMalformedEnvelope struct {
	Reason string
}

func (err ErrMalformedEnvelope) Error() string {
	return fmt.Sprintf("malformed envelope: %s", err.Reason)
}

// ErrContextMissingValue is returned when a context is missing an expected value.
type ErrContextMissingValue struct {
	Key contextKey
}

func (err ErrContextMissingValue) Error() string {
	return fmt.Sprintf("context missing value: %s", err.Key)
}

// ErrPanic wraps a value recovered from a panicking handler.
type ErrPanic struct {
	Name  string
	Value interface{}
}

func (err ErrPanic) Error() string {
	return fmt.Sprintf("handler %q panicked: %v", err.Name, err.Value)
}
