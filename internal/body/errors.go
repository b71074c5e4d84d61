package body

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBody indicates a non-positive or non-finite mass or radius.
	ErrInvalidBody = errors.New("body: invalid body")

	// ErrIndexOutOfRange indicates an index that does not address a live body.
	ErrIndexOutOfRange = errors.New("body: index out of range")
)

// IndexError reports the offending index together with the store size at
// the time of the call.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: %d (len %d)", ErrIndexOutOfRange, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}
