package physics

import (
	"errors"
	"fmt"
)

// ErrZeroSeparation indicates two distinct bodies at the same position that
// were not merged. The pair's force contribution is skipped.
var ErrZeroSeparation = errors.New("physics: zero separation between bodies")

type ZeroSeparationError struct {
	I, J int
}

func (e *ZeroSeparationError) Error() string {
	return fmt.Sprintf("%s %d and %d", ErrZeroSeparation, e.I, e.J)
}

func (e *ZeroSeparationError) Unwrap() error {
	return ErrZeroSeparation
}
