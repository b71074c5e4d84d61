package sim

import (
	"errors"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/physics"
)

var (
	// ErrIndexOutOfRange indicates a body index that does not exist.
	ErrIndexOutOfRange = body.ErrIndexOutOfRange

	// ErrZeroSeparation indicates a skipped coincident pair during a step.
	ErrZeroSeparation = physics.ErrZeroSeparation

	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("sim: parameter out of valid bounds")

	// ErrInvalidTransition describes starting a running engine or stopping a
	// stopped one. Both are no-ops; the error is only used in log records.
	ErrInvalidTransition = errors.New("sim: invalid state transition")
)
