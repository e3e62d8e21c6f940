package npspec

import (
	"fmt"
)

// ErrorCode is the outcome of a spectrum calculation. Every value other
// than NoError implements error, so callers can use errors.Is to test for a
// particular kind.
type ErrorCode int

const (
	NoError ErrorCode = 0
	// NanoparticleTooLarge means the size parameter is beyond the validity
	// of the quasistatic approximation.
	NanoparticleTooLarge ErrorCode = -1
	// SolverFailure means the Mie series could not be set up.
	SolverFailure ErrorCode = -2
	// SizeWarning means results are computed but may be unreliable, either
	// because a quasistatic size parameter is borderline or because the Mie
	// recursions are numerically unstable.
	SizeWarning            ErrorCode = -3
	InvalidRadius          ErrorCode = -4
	InvalidRelativeRadius  ErrorCode = -5
	InvalidIncrement       ErrorCode = -6
	InvalidPathLength      ErrorCode = -7
	InvalidConcentration   ErrorCode = -8
	InvalidRefractiveIndex ErrorCode = -9
	InvalidNumberOfLayers  ErrorCode = -10
	UnknownMaterial        ErrorCode = -11
)

var errorMessages = map[ErrorCode]string{
	NoError:                "no error",
	NanoparticleTooLarge:   "nanoparticle too large for the quasistatic approximation",
	SolverFailure:          "mie solver failure",
	SizeWarning:            "size parameter warning",
	InvalidRadius:          "radius must be positive",
	InvalidRelativeRadius:  "relative radii must be between 0 and 1 and sum to 1",
	InvalidIncrement:       "increment must be a positive factor of 800",
	InvalidPathLength:      "path length must be positive",
	InvalidConcentration:   "concentration must be positive",
	InvalidRefractiveIndex: "refractive index must be positive",
	InvalidNumberOfLayers:  "number of layers must be between 1 and 10, at most 2 for spheroids",
	UnknownMaterial:        "unknown material",
}

func (e ErrorCode) Error() string {
	if ans, ok := errorMessages[e]; ok {
		return ans
	}
	return fmt.Sprintf("error code %d", int(e))
}

func (e ErrorCode) String() string { return e.Error() }

// Fatal reports whether the code means no usable spectrum was produced.
func (e ErrorCode) Fatal() bool { return e != NoError && e != SizeWarning }
