// Package quasi computes the optical response of small one or two layer
// spheroids in the quasistatic (dipole) approximation.
//
// The longitudinal axis moves freely while the two transverse axes are
// locked together, which keeps the geometric factors analytic.
package quasi

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

var _ = fmt.Print

const (
	// MaxLayers is the largest number of layers the approximation supports.
	MaxLayers = 2
	// SphereTolerance is the largest difference between the two radii of a
	// layer, in nm, for which it is treated as a sphere.
	SphereTolerance = 1e-3
)

var (
	// ErrTooManyLayers is returned for particles with more than MaxLayers
	// layers.
	ErrTooManyLayers = errors.New("quasi: at most two layers are supported")
	// ErrInput is returned for inconsistent inputs.
	ErrInput = errors.New("quasi: invalid input")
)

// Result holds efficiency factors.
type Result struct {
	Extinction, Scattering, Absorption float64
}

// GeometricFactors returns the depolarization factors along the
// longitudinal axis and along each transverse axis of a spheroid with the
// given radii. The factors satisfy longitudinal + 2·transverse = 1. A
// spheroid with a zero transverse radius is a needle (0, 1/2) and one with
// a zero longitudinal radius a disc (1, 0).
func GeometricFactors(longitudinal, transverse float64) (gl, gt float64) {
	switch {
	case math.Abs(longitudinal-transverse) < SphereTolerance:
		return 1.0 / 3, 1.0 / 3
	case transverse <= 0:
		return 0, 0.5
	case longitudinal <= 0:
		return 1, 0
	case longitudinal > transverse: // prolate
		e := 1 - transverse/longitudinal
		se := math.Sqrt(e)
		gl = ((1 - e) / e) * (-1 + (1/(2*se))*math.Log((1+se)/(1-se)))
		return gl, (1 - gl) / 2
	default: // oblate
		e := 1 - longitudinal/transverse
		g := math.Sqrt((1 - e) / e)
		gt = (g/(2*e))*(math.Pi/2-math.Atan(g)) - g*g/2
		return 1 - 2*gt, gt
	}
}

// Solve computes efficiency factors. eps holds the dielectric constant of
// each layer, innermost first, medium the dielectric constant of the
// surroundings, relativeRadius the (longitudinal, transverse) thickness of
// each layer as a fraction of the outer radii, radius the absolute outer
// radii and x the size parameter.
func Solve(eps []complex128, medium float64, relativeRadius [][2]float64, radius [2]float64, x float64) (ans Result, err error) {
	n := len(eps)
	if n > MaxLayers {
		return ans, fmt.Errorf("%w: got %d", ErrTooManyLayers, n)
	}
	if n == 0 || len(relativeRadius) != n {
		return ans, fmt.Errorf("%w: %d dielectric constants for %d relative radii", ErrInput, n, len(relativeRadius))
	}

	// Volume of the core relative to the whole particle.
	core := relativeRadius[0][0] * relativeRadius[0][1] * relativeRadius[0][1]

	// Geometric factors indexed by [axis][layer].
	var gf [2][MaxLayers]float64
	for l := range n {
		gf[0][l], gf[1][l] = GeometricFactors(relativeRadius[l][0]*radius[0], relativeRadius[l][1]*radius[1])
	}

	em := complex(medium, 0)
	var die [2]complex128
	switch n {
	case 1:
		for i := range die {
			die[i] = (eps[0] - em) / (3 * (em + complex(gf[i][0], 0)*(eps[0]-em)))
		}
	case 2:
		e0, e1 := eps[0], eps[1]
		f := complex(core, 0)
		for i := range die {
			lc, ls := complex(gf[i][0], 0), complex(gf[i][1], 0)
			t := e1 + (e0-e1)*(lc-f*ls)
			num := (e1-em)*t + f*e1*(e0-e1)
			den := t*(em+(e1-em)*ls) + f*ls*e1*(e0-e1)
			die[i] = num / (3 * den)
		}
	}

	avg := (die[0] + 2*die[1]) / 3
	ans.Absorption = 4 * x * imag(avg)
	s := cmplx.Abs(avg)
	ans.Scattering = (8.0 / 3) * x * x * x * x * s * s
	ans.Extinction = ans.Absorption + ans.Scattering
	return
}
