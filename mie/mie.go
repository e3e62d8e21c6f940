// Package mie computes scattering by spheres made of concentric homogeneous
// layers, using the recursive algorithms of Wu & Wang (Radio Sci. 26, 1393,
// 1991).
//
// Ratios of Riccati–Bessel functions are computed with stable top-down and
// bottom-up recursions and matched across each layer boundary from the core
// outwards, so the special functions themselves never need to be evaluated.
package mie

import (
	"errors"
	"fmt"
	"math/cmplx"
	"slices"
)

var _ = fmt.Print

const (
	// MaxOrder bounds the series truncation order.
	MaxOrder = 1 << 16
	// StabilityLimit is the largest value of Im(m)·x at any layer boundary
	// for which results are considered reliable.
	StabilityLimit = 20.0

	truncationEpsilon = 1e-30
	convergenceLimit  = 1e-40
)

var (
	// ErrTruncation is returned when the series order needed for the
	// requested size parameter exceeds MaxOrder.
	ErrTruncation = errors.New("mie: series truncation order out of range")
	// ErrInput is returned for inconsistent or non-physical inputs.
	ErrInput = errors.New("mie: invalid input")
)

// Result holds efficiency factors and auxiliary quantities for one size
// parameter.
type Result struct {
	Extinction, Scattering, Absorption float64
	Backscatter, RadiationPressure     float64
	Albedo, Asymmetry                  float64
	// Unstable is set when Im(m)·x at some boundary exceeds StabilityLimit.
	Unstable bool
	// Terms is the number of multipole orders that were summed.
	Terms int
}

// Solver holds scratch buffers that are reused across calls. The zero value
// is ready to use. A Solver must not be used concurrently.
type Solver struct {
	d1x              []float64
	d3x, cx          []complex128
	d11              []complex128
	inner, outer     []boundary
	d3, cc           []complex128
	sa, sb, sha, shb []complex128
	ra, rb           []complex128
	xx               []float64
	flat             []complex128
}

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}

func (self *Solver) prepare(nlayers, num, num2 int) {
	self.d1x = grow(self.d1x, num)
	self.d3x = grow(self.d3x, num)
	self.cx = grow(self.cx, num)
	self.ra = grow(self.ra, num)
	self.rb = grow(self.rb, num)
	self.d11 = grow(self.d11, num2)
	self.d3 = grow(self.d3, num2)
	self.cc = grow(self.cc, num2)
	self.sa = grow(self.sa, nlayers)
	self.sb = grow(self.sb, nlayers)
	self.sha = grow(self.sha, nlayers)
	self.shb = grow(self.shb, nlayers)
	self.xx = grow(self.xx, nlayers)
	nb := nlayers - 1
	self.flat = grow(self.flat, 6*nb*num2)
	self.inner = grow(self.inner, nb)
	self.outer = grow(self.outer, nb)
	f := self.flat
	take := func() []complex128 {
		ans := f[:num2:num2]
		f = f[num2:]
		return ans
	}
	for i := range nb {
		self.inner[i] = boundary{d1: take(), d2: take(), bb: take()}
		self.outer[i] = boundary{d1: take(), d2: take(), bb: take()}
	}
}

// Solve is a convenience wrapper that uses a fresh Solver.
func Solve(m []complex128, relativeRadius []float64, x float64) (Result, error) {
	var s Solver
	return s.Solve(m, relativeRadius, x)
}

// Solve computes the efficiency factors of a layered sphere. m holds the
// refractive index of each layer relative to the surrounding medium,
// innermost first, and relativeRadius the thickness of each layer as a
// fraction of the outer radius. x is the size parameter of the outer
// surface.
func (self *Solver) Solve(m []complex128, relativeRadius []float64, x float64) (ans Result, err error) {
	n := len(m)
	if n == 0 || len(relativeRadius) != n {
		return ans, fmt.Errorf("%w: %d refractive indices for %d relative radii", ErrInput, n, len(relativeRadius))
	}
	if !(x > 0) {
		return ans, fmt.Errorf("%w: size parameter %v", ErrInput, x)
	}
	if m, relativeRadius = without_empty_layers(m, relativeRadius); len(m) == 0 {
		return ans, fmt.Errorf("%w: every layer has zero thickness", ErrInput)
	}
	n = len(m)
	num := TruncationOrder(x)
	ari := 0.0
	for _, v := range m {
		ari = max(ari, cmplx.Abs(v))
	}
	num2 := max(TruncationOrder(ari*x), num)
	if num2 > MaxOrder {
		return ans, fmt.Errorf("%w: %d terms needed for x=%v, |m|=%v", ErrTruncation, num2, x, ari)
	}
	self.prepare(n, num, num2)

	// Size parameters of every layer boundary, innermost first.
	xx := self.xx
	sum := 0.0
	for i, r := range relativeRadius {
		sum += r
		xx[i] = x * sum
	}
	xx[n-1] = x

	logderiv_real(self.d1x, 1/x)
	outgoing(self.d3x, self.cx, self.d1x, x)

	ans.Unstable = imag(m[0])*xx[0] > StabilityLimit
	logderiv_complex(self.d11, m[0]*complex(xx[0], 0))
	for i := 1; i < n; i++ {
		if imag(m[i])*xx[i-1] > StabilityLimit || imag(m[i])*xx[i] > StabilityLimit {
			ans.Unstable = true
		}
		self.inner[i-1].fill(m[i]*complex(xx[i-1], 0), self.d3, self.cc)
		self.outer[i-1].fill(m[i]*complex(xx[i], 0), self.d3, self.cc)
	}

	terms := self.coefficients(m, num)
	self.sum(terms, x, &ans)
	ans.Terms = terms
	return ans, nil
}

// without_empty_layers drops layers of zero thickness, they have no
// boundary of their own for the field to cross.
func without_empty_layers(m []complex128, relativeRadius []float64) ([]complex128, []float64) {
	if !slices.Contains(relativeRadius, 0) {
		return m, relativeRadius
	}
	km := make([]complex128, 0, len(m))
	kr := make([]float64, 0, len(m))
	for i, r := range relativeRadius {
		if r != 0 {
			km, kr = append(km, m[i]), append(kr, r)
		}
	}
	return km, kr
}

// coefficients computes the Mie coefficients a_n, b_n into ra, rb by
// peeling the layers from the core outwards, stopping early once they are
// negligible. It returns the number of orders computed.
func (self *Solver) coefficients(m []complex128, num int) (terms int) {
	n := len(m)
	sa, sb, sha, shb := self.sa, self.sb, self.sha, self.shb
	mo := m[n-1]
	for i := range num {
		sa[0], sb[0] = 0, 0
		sha[0], shb[0] = self.d11[i], self.d11[i]
		for j := 1; j < n; j++ {
			rr, sr := &self.inner[j-1], &self.outer[j-1]
			sa[j] = rr.bb[i] * (m[j]*sha[j-1] - m[j-1]*rr.d1[i]) / nonzero(m[j]*sha[j-1]-m[j-1]*rr.d2[i])
			sb[j] = rr.bb[i] * (m[j-1]*shb[j-1] - m[j]*rr.d1[i]) / nonzero(m[j-1]*shb[j-1]-m[j]*rr.d2[i])
			da, db := nonzero(sr.bb[i]-sa[j]), nonzero(sr.bb[i]-sb[j])
			sha[j] = sr.bb[i]*sr.d1[i]/da - sa[j]*sr.d2[i]/da
			shb[j] = sr.bb[i]*sr.d1[i]/db - sb[j]*sr.d2[i]/db
		}
		d1, d3 := complex(self.d1x[i], 0), self.d3x[i]
		a := self.cx[i] * (sha[n-1] - mo*d1) / (sha[n-1] - mo*d3)
		b := self.cx[i] * (mo*shb[n-1] - d1) / (mo*shb[n-1] - d3)
		self.ra[i], self.rb[i] = a, b
		terms++
		if abs2(a)+abs2(b) < convergenceLimit {
			break
		}
	}
	return
}

// sum forms the efficiency factors from the first terms coefficients.
func (self *Solver) sum(terms int, x float64, ans *Result) {
	ra, rb := self.ra, self.rb
	b := 2 / (x * x)
	var c, d float64
	var r, s complex128
	n := 1.0
	sign := -1.0
	for i := range terms - 1 {
		i1 := float64(i + 1)
		n += 2
		r += complex((i1+0.5)*sign, 0) * (ra[i] - rb[i])
		sign = -sign
		s += complex(i1*(i1+2)/(i1+1), 0)*(ra[i]*cmplx.Conj(ra[i+1])+rb[i]*cmplx.Conj(rb[i+1])) +
			complex(n/i1/(i1+1), 0)*(ra[i]*cmplx.Conj(rb[i]))
		c += n * (real(ra[i]) + real(rb[i]))
		d += n * (abs2(ra[i]) + abs2(rb[i]))
	}
	ans.Extinction = b * c
	ans.Scattering = b * d
	ans.Backscatter = 2 * b * abs2(r)
	ans.RadiationPressure = ans.Extinction - 2*b*real(s)
	ans.Absorption = ans.Extinction - ans.Scattering
	ans.Albedo = ans.Scattering / ans.Extinction
	ans.Asymmetry = (ans.Extinction - ans.RadiationPressure) / ans.Scattering
}

// Coefficients returns copies of the Mie coefficients a_n and b_n computed
// by the most recent call to Solve.
func (self *Solver) Coefficients(terms int) (a, b []complex128) {
	terms = min(terms, len(self.ra))
	return slices.Clone(self.ra[:terms]), slices.Clone(self.rb[:terms])
}
