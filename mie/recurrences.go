package mie

import (
	"math"
	"math/cmplx"
)

// TruncationOrder returns the number of series terms needed for size
// parameter x.
func TruncationOrder(x float64) int {
	switch {
	case x < 1:
		return int(7.5*x + 9.0)
	case x > 100:
		return int(1.0625*x + 28.5)
	default:
		return int(1.25*x + 15.5)
	}
}

// logderiv_real fills ru with the logarithmic derivatives of the
// Riccati–Bessel function ψ at real argument 1/a, by downward recursion.
func logderiv_real(ru []float64, a float64) {
	num := len(ru)
	ru[num-1] = float64(num+1) * a
	for i := num - 1; i > 0; i-- {
		s1 := float64(i+1) * a
		ru[i-1] = s1 - 1/(ru[i]+s1)
	}
}

// logderiv_complex is logderiv_real for complex argument rx.
func logderiv_complex(ru []complex128, rx complex128) {
	num := len(ru)
	s := 1 / rx
	ru[num-1] = complex(float64(num+1), 0) * s
	for i := num - 1; i > 0; i-- {
		s1 := complex(float64(i+1), 0) * s
		ru[i-1] = s1 - 1/(ru[i]+s1)
	}
}

// outgoing fills d3 with the logarithmic derivatives of the outgoing
// Riccati–Hankel function and c with the ratio ψ/ξ at real argument x, by
// upward recursion. d1 holds the ψ logarithmic derivatives at x.
func outgoing(d3, c []complex128, d1 []float64, x float64) {
	ax := 1 / x
	rxy := complex(math.Cos(2*x), math.Sin(2*x))
	c0 := -(1 - rxy) / (2 * rxy)
	d3[0] = complex(-ax, 0) + 1/complex(ax, -1)
	c[0] = c0 * (complex(ax, 0) + d3[0]) / complex(ax+d1[0], 0)
	for i := 1; i < len(d3); i++ {
		a1 := complex(float64(i+1)*ax, 0)
		d3[i] = -a1 + 1/(a1-d3[i-1])
		c[i] = c[i-1] * (a1 + d3[i]) / (a1 + complex(d1[i], 0))
	}
}

// boundary holds the recursion ratios at one layer boundary: the ψ and χ
// logarithmic derivatives and the ratio ψ/χ used for matching.
type boundary struct {
	d1, d2, bb []complex128
}

// fill computes the boundary ratios at complex argument rx. d3 and cc are
// scratch buffers of the same length.
func (b boundary) fill(rx complex128, d3, cc []complex128) {
	logderiv_complex(b.d1, rx)
	x, y := real(rx), imag(rx)
	rx1 := 1 / rx
	rxy := complex(math.Cos(2*x), math.Sin(2*x)) * complex(math.Exp(-2*y), 0)
	c0 := -(1 - rxy) / (2 * rxy)
	b0 := complex(0, 1) * (1 - rxy) / (1 + rxy)
	d3[0] = -rx1 + 1/(rx1-complex(0, 1))
	cc[0] = c0 * (rx1 + d3[0]) / (rx1 + b.d1[0])
	b.d2[0] = (cc[0]*b.d1[0] - d3[0]) / (cc[0] - 1)
	b.bb[0] = b0 * (rx1 + b.d2[0]) / (rx1 + b.d1[0])
	for i := 1; i < len(d3); i++ {
		r1 := complex(float64(i+1), 0) * rx1
		d3[i] = -r1 + 1/(r1-d3[i-1])
		cc[i] = cc[i-1] * (r1 + d3[i]) / (r1 + b.d1[i])
		b.d2[i] = (cc[i]*b.d1[i] - d3[i]) / (cc[i] - 1)
		b.bb[i] = b.bb[i-1] * (r1 + b.d2[i]) / (r1 + b.d1[i])
	}
}

// nonzero replaces an exactly zero denominator with a tiny value.
func nonzero(d complex128) complex128 {
	if cmplx.Abs(d) == 0 {
		return d + truncationEpsilon
	}
	return d
}

func abs2(z complex128) float64 { return real(z)*real(z) + imag(z)*imag(z) }
