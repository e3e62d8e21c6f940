// Package grid defines the fixed wavelength grid every spectrum is sampled on.
package grid

import (
	"fmt"
)

var _ = fmt.Print

const (
	// N is the number of wavelengths in a spectrum.
	N = 800
	// Start is the first wavelength in nanometers.
	Start = 200
	// Step is the spacing between wavelengths in nanometers.
	Step = 1
	// End is the last wavelength in nanometers.
	End = Start + (N-1)*Step
)

// Wavelengths holds the grid in nanometers, 200..999.
var Wavelengths = func() (ans [N]float64) {
	for i := range ans {
		ans[i] = Wavelength(i)
	}
	return
}()

// Wavelength returns the wavelength in nanometers at grid index i.
func Wavelength(i int) float64 {
	return float64(Start + i*Step)
}

// Index returns the grid index of the given wavelength in nanometers, or -1
// if it does not lie on the grid.
func Index(nm float64) int {
	i := (nm - Start) / Step
	if i < 0 || i > N-1 || i != float64(int(i)) {
		return -1
	}
	return int(i)
}

// ValidStride reports whether stride is a positive divisor of N.
func ValidStride(stride int) bool {
	return stride > 0 && N%stride == 0
}

// Samples returns the grid indices visited with the given stride.
func Samples(stride int) []int {
	if stride < 1 {
		stride = 1
	}
	ans := make([]int, 0, (N+stride-1)/stride)
	for i := 0; i < N; i += stride {
		ans = append(ans, i)
	}
	return ans
}
