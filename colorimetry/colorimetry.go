// Package colorimetry converts spectra on the wavelength grid into the color
// a human observer would see.
//
// A spectrum is weighted with the CIE 1931 2° color matching functions
// multiplied by a daylight illuminant, giving XYZ tristimulus values relative
// to the illuminant. These are mapped to linear sRGB with a fixed matrix,
// companded with the sRGB transfer function and clipped to [0,1].
//
// The weights are computed once, when the package is initialized, and are
// never modified afterwards, so a Converter is safe for concurrent use.
package colorimetry

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/kovidgoyal/npspec/grid"
)

var _ = fmt.Print

type Vec3 [3]float64
type Mat3 [3][3]float64

// sRGB (linear) transform matrix from CIE XYZ (D65)
var srgbFromXYZ = Mat3{
	{3.2404542, -1.5371385, -0.4985314},
	{-0.9692660, 1.8760108, 0.0415560},
	{0.0556434, -0.2040259, 1.0572252},
}

// ErrSpectrumLength is returned for spectra that do not cover the grid.
var ErrSpectrumLength = errors.New("colorimetry: spectrum does not cover the wavelength grid")

// Observer holds the color matching functions multiplied by an illuminant,
// one value per grid wavelength.
type Observer struct {
	X, Y, Z [grid.N]float64
}

// lobe is one piecewise Gaussian of the analytic fit to the CIE 1931
// functions by Wyman, Sloan and Shirley.
type lobe struct{ weight, mean, below, above float64 }

func (l lobe) at(wavelength float64) float64 {
	s := l.above
	if wavelength < l.mean {
		s = l.below
	}
	t := (wavelength - l.mean) / s
	return l.weight * math.Exp(-0.5*t*t)
}

var cie1931 = [3][]lobe{
	{{1.056, 599.8, 37.9, 31.0}, {0.362, 442.0, 16.0, 26.7}, {-0.065, 501.1, 20.4, 26.2}},
	{{0.821, 568.8, 46.9, 40.5}, {0.286, 530.9, 16.3, 31.1}},
	{{1.217, 437.0, 11.8, 36.0}, {0.681, 459.0, 26.0, 13.8}},
}

// ColorMatching returns the CIE 1931 2° color matching functions x̄, ȳ and z̄
// at the given wavelength in nm.
func ColorMatching(wavelength float64) (x, y, z float64) {
	var ans [3]float64
	for i, lobes := range cie1931 {
		for _, l := range lobes {
			ans[i] += l.at(wavelength)
		}
	}
	return ans[0], ans[1], ans[2]
}

// DaylightTemperature is the correlated color temperature of the D65
// illuminant in K. The builtin observer uses a black body at this
// temperature as a stand-in for the tabulated D65 curve, so colors of
// structured spectra differ slightly from ones computed with real D65 data.
// Load the tabulated curve with LoadObserver when that matters.
const DaylightTemperature = 6504

// Planck returns the spectral radiance of a black body at temperature t in K
// and the given wavelength in nm, normalized to 1 at 560 nm. At
// DaylightTemperature it stands in for the D65 illuminant, which it follows
// only roughly below 400 nm.
func Planck(wavelength, t float64) float64 {
	const c2 = 1.4387769e7 // second radiation constant in nm·K
	f := func(w float64) float64 { return 1 / (math.Pow(w, 5) * math.Expm1(c2/(w*t))) }
	return f(wavelength) / f(560)
}

// CIE1931 returns the builtin observer: the analytic CIE 1931 functions
// weighted with a black body at DaylightTemperature in place of D65.
func CIE1931() *Observer {
	var ans Observer
	for i, w := range grid.Wavelengths {
		x, y, z := ColorMatching(w)
		d := Planck(w, DaylightTemperature)
		ans.X[i], ans.Y[i], ans.Z[i] = x*d, y*d, z*d
	}
	return &ans
}

// NewObserver builds an observer from tabulated color matching functions
// and an illuminant, all sampled on the grid.
func NewObserver(x, y, z, illuminant []float64) (*Observer, error) {
	for _, s := range [][]float64{x, y, z, illuminant} {
		if len(s) != grid.N {
			return nil, fmt.Errorf("%w: got %d values", ErrSpectrumLength, len(s))
		}
	}
	var ans Observer
	for i := range grid.N {
		ans.X[i], ans.Y[i], ans.Z[i] = x[i]*illuminant[i], y[i]*illuminant[i], z[i]*illuminant[i]
	}
	for _, s := range [][]float64{ans.X[:], ans.Y[:], ans.Z[:]} {
		if !(floats.Sum(s) > 0) {
			return nil, fmt.Errorf("colorimetry: observer has no weight")
		}
	}
	return &ans, nil
}

func find_column(names []string, candidates ...string) string {
	for _, c := range candidates {
		for _, n := range names {
			if n == c {
				return n
			}
		}
	}
	return ""
}

// LoadObserver reads tabulated color matching functions and an illuminant
// from CSV with a header row naming the columns wavelength, x, y, z and
// illuminant (or d65). The table is interpolated linearly onto the grid and
// is zero outside the tabulated range.
func LoadObserver(r io.Reader) (*Observer, error) {
	df := dataframe.ReadCSV(r, dataframe.HasHeader(true), dataframe.WithDelimiter(','))
	if df.Err != nil {
		return nil, df.Err
	}
	names := df.Names()
	cols := [5]string{
		find_column(names, "wavelength", "lambda", "nm"),
		find_column(names, "x", "X"),
		find_column(names, "y", "Y"),
		find_column(names, "z", "Z"),
		find_column(names, "illuminant", "d65", "D65"),
	}
	for _, c := range cols {
		if c == "" {
			return nil, fmt.Errorf("colorimetry: observer table needs wavelength, x, y, z and illuminant columns, got %v", names)
		}
	}
	df = df.Arrange(dataframe.Sort(cols[0]))
	wl := df.Col(cols[0]).Float()
	if len(wl) < 2 {
		return nil, fmt.Errorf("colorimetry: need at least two rows, got %d", len(wl))
	}
	var sampled [4][]float64
	for i, c := range cols[1:] {
		var pl interp.PiecewiseLinear
		if err := pl.Fit(wl, df.Col(c).Float()); err != nil {
			return nil, fmt.Errorf("colorimetry: column %s: %w", c, err)
		}
		s := make([]float64, grid.N)
		for j, w := range grid.Wavelengths {
			if w >= wl[0] && w <= wl[len(wl)-1] {
				s[j] = pl.Predict(w)
			}
		}
		sampled[i] = s
	}
	return NewObserver(sampled[0], sampled[1], sampled[2], sampled[3])
}

// Converter turns spectra into colors using a fixed observer.
type Converter struct {
	observer Observer
}

// NewConverter returns a converter for the given observer.
func NewConverter(o *Observer) *Converter {
	return &Converter{observer: *o}
}

// Default uses the builtin observer.
var Default = NewConverter(CIE1931())

// Observer returns a copy of the weights used by the converter.
func (self *Converter) Observer() Observer { return self.observer }

// XYZ returns the tristimulus values of spectrum, sampled every stride
// wavelengths, relative to the illuminant. A stride less than one is treated
// as one. When transmission is set the spectrum is an absorbance and each
// sample v is replaced by the transmittance 10^-v.
func (self *Converter) XYZ(spectrum []float64, stride int, transmission bool) (Vec3, error) {
	if len(spectrum) < grid.N {
		return Vec3{}, fmt.Errorf("%w: got %d values", ErrSpectrumLength, len(spectrum))
	}
	stride = max(1, stride)
	n := (grid.N + stride - 1) / stride
	sampled := make([]float64, 0, n)
	w := [3][]float64{make([]float64, 0, n), make([]float64, 0, n), make([]float64, 0, n)}
	for i := 0; i < grid.N; i += stride {
		v := spectrum[i]
		if transmission {
			v = math.Pow(10, -v)
		}
		sampled = append(sampled, v)
		w[0] = append(w[0], self.observer.X[i])
		w[1] = append(w[1], self.observer.Y[i])
		w[2] = append(w[2], self.observer.Z[i])
	}
	var ans Vec3
	for i, weights := range w {
		ans[i] = floats.Dot(sampled, weights) / floats.Sum(weights)
	}
	return ans, nil
}

// RGB returns the sRGB color of spectrum. See XYZ for the meaning of stride
// and transmission.
func (self *Converter) RGB(spectrum []float64, stride int, transmission bool) (RGB, error) {
	xyz, err := self.XYZ(spectrum, stride, transmission)
	if err != nil {
		return RGB{}, err
	}
	return XYZToRGB(xyz), nil
}

// RGBFromSpectrum converts with the Default converter.
func RGBFromSpectrum(spectrum []float64, stride int, transmission bool) (RGB, error) {
	return Default.RGB(spectrum, stride, transmission)
}

// XYZToRGB converts tristimulus values to companded sRGB clipped to [0,1].
func XYZToRGB(xyz Vec3) RGB {
	r, g, b := mulMat3Vec(srgbFromXYZ, xyz)
	return RGB{
		R: clamp01(linearToSRGBComp(r)),
		G: clamp01(linearToSRGBComp(g)),
		B: clamp01(linearToSRGBComp(b)),
	}
}

func ff(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math.Cbrt(t)
	}
	return t/(3*delta*delta) + 4.0/29.0
}

// XYZToLab converts tristimulus values as returned by Converter.XYZ, which
// are already relative to the white point, into CIELAB.
func XYZToLab(xyz Vec3) (L, a, b float64) {
	fx, fy, fz := ff(xyz[0]), ff(xyz[1]), ff(xyz[2])
	L = 116.0*fy - 16.0
	a = 500.0 * (fx - fy)
	b = 200.0 * (fy - fz)
	return
}

// linearToSRGBComp applies the sRGB (gamma) companding function to a linear component.
func linearToSRGBComp(c float64) float64 {
	if c > 0.0031308 {
		return 1.055*math.Pow(c, 1.0/2.4) - 0.055
	}
	return 12.92 * c
}

func clamp01(x float64) float64 {
	return max(0, min(x, 1))
}

func mulMat3Vec(m Mat3, v Vec3) (x, y, z float64) {
	x = m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2]
	y = m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2]
	z = m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2]
	return
}
