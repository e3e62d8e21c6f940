package npspec

import (
	"fmt"
	"math"
	"strings"

	"github.com/kovidgoyal/npspec/grid"
)

var _ = fmt.Print

const (
	// NLambda is the number of wavelengths in a spectrum.
	NLambda = grid.N
	// MaxLayers is the largest number of layers a particle may have.
	MaxLayers = 10

	// Avogadro's number in 1/mol.
	Avogadro = 6.0221412927e23
	// MolarFactor converts a cross section in nm² into a molar
	// absorptivity in L/(mol·cm).
	MolarFactor = 1e-14 * Avogadro / (1000 * math.Ln10)

	// MinSizeParameter is the size parameter below which a wavelength is
	// skipped.
	MinSizeParameter = 1e-7
	// QuasistaticWarning is the size parameter above which quasistatic
	// results are flagged with SizeWarning.
	QuasistaticWarning = 3.0
	// QuasistaticLimit is the size parameter above which the quasistatic
	// approximation is refused.
	QuasistaticLimit = 3.5
	// RelativeRadiusTolerance is how far the relative radii of an axis may
	// sum from 1.
	RelativeRadiusTolerance = 1e-6
)

// SpectraType is the physical quantity a spectrum is reported in.
type SpectraType int

const (
	// Efficiency is the cross section divided by the geometric cross
	// section.
	Efficiency SpectraType = iota
	// CrossSection is in nm².
	CrossSection
	// Molar is the molar absorptivity in L/(mol·cm).
	Molar
	// Absorption is the absorbance of a solution with the configured path
	// length and concentration.
	Absorption
)

var spectraTypeNames = map[SpectraType]string{
	Efficiency:   "efficiency",
	CrossSection: "cross_section",
	Molar:        "molar",
	Absorption:   "absorption",
}

func (t SpectraType) String() string {
	if ans, ok := spectraTypeNames[t]; ok {
		return ans
	}
	return fmt.Sprintf("SpectraType(%d)", int(t))
}

// Shape of a particle.
type Shape int

const (
	Sphere Shape = iota
	Ellipsoid
)

var shapeNames = map[Shape]string{
	Sphere:    "sphere",
	Ellipsoid: "ellipsoid",
}

func (s Shape) String() string {
	if ans, ok := shapeNames[s]; ok {
		return ans
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// SpectraProperty selects one of the three computed spectra.
type SpectraProperty int

const (
	Extinction SpectraProperty = iota
	Absorbance
	Scattering
)

var spectraPropertyNames = map[SpectraProperty]string{
	Extinction: "extinction",
	Absorbance: "absorbance",
	Scattering: "scattering",
}

func (p SpectraProperty) String() string {
	if ans, ok := spectraPropertyNames[p]; ok {
		return ans
	}
	return fmt.Sprintf("SpectraProperty(%d)", int(p))
}

func parse_name[T comparable](kind, s string, names map[T]string, aliases map[string]T) (T, error) {
	q := strings.ToLower(strings.TrimSpace(s))
	q = strings.NewReplacer("-", "_", " ", "_").Replace(q)
	for k, v := range names {
		if v == q {
			return k, nil
		}
	}
	if ans, ok := aliases[q]; ok {
		return ans, nil
	}
	var zero T
	return zero, fmt.Errorf("unknown %s: %q", kind, s)
}

// ParseSpectraType parses the name of a spectra type, case insensitively.
func ParseSpectraType(s string) (SpectraType, error) {
	return parse_name("spectra type", s, spectraTypeNames, map[string]SpectraType{"crosssection": CrossSection, "cross": CrossSection})
}

// ParseShape parses the name of a shape, case insensitively. "spheroid" is
// accepted for Ellipsoid.
func ParseShape(s string) (Shape, error) {
	return parse_name("shape", s, shapeNames, map[string]Shape{"spheroid": Ellipsoid})
}

// ParseSpectraProperty parses the name of a spectra property, case
// insensitively. "absorption" is accepted for Absorbance.
func ParseSpectraProperty(s string) (SpectraProperty, error) {
	return parse_name("spectra property", s, spectraPropertyNames, map[string]SpectraProperty{"absorption": Absorbance})
}

func (t SpectraType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *SpectraType) UnmarshalText(b []byte) (err error) {
	*t, err = ParseSpectraType(string(b))
	return
}

func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Shape) UnmarshalText(b []byte) (err error) {
	*s, err = ParseShape(string(b))
	return
}

func (p SpectraProperty) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *SpectraProperty) UnmarshalText(b []byte) (err error) {
	*p, err = ParseSpectraProperty(string(b))
	return
}
