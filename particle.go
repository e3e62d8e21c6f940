package npspec

import (
	"fmt"
	"math"

	"github.com/kovidgoyal/npspec/material"
	"github.com/kovidgoyal/npspec/quasi"
)

// Layer is one shell of a particle. RelativeRadius holds the thickness of
// the layer along the longitudinal and transverse axes as a fraction of the
// particle's radius on that axis.
type Layer struct {
	Material       int        `json:"material"`
	RelativeRadius [2]float64 `json:"relative_radius"`
}

// Particle describes the geometry of a layered particle. Layers are ordered
// from the core outwards. Radius holds the longitudinal and transverse
// radii in nm; a negative transverse radius means the particle is a sphere
// of the longitudinal radius.
type Particle struct {
	Radius [2]float64 `json:"radius"`
	Layers []Layer    `json:"layers"`
}

// SphereLayer returns a layer of a sphere.
func SphereLayer(material int, relativeRadius float64) Layer {
	return Layer{Material: material, RelativeRadius: [2]float64{relativeRadius, relativeRadius}}
}

// NewSphere returns a spherical particle of the given radius in nm.
func NewSphere(radius float64, layers ...Layer) Particle {
	return Particle{Radius: [2]float64{radius, -1}, Layers: layers}
}

// NewSpheroid returns a spheroid with the given longitudinal and transverse
// radii in nm.
func NewSpheroid(longitudinal, transverse float64, layers ...Layer) Particle {
	return Particle{Radius: [2]float64{longitudinal, transverse}, Layers: layers}
}

// IsSphere reports whether the particle is solved with Mie theory.
func (p Particle) IsSphere() bool { return p.Radius[1] < 0 }

// EquivalentRadius returns the radius in nm of the sphere with the same
// volume.
func (p Particle) EquivalentRadius() float64 {
	if p.IsSphere() {
		return p.Radius[0]
	}
	return math.Cbrt(p.Radius[0] * p.Radius[1] * p.Radius[1])
}

// SizeParameter returns 2π·r·n/λ for the equivalent radius r, medium
// refractive index n and wavelength λ in nm.
func (p Particle) SizeParameter(medium, wavelength float64) float64 {
	return 2 * math.Pi * p.EquivalentRadius() * medium / wavelength
}

// Validate checks the geometry of the particle. The returned error wraps
// one of the ErrorCode values.
func (p Particle) Validate() error {
	n := len(p.Layers)
	if n < 1 || n > MaxLayers {
		return fmt.Errorf("%w: got %d", InvalidNumberOfLayers, n)
	}
	if !p.IsSphere() && n > quasi.MaxLayers {
		return fmt.Errorf("%w: spheroids support at most %d layers, got %d", InvalidNumberOfLayers, quasi.MaxLayers, n)
	}
	if !(p.Radius[0] > 0) || p.Radius[1] == 0 || math.IsNaN(p.Radius[1]) || math.IsInf(p.Radius[0], 0) || math.IsInf(p.Radius[1], 0) {
		return fmt.Errorf("%w: got %v", InvalidRadius, p.Radius)
	}
	var sums [2]float64
	for i, l := range p.Layers {
		for axis, r := range l.RelativeRadius {
			if !(r >= 0 && r <= 1) {
				return fmt.Errorf("%w: layer %d has %v", InvalidRelativeRadius, i+1, l.RelativeRadius)
			}
			sums[axis] += r
		}
	}
	for axis, s := range sums {
		if math.Abs(s-1) > RelativeRadiusTolerance {
			return fmt.Errorf("%w: axis %d sums to %v", InvalidRelativeRadius, axis, s)
		}
	}
	return nil
}

func (p Particle) validate_materials(cat *material.Catalog) error {
	if cat == nil {
		return fmt.Errorf("%w: no material catalog", UnknownMaterial)
	}
	for i, l := range p.Layers {
		if err := cat.Resolve(l.Material); err != nil {
			return fmt.Errorf("%w: layer %d: %s", UnknownMaterial, i+1, err)
		}
	}
	return nil
}
