// Package nanoparticle provides a stateful description of a layered
// nanoparticle, the way an interactive program edits one: every parameter
// has a setter that rejects illegal values immediately, relative radii are
// kept summing to one as layers are resized, and Calculate produces the
// spectrum together with its color.
package nanoparticle

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/kovidgoyal/npspec"
	"github.com/kovidgoyal/npspec/colorimetry"
	"github.com/kovidgoyal/npspec/grid"
	"github.com/kovidgoyal/npspec/material"
)

var _ = fmt.Print

const MaxLayers = npspec.MaxLayers

var (
	// ErrLayerOutOfRange is returned for layer numbers or counts outside
	// 1..MaxLayers.
	ErrLayerOutOfRange = errors.New("number of layers must be between 1 and 10")
	// ErrDomain is returned for values outside the legal range of a
	// parameter.
	ErrDomain = errors.New("value out of range")
)

// DefaultMaterial is the material of every layer of a new Nanoparticle.
const DefaultMaterial = "Ag"

type Nanoparticle struct {
	catalog   *material.Catalog
	converter *colorimetry.Converter

	nLayers       int
	spectraType   npspec.SpectraType
	property      npspec.SpectraProperty
	shape         npspec.Shape
	increment     int
	sizeCorrect   bool
	pathLength    float64
	concentration float64
	medium        float64
	workers       int
	transmission  bool

	materials         [MaxLayers]string
	indices           [MaxLayers]int
	sphereRadius      float64
	ellipsoidRadius   [2]float64
	sphereRelative    [MaxLayers]float64
	ellipsoidRelative [MaxLayers][2]float64

	spectrum *npspec.Spectrum
	rgb      colorimetry.RGB
	hsv      colorimetry.HSV
}

// New returns a one layer silver sphere of radius 10 nm in vacuum whose
// materials are looked up in cat.
func New(cat *material.Catalog) (*Nanoparticle, error) {
	if cat == nil {
		return nil, fmt.Errorf("%w: no material catalog", npspec.UnknownMaterial)
	}
	idx, err := cat.Index(DefaultMaterial)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", npspec.UnknownMaterial, err)
	}
	self := &Nanoparticle{
		catalog:         cat,
		converter:       colorimetry.Default,
		nLayers:         1,
		spectraType:     npspec.Efficiency,
		property:        npspec.Absorbance,
		shape:           npspec.Sphere,
		increment:       1,
		pathLength:      1,
		concentration:   1e-6,
		medium:          1,
		sphereRadius:    10,
		ellipsoidRadius: [2]float64{10, 10},
	}
	for i := range MaxLayers {
		self.materials[i] = DefaultMaterial
		self.indices[i] = idx
	}
	self.sphereRelative[0] = 1
	self.ellipsoidRelative[0] = [2]float64{1, 1}
	return self, nil
}

func check_layer(n int) error {
	if n < 1 || n > MaxLayers {
		return fmt.Errorf("%w: got %d", ErrLayerOutOfRange, n)
	}
	return nil
}

func positive(what string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be positive, got %v", ErrDomain, what, v)
	}
	return nil
}

func fraction(v float64) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: relative radius must be between 0 and 1, got %v", ErrDomain, v)
	}
	return nil
}

// Getters

func (self *Nanoparticle) NLayers() int                            { return self.nLayers }
func (self *Nanoparticle) Shape() npspec.Shape                     { return self.shape }
func (self *Nanoparticle) SpectraType() npspec.SpectraType         { return self.spectraType }
func (self *Nanoparticle) SpectraProperty() npspec.SpectraProperty { return self.property }
func (self *Nanoparticle) SphereRadius() float64                   { return self.sphereRadius }
func (self *Nanoparticle) EllipsoidZRadius() float64               { return self.ellipsoidRadius[0] }
func (self *Nanoparticle) EllipsoidXYRadius() float64              { return self.ellipsoidRadius[1] }
func (self *Nanoparticle) Increment() int                          { return self.increment }
func (self *Nanoparticle) PathLength() float64                     { return self.pathLength }
func (self *Nanoparticle) Concentration() float64                  { return self.concentration }
func (self *Nanoparticle) SizeCorrect() bool                       { return self.sizeCorrect }
func (self *Nanoparticle) MediumRefractiveIndex() float64          { return self.medium }
func (self *Nanoparticle) Catalog() *material.Catalog              { return self.catalog }

func (self *Nanoparticle) SphereLayerRelativeRadius(layer int) (float64, error) {
	if err := check_layer(layer); err != nil {
		return 0, err
	}
	return self.sphereRelative[layer-1], nil
}

func (self *Nanoparticle) EllipsoidLayerZRelativeRadius(layer int) (float64, error) {
	if err := check_layer(layer); err != nil {
		return 0, err
	}
	return self.ellipsoidRelative[layer-1][0], nil
}

func (self *Nanoparticle) EllipsoidLayerXYRelativeRadius(layer int) (float64, error) {
	if err := check_layer(layer); err != nil {
		return 0, err
	}
	return self.ellipsoidRelative[layer-1][1], nil
}

func (self *Nanoparticle) LayerMaterial(layer int) (string, error) {
	if err := check_layer(layer); err != nil {
		return "", err
	}
	return self.materials[layer-1], nil
}

func (self *Nanoparticle) LayerIndex(layer int) (int, error) {
	if err := check_layer(layer); err != nil {
		return 0, err
	}
	return self.indices[layer-1], nil
}

// Setters

func (self *Nanoparticle) SetNLayers(n int) error {
	if err := check_layer(n); err != nil {
		return err
	}
	self.nLayers = n
	return nil
}

func (self *Nanoparticle) SetShape(s npspec.Shape) error {
	if s != npspec.Sphere && s != npspec.Ellipsoid {
		return fmt.Errorf("%w: unknown shape %d", ErrDomain, int(s))
	}
	self.shape = s
	return nil
}

func (self *Nanoparticle) SetSpectraType(t npspec.SpectraType) error {
	if t < npspec.Efficiency || t > npspec.Absorption {
		return fmt.Errorf("%w: unknown spectra type %d", ErrDomain, int(t))
	}
	self.spectraType = t
	return nil
}

func (self *Nanoparticle) SetSpectraProperty(p npspec.SpectraProperty) error {
	if p < npspec.Extinction || p > npspec.Scattering {
		return fmt.Errorf("%w: unknown spectra property %d", ErrDomain, int(p))
	}
	self.property = p
	return nil
}

func (self *Nanoparticle) SetSphereRadius(r float64) error {
	if err := positive("radius", r); err != nil {
		return err
	}
	self.sphereRadius = r
	return nil
}

func (self *Nanoparticle) SetEllipsoidRadius(z, xy float64) error {
	if err := positive("radius", z); err != nil {
		return err
	}
	if err := positive("radius", xy); err != nil {
		return err
	}
	self.ellipsoidRadius = [2]float64{z, xy}
	return nil
}

// SetSphereLayerRelativeRadius sets the relative radius of a layer of the
// sphere and adjusts the other layers so the active layers sum to one.
func (self *Nanoparticle) SetSphereLayerRelativeRadius(layer int, r float64) error {
	if err := check_layer(layer); err != nil {
		return err
	}
	if err := fraction(r); err != nil {
		return err
	}
	self.distribute(layer-1, r, self.sphereRelative[:])
	return nil
}

// SetEllipsoidLayerRelativeRadius is the spheroid version of
// SetSphereLayerRelativeRadius, each axis is adjusted independently.
func (self *Nanoparticle) SetEllipsoidLayerRelativeRadius(layer int, z, xy float64) error {
	if err := check_layer(layer); err != nil {
		return err
	}
	if err := fraction(z); err != nil {
		return err
	}
	if err := fraction(xy); err != nil {
		return err
	}
	for axis, r := range [2]float64{z, xy} {
		var column [MaxLayers]float64
		for i := range column {
			column[i] = self.ellipsoidRelative[i][axis]
		}
		self.distribute(layer-1, r, column[:])
		for i, v := range column {
			self.ellipsoidRelative[i][axis] = v
		}
	}
	return nil
}

// distribute sets array[n] to r and then walks the layers above n, followed
// by the layers below n from the nearest down, pushing the difference from
// one into each until the active layers sum to one.
func (self *Nanoparticle) distribute(n int, r float64, array []float64) {
	order := make([]int, 0, MaxLayers-1)
	for k := n + 1; k < self.nLayers; k++ {
		order = append(order, k)
	}
	for k := n - 1; k >= 0; k-- {
		order = append(order, k)
	}
	array[n] = r
	sum := func() (ans float64) {
		for _, v := range array[:self.nLayers] {
			ans += v
		}
		return
	}
	total := sum()
	for j := 0; j < self.nLayers-1 && j < len(order); j++ {
		i := order[j]
		if math.Abs(1-total) > npspec.RelativeRadiusTolerance {
			array[i] = max(0, min(array[i]+(1-total), 1))
		}
		total = sum()
	}
}

// SetLayerMaterial sets the material of a layer by name.
func (self *Nanoparticle) SetLayerMaterial(layer int, name string) error {
	if err := check_layer(layer); err != nil {
		return err
	}
	idx, err := self.catalog.Index(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDomain, err)
	}
	self.materials[layer-1] = name
	self.indices[layer-1] = idx
	return nil
}

func (self *Nanoparticle) SetIncrement(i int) error {
	if i < 0 {
		return fmt.Errorf("%w: increment must be positive, got %d", ErrDomain, i)
	}
	if !grid.ValidStride(i) {
		return fmt.Errorf("%w: increment must be a factor of %d, got %d", ErrDomain, grid.N, i)
	}
	self.increment = i
	return nil
}

func (self *Nanoparticle) SetPathLength(l float64) error {
	if err := positive("path length", l); err != nil {
		return err
	}
	self.pathLength = l
	return nil
}

func (self *Nanoparticle) SetConcentration(c float64) error {
	if err := positive("concentration", c); err != nil {
		return err
	}
	self.concentration = c
	return nil
}

func (self *Nanoparticle) SetSizeCorrect(enabled bool) { self.sizeCorrect = enabled }

func (self *Nanoparticle) SetMediumRefractiveIndex(n float64) error {
	if err := positive("refractive index", n); err != nil {
		return err
	}
	self.medium = n
	return nil
}

// SetParallelism sets the number of goroutines used by Calculate. Zero or
// less means one per CPU.
func (self *Nanoparticle) SetParallelism(n int) { self.workers = n }

// SetConverter sets the converter used for colors. nil restores the default.
func (self *Nanoparticle) SetConverter(c *colorimetry.Converter) {
	if c == nil {
		c = colorimetry.Default
	}
	self.converter = c
}

// SetTransmission selects the color of light passing through a solution of
// the particles instead of the color of the spectrum itself.
func (self *Nanoparticle) SetTransmission(enabled bool) { self.transmission = enabled }

// Transmission reports whether colors are transmission colors.
func (self *Nanoparticle) Transmission() bool { return self.transmission }

// Particle returns the geometry of the active layers.
func (self *Nanoparticle) Particle() npspec.Particle {
	layers := make([]npspec.Layer, self.nLayers)
	for i := range layers {
		layers[i].Material = self.indices[i]
		if self.shape == npspec.Sphere {
			layers[i].RelativeRadius = [2]float64{self.sphereRelative[i], self.sphereRelative[i]}
		} else {
			layers[i].RelativeRadius = self.ellipsoidRelative[i]
		}
	}
	if self.shape == npspec.Sphere {
		return npspec.NewSphere(self.sphereRadius, layers...)
	}
	return npspec.NewSpheroid(self.ellipsoidRadius[0], self.ellipsoidRadius[1], layers...)
}

// Options returns the computation options matching the current settings.
func (self *Nanoparticle) Options() []npspec.Option {
	return []npspec.Option{
		npspec.Increment(self.increment),
		npspec.SizeCorrection(self.sizeCorrect),
		npspec.MediumRefractiveIndex(self.medium),
		npspec.PathLength(self.pathLength),
		npspec.Concentration(self.concentration),
		npspec.Type(self.spectraType),
		npspec.Parallelism(self.workers),
	}
}

// Calculate computes the spectra and the color of the selected spectra
// property. The returned status is npspec.NoError or npspec.SizeWarning. On
// error the previous results are kept.
func (self *Nanoparticle) Calculate() (npspec.ErrorCode, error) {
	s, err := npspec.Compute(self.catalog, self.Particle(), self.Options()...)
	if err != nil {
		return 0, err
	}
	c, err := self.converter.RGB(s.Property(self.property), self.increment, self.transmission)
	if err != nil {
		return 0, err
	}
	self.spectrum, self.rgb, self.hsv = s, c, c.HSV()
	return s.Status, nil
}

// Result returns the last computed spectra, or nil.
func (self *Nanoparticle) Result() *npspec.Spectrum { return self.spectrum }

// Spectrum returns a copy of the last computed spectrum of the selected
// property, zero if Calculate has not succeeded yet.
func (self *Nanoparticle) Spectrum() []float64 {
	if self.spectrum == nil {
		return make([]float64, grid.N)
	}
	return slices.Clone(self.spectrum.Property(self.property))
}

func (self *Nanoparticle) RGB() colorimetry.RGB { return self.rgb }
func (self *Nanoparticle) HSV() colorimetry.HSV { return self.hsv }

// Opacity is the HSV value of the last computed color.
func (self *Nanoparticle) Opacity() float64 { return self.hsv.V }
