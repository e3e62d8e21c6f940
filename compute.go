package npspec

import (
	"errors"
	"fmt"
	"math"

	"github.com/kovidgoyal/go-parallel"
	"gonum.org/v1/gonum/floats"

	"github.com/kovidgoyal/npspec/grid"
	"github.com/kovidgoyal/npspec/material"
	"github.com/kovidgoyal/npspec/mie"
	"github.com/kovidgoyal/npspec/quasi"
)

var _ = fmt.Print

// Spectrum holds the three spectra of a particle, one value per grid
// wavelength. Status is NoError or SizeWarning.
type Spectrum struct {
	Extinction []float64   `json:"extinction"`
	Scattering []float64   `json:"scattering"`
	Absorption []float64   `json:"absorption"`
	Status     ErrorCode   `json:"status"`
	Type       SpectraType `json:"type"`
}

// NewSpectrum returns a zeroed spectrum.
func NewSpectrum() *Spectrum {
	return &Spectrum{
		Extinction: make([]float64, NLambda),
		Scattering: make([]float64, NLambda),
		Absorption: make([]float64, NLambda),
	}
}

// Property returns the spectrum for the given property.
func (self *Spectrum) Property(p SpectraProperty) []float64 {
	switch p {
	case Absorbance:
		return self.Absorption
	case Scattering:
		return self.Scattering
	default:
		return self.Extinction
	}
}

// Peak returns the wavelength in nm at which the given spectrum is largest,
// together with its value there.
func (self *Spectrum) Peak(p SpectraProperty) (wavelength, value float64) {
	s := self.Property(p)
	if len(s) == 0 {
		return 0, 0
	}
	i := floats.MaxIdx(s)
	return grid.Wavelength(i), s[i]
}

type computeConfig struct {
	increment     int
	sizeCorrect   bool
	medium        float64
	pathLength    float64
	concentration float64
	spectraType   SpectraType
	workers       int
}

var defaultComputeConfig = computeConfig{
	increment:     1,
	medium:        1.0,
	pathLength:    1.0,
	concentration: 1e-6,
	spectraType:   Efficiency,
}

// Option sets an optional parameter for Compute and ComputeInto.
type Option func(*computeConfig)

// Increment returns an Option that computes only every i-th wavelength. i
// must be a positive divisor of 800. Default is 1.
func Increment(i int) Option {
	return func(c *computeConfig) {
		c.increment = i
	}
}

// SizeCorrection returns an Option that corrects the free electron
// contribution of metals for electron scattering at the particle surface.
// Disabled by default.
func SizeCorrection(enabled bool) Option {
	return func(c *computeConfig) {
		c.sizeCorrect = enabled
	}
}

// MediumRefractiveIndex returns an Option that sets the refractive index of
// the surrounding medium. Default is 1.
func MediumRefractiveIndex(n float64) Option {
	return func(c *computeConfig) {
		c.medium = n
	}
}

// PathLength returns an Option that sets the optical path length in cm used
// for Absorption spectra. Default is 1.
func PathLength(l float64) Option {
	return func(c *computeConfig) {
		c.pathLength = l
	}
}

// Concentration returns an Option that sets the molar concentration used
// for Absorption spectra. Default is 1e-6.
func Concentration(c float64) Option {
	return func(cfg *computeConfig) {
		cfg.concentration = c
	}
}

// Type returns an Option that sets the quantity the spectra are reported
// in. Default is Efficiency.
func Type(t SpectraType) Option {
	return func(c *computeConfig) {
		c.spectraType = t
	}
}

// Parallelism returns an Option that sets the number of goroutines used.
// Zero or less means one per CPU.
func Parallelism(n int) Option {
	return func(c *computeConfig) {
		c.workers = n
	}
}

func (cfg *computeConfig) scale(radius float64) float64 {
	if cfg.spectraType == Efficiency {
		return 1
	}
	ans := math.Pi * radius * radius
	if cfg.spectraType == Molar || cfg.spectraType == Absorption {
		ans *= MolarFactor
	}
	if cfg.spectraType == Absorption {
		ans *= cfg.pathLength * cfg.concentration
	}
	return ans
}

func (cfg *computeConfig) validate(cat *material.Catalog, p Particle) error {
	// fails regardless of every other parameter
	if !p.IsSphere() && len(p.Layers) > quasi.MaxLayers {
		return fmt.Errorf("%w: spheroids support at most %d layers, got %d", InvalidNumberOfLayers, quasi.MaxLayers, len(p.Layers))
	}
	if !grid.ValidStride(cfg.increment) {
		return fmt.Errorf("%w: got %d", InvalidIncrement, cfg.increment)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if !(cfg.pathLength > 0) || math.IsInf(cfg.pathLength, 0) {
		return fmt.Errorf("%w: got %v", InvalidPathLength, cfg.pathLength)
	}
	if !(cfg.concentration > 0) || math.IsInf(cfg.concentration, 0) {
		return fmt.Errorf("%w: got %v", InvalidConcentration, cfg.concentration)
	}
	if !(cfg.medium > 0) || math.IsInf(cfg.medium, 0) {
		return fmt.Errorf("%w: got %v", InvalidRefractiveIndex, cfg.medium)
	}
	if _, ok := spectraTypeNames[cfg.spectraType]; !ok {
		return fmt.Errorf("unknown spectra type: %d", int(cfg.spectraType))
	}
	return p.validate_materials(cat)
}

// Compute returns the spectra of particle p. Wavelengths that are skipped
// because of the increment or a vanishing size parameter are zero. On
// success the error is nil and the Status of the spectrum is NoError or
// SizeWarning. Failures wrap one of the ErrorCode values.
func Compute(cat *material.Catalog, p Particle, opts ...Option) (*Spectrum, error) {
	ans := NewSpectrum()
	if err := ComputeInto(ans, cat, p, opts...); err != nil {
		return nil, err
	}
	return ans, nil
}

// sample is the result at one computed wavelength.
type sample struct {
	ext, sca, abs float64
	unstable      bool
	err           error
}

// worker holds per goroutine scratch space.
type worker struct {
	solver mie.Solver
	eps    []complex128
	m      []complex128
	rel    []float64
	rel2   [][2]float64
}

func new_worker(p Particle) *worker {
	n := len(p.Layers)
	w := worker{eps: make([]complex128, n), m: make([]complex128, n), rel: make([]float64, n), rel2: make([][2]float64, n)}
	for i, l := range p.Layers {
		w.rel[i] = l.RelativeRadius[0]
		w.rel2[i] = l.RelativeRadius
	}
	return &w
}

func (self *worker) run(cat *material.Catalog, p Particle, cfg *computeConfig, lambda int, x, radius float64) (ans sample) {
	for j, l := range p.Layers {
		self.eps[j] = cat.Dielectric(l.Material, lambda, cfg.sizeCorrect, radius)
	}
	if p.IsSphere() {
		for j, e := range self.eps {
			self.m[j] = material.RefractiveIndex(e) / complex(cfg.medium, 0)
		}
		r, err := self.solver.Solve(self.m, self.rel, x)
		if err != nil {
			ans.err = fmt.Errorf("%w: at %v nm: %s", SolverFailure, grid.Wavelength(lambda), err)
			return
		}
		ans.ext, ans.sca, ans.abs, ans.unstable = r.Extinction, r.Scattering, r.Absorption, r.Unstable
		return
	}
	r, err := quasi.Solve(self.eps, cfg.medium*cfg.medium, self.rel2, p.Radius, x)
	if err != nil {
		if errors.Is(err, quasi.ErrTooManyLayers) {
			ans.err = fmt.Errorf("%w: %s", InvalidNumberOfLayers, err)
		} else {
			ans.err = fmt.Errorf("%w: %s", SolverFailure, err)
		}
		return
	}
	ans.ext, ans.sca, ans.abs = r.Extinction, r.Scattering, r.Absorption
	return
}

// ComputeInto is like Compute but writes the spectra into dst. Only sampled
// wavelengths are written, so the other entries keep their previous
// values. On failure dst is left unchanged.
func ComputeInto(dst *Spectrum, cat *material.Catalog, p Particle, opts ...Option) (err error) {
	cfg := defaultComputeConfig
	for _, option := range opts {
		option(&cfg)
	}
	if err = cfg.validate(cat, p); err != nil {
		return err
	}

	radius := p.EquivalentRadius()
	sphere := p.IsSphere()
	status := NoError
	indices := grid.Samples(cfg.increment)
	xs := make([]float64, len(indices))
	for k, i := range indices {
		x := p.SizeParameter(cfg.medium, grid.Wavelength(i))
		xs[k] = x
		if x < MinSizeParameter || sphere {
			continue
		}
		if x > QuasistaticLimit {
			return fmt.Errorf("%w: size parameter %.4g at %v nm", NanoparticleTooLarge, x, grid.Wavelength(i))
		}
		if x > QuasistaticWarning {
			status = SizeWarning
		}
	}

	results := make([]sample, len(indices))
	f := func(start, limit int) {
		w := new_worker(p)
		for k := start; k < limit; k++ {
			if xs[k] < MinSizeParameter {
				continue
			}
			results[k] = w.run(cat, p, &cfg, indices[k], xs[k], radius)
		}
	}
	if err = parallel.Run_in_parallel_over_range(cfg.workers, f, 0, len(indices)); err != nil {
		return fmt.Errorf("%w: %s", SolverFailure, err)
	}
	for _, r := range results {
		if r.err != nil {
			return r.err
		}
		if r.unstable {
			status = SizeWarning
		}
	}

	ensure := func(s []float64) []float64 {
		if len(s) != NLambda {
			return make([]float64, NLambda)
		}
		return s
	}
	dst.Extinction, dst.Scattering, dst.Absorption = ensure(dst.Extinction), ensure(dst.Scattering), ensure(dst.Absorption)
	scale := cfg.scale(radius)
	for k, i := range indices {
		if xs[k] < MinSizeParameter {
			continue
		}
		r := &results[k]
		dst.Extinction[i] = r.ext * scale
		dst.Scattering[i] = r.sca * scale
		dst.Absorption[i] = r.abs * scale
	}
	dst.Status = status
	dst.Type = cfg.spectraType
	return nil
}
