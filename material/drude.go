package material

import (
	"math"
	"math/cmplx"
)

const (
	// Hbar is the reduced Planck constant in eV·s.
	Hbar = 6.5821189916e-16
	// EnergyWavelengthProduct converts between photon energy in eV and
	// wavelength in nm.
	EnergyWavelengthProduct = 1239.0
)

// Drude holds the free electron parameters of a metal. Plasma and Damping are
// in eV, FermiVelocity in m/s. The zero value means no free electron
// contribution.
type Drude struct {
	Plasma, Damping, FermiVelocity float64
}

// PhotonEnergy returns the energy in eV of a photon with the given
// wavelength in nm.
func PhotonEnergy(wavelength float64) float64 { return EnergyWavelengthProduct / wavelength }

// SurfaceDamping returns the electron surface scattering damping in eV for a
// particle of the given radius in nm.
func (d Drude) SurfaceDamping(radius float64) float64 {
	return d.FermiVelocity * Hbar / (radius * 1e-9)
}

// Term returns the free electron contribution ωp²/(ω(ω+i(γ+extra))) at
// photon energy omega.
func (d Drude) Term(omega, extra float64) complex128 {
	return complex(d.Plasma*d.Plasma, 0) / (complex(omega, 0) * complex(omega, d.Damping+extra))
}

// SizeCorrect replaces the bulk free electron contribution in eps with one
// that includes surface scattering for a particle of the given radius.
func (d Drude) SizeCorrect(eps complex128, wavelength, radius float64) complex128 {
	om := PhotonEnergy(wavelength)
	return eps - d.Term(om, 0) + d.Term(om, d.SurfaceDamping(radius))
}

// Dielectric returns the pure free electron dielectric function at the given
// wavelength.
func (d Drude) Dielectric(wavelength float64) complex128 {
	return 1 - d.Term(PhotonEnergy(wavelength), 0)
}

// RefractiveIndex converts a complex dielectric constant into a complex
// refractive index n+ik with k >= 0.
func RefractiveIndex(eps complex128) complex128 {
	a := cmplx.Abs(eps)
	return complex(math.Sqrt(max(0, (a+real(eps))/2)), math.Sqrt(max(0, (a-real(eps))/2)))
}

// Dielectric converts a complex refractive index into a dielectric constant.
func Dielectric(n complex128) complex128 { return n * n }
