package material

import (
	"fmt"
	"sync"
)

var _ = fmt.Print

// Names of the builtin materials, in index order. The position of a name in
// this list is its stable material index.
var Names = [...]string{
	"Ag", "Al", "AlAs", "AlSb", "Au", "Be", "CdS", "CdSe", "Co", "Cr",
	"Cu", "Cu2O", "CuO", "Diamond", "Diamond_film", "GaAs", "GaP", "Ge", "Glass", "Graphite",
	"InAs", "InP", "InSb", "Ir", "K", "Li", "Mo", "Na", "Nb", "Ni",
	"Os", "PbS", "PbSe", "PbTe", "Pd", "Pt", "Quartz", "Rh", "Si", "SiC",
	"SiO", "Ta", "Te", "TiO2", "V", "W", "ZnS", "ZnSe", "ZnTe",
}

// Free electron parameters of the builtin metals. Materials not listed have
// no free electron contribution.
var builtinDrude = map[string]Drude{
	"Ag": {Plasma: 9.01, Damping: 0.048, FermiVelocity: 1.39e6},
	"Al": {Plasma: 14.98, Damping: 0.047, FermiVelocity: 2.03e6},
	"Au": {Plasma: 9.03, Damping: 0.053, FermiVelocity: 1.40e6},
	"Be": {Plasma: 18.51, Damping: 0.035, FermiVelocity: 2.25e6},
	"Cr": {Plasma: 10.75, Damping: 0.047},
	"Cu": {Plasma: 10.83, Damping: 0.030, FermiVelocity: 1.57e6},
	"K":  {FermiVelocity: 0.86e6},
	"Li": {FermiVelocity: 1.29e6},
	"Na": {FermiVelocity: 1.07e6},
	"Nb": {FermiVelocity: 1.37e6},
	"Ni": {Plasma: 15.92, Damping: 0.048},
	"Pd": {Plasma: 9.72, Damping: 0.008, FermiVelocity: 0.58e6},
	"Pt": {Plasma: 9.59, Damping: 0.080, FermiVelocity: 1.1e6},
	"W":  {Plasma: 13.22, Damping: 0.064},
}

var builtinIndex = sync.OnceValue(func() map[string]int {
	ans := make(map[string]int, len(Names))
	for i, n := range Names {
		ans[n] = i
	}
	return ans
})

// Index returns the builtin index of the named material. Unknown names
// return ErrUnknownMaterial.
func Index(name string) (int, error) {
	if i, found := builtinIndex()[name]; found {
		return i, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
}

// Builtin returns records for all builtin materials, in index order. The
// records carry names and free electron parameters but no dielectric data.
func Builtin() []Record {
	ans := make([]Record, len(Names))
	for i, n := range Names {
		ans[i] = Record{Name: n, Drude: builtinDrude[n]}
	}
	return ans
}
