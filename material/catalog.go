// Package material maps material names to stable indices and provides the
// dielectric function of each material on the wavelength grid.
package material

import (
	"errors"
	"fmt"

	"github.com/kovidgoyal/npspec/grid"
)

var _ = fmt.Print

// ErrUnknownMaterial is returned for names and indices that do not resolve
// to a material with dielectric data.
var ErrUnknownMaterial = errors.New("unknown material")

// Record is a single material. Dielectric is either nil (no data) or holds
// one complex dielectric constant per grid wavelength.
type Record struct {
	Name       string
	Drude      Drude
	Dielectric []complex128
}

// HasData reports whether the record carries dielectric data.
func (r Record) HasData() bool { return len(r.Dielectric) == grid.N }

// Catalog is an immutable, indexed set of materials. It is safe for
// concurrent use.
type Catalog struct {
	records []Record
	index   map[string]int
}

// New builds a catalog from records. The position of each record is its
// material index. Dielectric slices are copied.
func New(records ...Record) (*Catalog, error) {
	ans := Catalog{records: make([]Record, len(records)), index: make(map[string]int, len(records))}
	for i, r := range records {
		if r.Name == "" {
			return nil, fmt.Errorf("material at index %d has no name", i)
		}
		if _, found := ans.index[r.Name]; found {
			return nil, fmt.Errorf("duplicate material: %q", r.Name)
		}
		if r.Dielectric != nil {
			if len(r.Dielectric) != grid.N {
				return nil, fmt.Errorf("material %q has %d dielectric values, expected %d", r.Name, len(r.Dielectric), grid.N)
			}
			r.Dielectric = append([]complex128(nil), r.Dielectric...)
		}
		ans.records[i] = r
		ans.index[r.Name] = i
	}
	return &ans, nil
}

// Len returns the number of materials in the catalog.
func (self *Catalog) Len() int { return len(self.records) }

// Index returns the index of the named material.
func (self *Catalog) Index(name string) (int, error) {
	if i, found := self.index[name]; found {
		return i, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
}

// Name returns the name of the material at index i, or "" if there is none.
func (self *Catalog) Name(i int) string {
	if i < 0 || i >= len(self.records) {
		return ""
	}
	return self.records[i].Name
}

// Record returns a copy of the material at index i.
func (self *Catalog) Record(i int) (Record, bool) {
	if i < 0 || i >= len(self.records) {
		return Record{}, false
	}
	r := self.records[i]
	if r.Dielectric != nil {
		r.Dielectric = append([]complex128(nil), r.Dielectric...)
	}
	return r, true
}

// Names returns the names of all materials with dielectric data.
func (self *Catalog) Names() []string {
	ans := make([]string, 0, len(self.records))
	for _, r := range self.records {
		if r.HasData() {
			ans = append(ans, r.Name)
		}
	}
	return ans
}

// Resolve checks that index i refers to a material with dielectric data.
func (self *Catalog) Resolve(i int) error {
	if i < 0 || i >= len(self.records) {
		return fmt.Errorf("%w: index %d", ErrUnknownMaterial, i)
	}
	if !self.records[i].HasData() {
		return fmt.Errorf("%w: %q has no dielectric data", ErrUnknownMaterial, self.records[i].Name)
	}
	return nil
}

// Dielectric returns the dielectric constant of material i at grid index
// lambda. When sizeCorrect is set the free electron contribution is
// corrected for surface scattering in a particle of the given radius in nm.
// The material must have been checked with Resolve.
func (self *Catalog) Dielectric(i, lambda int, sizeCorrect bool, radius float64) complex128 {
	r := &self.records[i]
	eps := r.Dielectric[lambda]
	if sizeCorrect {
		eps = r.Drude.SizeCorrect(eps, grid.Wavelength(lambda), radius)
	}
	return eps
}
