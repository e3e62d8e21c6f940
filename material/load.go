package material

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/kovidgoyal/npspec/grid"
)

type loadConfig struct {
	drudeFallback bool
	extras        bool
	log           logrus.FieldLogger
}

var defaultLoadConfig = loadConfig{
	extras: true,
	log:    logrus.StandardLogger(),
}

// LoadOption sets an optional parameter for Load.
type LoadOption func(*loadConfig)

// DrudeFallback returns a LoadOption that synthesizes a pure free electron
// dielectric function for builtin metals that have a known plasma energy
// but no data file. Disabled by default.
func DrudeFallback(enabled bool) LoadOption {
	return func(c *loadConfig) {
		c.drudeFallback = enabled
	}
}

// ExtraMaterials returns a LoadOption that controls whether data files that
// do not match a builtin name are added to the catalog after the builtin
// materials, in name order. Enabled by default.
func ExtraMaterials(enabled bool) LoadOption {
	return func(c *loadConfig) {
		c.extras = enabled
	}
}

// WithLogger returns a LoadOption that sets the logger used to report
// missing and synthesized materials.
func WithLogger(l logrus.FieldLogger) LoadOption {
	return func(c *loadConfig) {
		c.log = l
	}
}

// Load builds a catalog of the builtin materials, reading dielectric data
// for each one from <name>.csv in fsys. fsys may be nil, in which case only
// synthesized data is available.
func Load(fsys fs.FS, opts ...LoadOption) (*Catalog, error) {
	cfg := defaultLoadConfig
	for _, option := range opts {
		option(&cfg)
	}
	records := Builtin()
	for i := range records {
		r := &records[i]
		l := cfg.log.WithField("material", r.Name)
		if fsys != nil {
			eps, err := read_file(fsys, r.Name+".csv")
			switch {
			case err == nil:
				r.Dielectric = eps
				l.Debug("loaded dielectric data")
				continue
			case !errors.Is(err, fs.ErrNotExist):
				return nil, err
			}
		}
		if cfg.drudeFallback && r.Drude.Plasma > 0 {
			r.Dielectric = r.Drude.Table()
			l.Debug("using free electron dielectric function")
			continue
		}
		l.Debug("no dielectric data")
	}
	if fsys != nil && cfg.extras {
		names, err := fs.Glob(fsys, "*.csv")
		if err != nil {
			return nil, err
		}
		slices.Sort(names)
		for _, fname := range names {
			name := strings.TrimSuffix(path.Base(fname), ".csv")
			if _, err := Index(name); err == nil {
				continue
			}
			eps, err := read_file(fsys, fname)
			if err != nil {
				return nil, err
			}
			records = append(records, Record{Name: name, Dielectric: eps})
			cfg.log.WithField("material", name).Debug("loaded extra material")
		}
	}
	return New(records...)
}

// Table returns the free electron dielectric function sampled on the grid.
func (d Drude) Table() []complex128 {
	ans := make([]complex128, grid.N)
	for i := range ans {
		ans[i] = d.Dielectric(grid.Wavelength(i))
	}
	return ans
}

func read_file(fsys fs.FS, name string) (ans []complex128, err error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if ans, err = ReadTable(f); err != nil {
		err = fmt.Errorf("%s: %w", name, err)
	}
	return
}

func find_column(names []string, candidates ...string) string {
	for _, n := range names {
		if slices.Contains(candidates, strings.ToLower(strings.TrimSpace(n))) {
			return n
		}
	}
	return ""
}

// ReadTable parses a CSV table of optical constants and interpolates it onto
// the wavelength grid. The table needs a header row with a wavelength column
// in nm (wavelength, lambda or nm) and either dielectric columns (e1, e2) or
// refractive index columns (n, k). Wavelengths outside the table take the
// nearest tabulated value.
func ReadTable(r io.Reader) ([]complex128, error) {
	df := dataframe.ReadCSV(r, dataframe.HasHeader(true), dataframe.WithDelimiter(','))
	if df.Err != nil {
		return nil, df.Err
	}
	names := df.Names()
	wcol := find_column(names, "wavelength", "lambda", "nm")
	if wcol == "" {
		return nil, fmt.Errorf("no wavelength column in %v", names)
	}
	var re, im []float64
	as_index := false
	if c1, c2 := find_column(names, "e1", "eps1"), find_column(names, "e2", "eps2"); c1 != "" && c2 != "" {
		re, im = df.Col(c1).Float(), df.Col(c2).Float()
	} else if c1, c2 := find_column(names, "n"), find_column(names, "k"); c1 != "" && c2 != "" {
		re, im = df.Col(c1).Float(), df.Col(c2).Float()
		as_index = true
	} else {
		return nil, fmt.Errorf("no e1,e2 or n,k columns in %v", names)
	}
	wl := df.Col(wcol).Float()
	if len(wl) < 2 {
		return nil, fmt.Errorf("need at least two rows of optical constants, got %d", len(wl))
	}
	order := make([]int, len(wl))
	floats.Argsort(wl, order)
	for i, src := range [][]float64{re, im} {
		sorted := make([]float64, len(src))
		for j, k := range order {
			sorted[j] = src[k]
		}
		if i == 0 {
			re = sorted
		} else {
			im = sorted
		}
	}
	for i := 1; i < len(wl); i++ {
		if wl[i] <= wl[i-1] {
			return nil, fmt.Errorf("duplicate wavelength in table: %v", wl[i])
		}
	}
	var pre, pim interp.PiecewiseLinear
	if err := pre.Fit(wl, re); err != nil {
		return nil, err
	}
	if err := pim.Fit(wl, im); err != nil {
		return nil, err
	}
	ans := make([]complex128, grid.N)
	for i, w := range grid.Wavelengths {
		v := complex(pre.Predict(w), pim.Predict(w))
		if as_index {
			v = Dielectric(v)
		}
		ans[i] = v
	}
	return ans, nil
}
