package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/sirupsen/logrus"

	"github.com/kovidgoyal/npspec"
	"github.com/kovidgoyal/npspec/archive"
	"github.com/kovidgoyal/npspec/colorimetry"
	"github.com/kovidgoyal/npspec/config"
	"github.com/kovidgoyal/npspec/grid"
	"github.com/kovidgoyal/npspec/material"
	"github.com/kovidgoyal/npspec/mie"
	"github.com/kovidgoyal/npspec/nanoparticle"
	"github.com/kovidgoyal/npspec/render"
)

var _ = fmt.Print

type list []string

func (l *list) String() string { return strings.Join(*l, ",") }
func (l *list) Set(v string) error {
	for _, x := range strings.Split(v, ",") {
		if x = strings.TrimSpace(x); x != "" {
			*l = append(*l, x)
		}
	}
	return nil
}

type options struct {
	config        string
	materials     list
	layers        int
	radius        float64
	xyRadius      float64
	relative      string
	spectraType   string
	property      string
	increment     int
	sizeCorrect   bool
	transmission  bool
	medium        float64
	pathLength    float64
	concentration float64
	workers       int
	out           string
	plot          string
	swatch        string
	sweep         string
	sweepRadii    string
	archive       string
	mie           float64
	listMaterials bool
	set           map[string]bool
}

func parse_args(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: map[string]bool{}}
	fs := flag.NewFlagSet("npspec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: npspec [options]\n\nCompute the optical spectra and color of a layered nanoparticle.\n\nOptions:")
		fs.PrintDefaults()
	}
	fs.StringVar(&o.config, "config", "", "read settings from this ini `file`, flags override it")
	fs.Var(&o.materials, "material", "layer material, core first, repeatable or comma separated")
	fs.IntVar(&o.layers, "layers", 1, "number of layers")
	fs.Float64Var(&o.radius, "radius", 10, "radius in nm, the z radius of a spheroid")
	fs.Float64Var(&o.xyRadius, "xy-radius", 0, "xy radius in nm, makes the particle a spheroid when positive")
	fs.StringVar(&o.relative, "relative-radii", "", "comma separated relative layer thicknesses")
	fs.StringVar(&o.spectraType, "type", "efficiency", "efficiency, cross_section, molar or absorption")
	fs.StringVar(&o.property, "property", "absorbance", "extinction, absorbance or scattering, the spectrum the color is made from")
	fs.IntVar(&o.increment, "increment", 1, "compute every n-th wavelength, n must divide 800")
	fs.BoolVar(&o.sizeCorrect, "size-correct", false, "apply electron surface scattering to metals")
	fs.BoolVar(&o.transmission, "transmission", false, "report the color of transmitted light")
	fs.Float64Var(&o.medium, "medium", 1, "refractive index of the medium")
	fs.Float64Var(&o.pathLength, "path-length", 1, "path length in cm")
	fs.Float64Var(&o.concentration, "concentration", 1e-6, "concentration in mol/L")
	fs.IntVar(&o.workers, "workers", 0, "goroutines to use, 0 means one per CPU")
	fs.StringVar(&o.out, "out", "", "write the spectra as CSV to `file`, - for stdout")
	fs.StringVar(&o.plot, "plot", "", "plot the spectra to `file` (png, tiff, svg or pdf)")
	fs.StringVar(&o.swatch, "swatch", "", "save a swatch of the color to `file` (png, tiff or bmp)")
	fs.StringVar(&o.sweep, "sweep", "", "save an animated PNG of the color as the radius changes to `file`")
	fs.StringVar(&o.sweepRadii, "sweep-radii", "5,100,5", "first, last and step radius of -sweep")
	fs.StringVar(&o.archive, "archive", "", "save the run to the archive database at `path`")
	fs.Float64Var(&o.mie, "mie", 0, "print the Mie efficiencies of a sphere at this `wavelength` in nm")
	fs.BoolVar(&o.listMaterials, "list-materials", false, "list the known materials and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

func parse_floats(s string) (ans []float64, err error) {
	for _, x := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, err
		}
		ans = append(ans, v)
	}
	return
}

// apply overrides the configuration with the flags given on the command
// line.
func (o *options) apply(c *config.Config) (err error) {
	p, s := &c.Particle, &c.Spectrum
	if o.set["material"] {
		p.Materials = o.materials
	}
	if o.set["layers"] {
		p.Layers = o.layers
	}
	if o.set["radius"] {
		p.Radius, p.ZRadius = o.radius, o.radius
	}
	if o.set["xy-radius"] {
		p.XYRadius = o.xyRadius
		if o.xyRadius > 0 {
			p.Shape = npspec.Ellipsoid
			p.ZRadius = p.Radius
		}
	}
	if o.set["relative-radii"] {
		if p.RelativeRadii, err = parse_floats(o.relative); err != nil {
			return fmt.Errorf("-relative-radii: %w", err)
		}
		if p.Shape == npspec.Ellipsoid {
			p.ZRelativeRadii, p.XYRelativeRadii = p.RelativeRadii, p.RelativeRadii
		}
	}
	if o.set["type"] {
		if s.Type, err = npspec.ParseSpectraType(o.spectraType); err != nil {
			return err
		}
	}
	if o.set["property"] {
		if s.Property, err = npspec.ParseSpectraProperty(o.property); err != nil {
			return err
		}
	}
	if o.set["increment"] {
		s.Increment = o.increment
	}
	if o.set["size-correct"] {
		s.SizeCorrect = o.sizeCorrect
	}
	if o.set["transmission"] {
		c.Color.Transmission = o.transmission
	}
	if o.set["medium"] {
		s.Medium = o.medium
	}
	if o.set["path-length"] {
		s.PathLength = o.pathLength
	}
	if o.set["concentration"] {
		s.Concentration = o.concentration
	}
	if o.set["workers"] {
		s.Workers = o.workers
	}
	if o.set["archive"] {
		c.Archive.Path, c.Archive.Enabled = o.archive, true
	}
	return nil
}

func write_csv(w io.Writer, s *npspec.Spectrum, stride int) error {
	indices := grid.Samples(stride)
	columns := make([]series.Series, 0, 4)
	wavelengths := make([]float64, len(indices))
	for k, i := range indices {
		wavelengths[k] = grid.Wavelength(i)
	}
	columns = append(columns, series.New(wavelengths, series.Float, "wavelength"))
	for _, p := range []npspec.SpectraProperty{npspec.Extinction, npspec.Scattering, npspec.Absorbance} {
		values := s.Property(p)
		col := make([]float64, len(indices))
		for k, i := range indices {
			col[k] = values[i]
		}
		columns = append(columns, series.New(col, series.Float, p.String()))
	}
	df := dataframe.New(columns...)
	return df.WriteCSV(w)
}

func write_to(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func report_file(stdout io.Writer, what, path string) {
	if path == "-" {
		return
	}
	if st, err := os.Stat(path); err == nil {
		fmt.Fprintf(stdout, "%s saved to: %s (%s)\n", what, path, humanize.Bytes(uint64(st.Size())))
	}
}

func units(t npspec.SpectraType) string {
	switch t {
	case npspec.CrossSection:
		return "nm²"
	case npspec.Molar:
		return "L/(mol·cm)"
	}
	return ""
}

func print_mie(stdout io.Writer, np *nanoparticle.Nanoparticle, wavelength float64) error {
	lambda := grid.Index(wavelength)
	if lambda < 0 {
		return fmt.Errorf("-mie: %v nm is not on the wavelength grid %d..%d", wavelength, grid.Start, grid.End)
	}
	p := np.Particle()
	if !p.IsSphere() {
		return fmt.Errorf("-mie: only spheres are solved with Mie theory")
	}
	cat, medium := np.Catalog(), np.MediumRefractiveIndex()
	m := make([]complex128, len(p.Layers))
	rel := make([]float64, len(p.Layers))
	for i, l := range p.Layers {
		eps := cat.Dielectric(l.Material, lambda, np.SizeCorrect(), p.Radius[0])
		m[i] = material.RefractiveIndex(eps) / complex(medium, 0)
		rel[i] = l.RelativeRadius[0]
	}
	x := p.SizeParameter(medium, wavelength)
	r, err := mie.Solve(m, rel, x)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "mie at %v nm, x = %.6g, %d terms\n", wavelength, x, r.Terms)
	for _, row := range []struct {
		name  string
		value float64
	}{
		{"extinction", r.Extinction}, {"scattering", r.Scattering}, {"absorption", r.Absorption},
		{"backscatter", r.Backscatter}, {"radiation pressure", r.RadiationPressure},
		{"albedo", r.Albedo}, {"asymmetry", r.Asymmetry},
	} {
		fmt.Fprintf(stdout, "  %-19s %.6g\n", row.name, row.value)
	}
	if r.Unstable {
		fmt.Fprintln(stdout, "  warning: the recursions may be numerically unstable")
	}
	return nil
}

func sweep(np *nanoparticle.Nanoparticle, radii string) (colors []colorimetry.RGB, err error) {
	r, err := parse_floats(radii)
	if err != nil || len(r) != 3 || r[2] <= 0 || r[1] < r[0] || r[0] <= 0 {
		return nil, fmt.Errorf("-sweep-radii must be three positive numbers: first, last, step")
	}
	z, xy := np.EllipsoidZRadius(), np.EllipsoidXYRadius()
	for radius := r[0]; radius <= r[1]+1e-9; radius += r[2] {
		if np.Shape() == npspec.Ellipsoid {
			err = np.SetEllipsoidRadius(radius, radius*xy/z)
		} else {
			err = np.SetSphereRadius(radius)
		}
		if err != nil {
			return nil, err
		}
		if _, err = np.Calculate(); err != nil {
			return nil, fmt.Errorf("radius %v nm: %w", radius, err)
		}
		colors = append(colors, np.RGB())
	}
	return
}

func run(args []string, stdout, stderr io.Writer) (err error) {
	o, err := parse_args(args, stderr)
	if err != nil {
		return err
	}
	c, err := config.Load(o.config)
	if err != nil {
		return err
	}
	if err = o.apply(c); err != nil {
		return err
	}
	log, err := c.NewLogger()
	if err != nil {
		return err
	}
	log.SetOutput(stderr)
	cat, err := c.Catalog(log)
	if err != nil {
		return err
	}
	if o.listMaterials {
		for i := range cat.Len() {
			r, _ := cat.Record(i)
			data := "no data"
			if r.HasData() {
				data = "available"
			}
			fmt.Fprintf(stdout, "%2d %-8s %s\n", i, r.Name, data)
		}
		return nil
	}
	np, err := c.Nanoparticle(cat)
	if err != nil {
		return err
	}
	if o.mie > 0 {
		return print_mie(stdout, np, o.mie)
	}

	start := time.Now()
	status, err := np.Calculate()
	if err != nil {
		return err
	}
	s := np.Result()
	log.WithFields(logrus.Fields{"layers": np.NLayers(), "elapsed": time.Since(start)}).Debug("computed spectra")
	fmt.Fprintln(stdout, "status:", status)
	w, v := s.Peak(np.SpectraProperty())
	fmt.Fprintf(stdout, "peak %s: %s at %v nm\n", np.SpectraProperty(), humanize.SIWithDigits(v, 4, units(s.Type)), w)
	rgb, hsv := np.RGB(), np.HSV()
	fmt.Fprintf(stdout, "color: %s %s\n", rgb.AsSharp(), rgb)
	fmt.Fprintln(stdout, "hsv:", hsv)

	if o.out != "" {
		if err = write_to(o.out, stdout, func(w io.Writer) error { return write_csv(w, s, np.Increment()) }); err != nil {
			return err
		}
		report_file(stdout, "Spectra", o.out)
	}
	if o.plot != "" {
		p, err := render.PlotSpectrum(s, np.Increment(), render.Title(plot_title(np)))
		if err != nil {
			return err
		}
		if err = render.SavePlot(p, o.plot); err != nil {
			return err
		}
		report_file(stdout, "Plot", o.plot)
	}
	if o.swatch != "" {
		if err = render.Save(render.Swatch(rgb, 128, 128), o.swatch); err != nil {
			return err
		}
		report_file(stdout, "Swatch", o.swatch)
	}
	if c.Archive.Enabled {
		a, err := archive.Open(c.Archive.Path, log)
		if err != nil {
			return err
		}
		defer a.Close()
		r := &archive.Run{Source: "npspec", Particle: c.Particle, Spectrum: c.Spectrum, Status: status, RGB: rgb, HSV: hsv, Result: s}
		if err = a.Save(r); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "archived as:", r.ID)
	}
	if o.sweep != "" {
		colors, err := sweep(np, o.sweepRadii)
		if err != nil {
			return err
		}
		if err = render.NewSweep(colors, 128, 128, 200*time.Millisecond).Save(o.sweep); err != nil {
			return err
		}
		report_file(stdout, fmt.Sprintf("Sweep of %s radii", humanize.Comma(int64(len(colors)))), o.sweep)
	}
	return nil
}

func plot_title(np *nanoparticle.Nanoparticle) string {
	names := make([]string, np.NLayers())
	for i := range names {
		names[i], _ = np.LayerMaterial(i + 1)
	}
	return fmt.Sprintf("%s %s, %v nm", strings.Join(names, "@"), np.Shape(), np.SphereRadius())
}

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
