package render

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/kovidgoyal/npspec"
	"github.com/kovidgoyal/npspec/grid"
)

type plotConfig struct {
	title         string
	properties    []npspec.SpectraProperty
	width, height vg.Length
}

var defaultPlotConfig = plotConfig{
	properties: []npspec.SpectraProperty{npspec.Extinction, npspec.Scattering, npspec.Absorbance},
	width:      6 * vg.Inch,
	height:     4 * vg.Inch,
}

// PlotOption sets an optional parameter for the plotting functions.
type PlotOption func(*plotConfig)

// Title returns a PlotOption that sets the plot title.
func Title(t string) PlotOption {
	return func(c *plotConfig) {
		c.title = t
	}
}

// Properties returns a PlotOption that selects the spectra drawn. Default
// is all three.
func Properties(p ...npspec.SpectraProperty) PlotOption {
	return func(c *plotConfig) {
		c.properties = p
	}
}

// Size returns a PlotOption that sets the size of the saved plot. Default
// is 6×4 inches.
func Size(width, height vg.Length) PlotOption {
	return func(c *plotConfig) {
		c.width, c.height = width, height
	}
}

var axisLabels = map[npspec.SpectraType]string{
	npspec.Efficiency:   "Efficiency",
	npspec.CrossSection: "Cross section (nm²)",
	npspec.Molar:        "Molar absorptivity (L mol⁻¹ cm⁻¹)",
	npspec.Absorption:   "Absorbance",
}

// PlotSpectrum returns a line plot of the spectra in s against wavelength.
// Only every stride-th wavelength is drawn, matching the increment the
// spectrum was computed with.
func PlotSpectrum(s *npspec.Spectrum, stride int, opts ...PlotOption) (*plot.Plot, error) {
	cfg := defaultPlotConfig
	for _, option := range opts {
		option(&cfg)
	}
	if !grid.ValidStride(stride) {
		return nil, fmt.Errorf("%w: got %d", npspec.InvalidIncrement, stride)
	}
	if len(cfg.properties) == 0 {
		return nil, fmt.Errorf("render: nothing to plot")
	}
	indices := grid.Samples(stride)
	p := plot.New()
	p.Title.Text = cfg.title
	p.X.Label.Text = "Wavelength (nm)"
	p.Y.Label.Text = axisLabels[s.Type]
	p.X.Min, p.X.Max = grid.Start, grid.End
	lines := make([]any, 0, 2*len(cfg.properties))
	for _, prop := range cfg.properties {
		values := s.Property(prop)
		if len(values) < grid.N {
			return nil, fmt.Errorf("render: %s spectrum has %d values", prop, len(values))
		}
		xys := make(plotter.XYs, len(indices))
		for k, i := range indices {
			xys[k].X, xys[k].Y = grid.Wavelength(i), values[i]
		}
		lines = append(lines, prop.String(), xys)
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, err
	}
	return p, nil
}

// WritePlot writes the plot to w in the given format.
func WritePlot(w io.Writer, p *plot.Plot, format Format, opts ...PlotOption) error {
	cfg := defaultPlotConfig
	for _, option := range opts {
		option(&cfg)
	}
	if format == BMP || format == UNKNOWN {
		return fmt.Errorf("%w: cannot draw a plot as %s", ErrUnsupportedFormat, format)
	}
	wt, err := p.WriterTo(cfg.width, cfg.height, strings.ToLower(format.String()))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePlot saves the plot to filename, the format is determined from the
// extension.
func SavePlot(p *plot.Plot, filename string, opts ...PlotOption) error {
	f, err := FormatFromFilename(filename)
	if err != nil {
		return err
	}
	return save(filename, func(w io.Writer) error { return WritePlot(w, p, f, opts...) })
}
