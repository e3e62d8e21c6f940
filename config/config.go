// Package config reads the ini files used by the npspec programs and turns
// them into ready to use catalogs, converters, loggers and particles.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"github.com/kovidgoyal/npspec"
	"github.com/kovidgoyal/npspec/colorimetry"
	"github.com/kovidgoyal/npspec/material"
	"github.com/kovidgoyal/npspec/nanoparticle"
)

var _ = fmt.Print

// Particle holds the geometry of the particle, the [particle] section. It
// is also the particle description in server requests and archived runs.
type Particle struct {
	Shape           npspec.Shape `json:"shape"`
	Layers          int          `json:"layers"`
	Radius          float64      `json:"radius"`
	ZRadius         float64      `json:"z_radius"`
	XYRadius        float64      `json:"xy_radius"`
	Materials       []string     `json:"materials,omitempty"`
	RelativeRadii   []float64    `json:"relative_radii,omitempty"`
	ZRelativeRadii  []float64    `json:"z_relative_radii,omitempty"`
	XYRelativeRadii []float64    `json:"xy_relative_radii,omitempty"`
}

// Spectrum holds the [spectrum] section.
type Spectrum struct {
	Type          npspec.SpectraType     `json:"type"`
	Property      npspec.SpectraProperty `json:"property"`
	Increment     int                    `json:"increment"`
	SizeCorrect   bool                   `json:"size_correct"`
	Medium        float64                `json:"medium"`
	PathLength    float64                `json:"path_length"`
	Concentration float64                `json:"concentration"`
	Workers       int                    `json:"-"`
}

type Materials struct {
	DataDir       string
	DrudeFallback bool
	Extra         bool
}

type Color struct {
	ObserverFile string
	Transmission bool
}

type Log struct {
	Level  string
	Format string
}

type Server struct {
	Addr      string
	ReadLimit int64
}

type Archive struct {
	Path    string
	Enabled bool
}

type Config struct {
	Particle  Particle
	Spectrum  Spectrum
	Materials Materials
	Color     Color
	Log       Log
	Server    Server
	Archive   Archive
}

// Load reads the configuration from the ini file at path. An empty path
// gives the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return from_file(ini.Empty())
	}
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration from %s: %w", path, err)
	}
	return from_file(file)
}

// Parse reads the configuration from ini formatted data.
func Parse(data []byte) (*Config, error) {
	file, err := ini.Load(data)
	if err != nil {
		return nil, err
	}
	return from_file(file)
}

// Default returns the configuration used when there is no file.
func Default() *Config {
	ans, err := from_file(ini.Empty())
	if err != nil {
		panic(err)
	}
	return ans
}

func floats(key *ini.Key) ([]float64, error) {
	if strings.TrimSpace(key.String()) == "" {
		return nil, nil
	}
	ans, err := key.StrictFloat64s(",")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key.Name(), err)
	}
	return ans, nil
}

func from_file(file *ini.File) (ans *Config, err error) {
	ans = &Config{}
	p := file.Section("particle")
	if ans.Particle.Shape, err = npspec.ParseShape(p.Key("shape").MustString("sphere")); err != nil {
		return nil, err
	}
	ans.Particle.Layers = p.Key("layers").MustInt(1)
	ans.Particle.Radius = p.Key("radius").MustFloat64(10)
	ans.Particle.ZRadius = p.Key("z_radius").MustFloat64(10)
	ans.Particle.XYRadius = p.Key("xy_radius").MustFloat64(10)
	if v := strings.TrimSpace(p.Key("materials").String()); v != "" {
		ans.Particle.Materials = p.Key("materials").Strings(",")
	}
	if ans.Particle.RelativeRadii, err = floats(p.Key("relative_radii")); err != nil {
		return nil, err
	}
	if ans.Particle.ZRelativeRadii, err = floats(p.Key("z_relative_radii")); err != nil {
		return nil, err
	}
	if ans.Particle.XYRelativeRadii, err = floats(p.Key("xy_relative_radii")); err != nil {
		return nil, err
	}

	s := file.Section("spectrum")
	if ans.Spectrum.Type, err = npspec.ParseSpectraType(s.Key("type").MustString("efficiency")); err != nil {
		return nil, err
	}
	if ans.Spectrum.Property, err = npspec.ParseSpectraProperty(s.Key("property").MustString("absorbance")); err != nil {
		return nil, err
	}
	ans.Spectrum.Increment = s.Key("increment").MustInt(1)
	ans.Spectrum.SizeCorrect = s.Key("size_correct").MustBool(false)
	ans.Spectrum.Medium = s.Key("medium").MustFloat64(1)
	ans.Spectrum.PathLength = s.Key("path_length").MustFloat64(1)
	ans.Spectrum.Concentration = s.Key("concentration").MustFloat64(1e-6)
	ans.Spectrum.Workers = s.Key("workers").MustInt(0)

	m := file.Section("materials")
	ans.Materials = Materials{
		DataDir:       m.Key("data_dir").MustString(""),
		DrudeFallback: m.Key("drude_fallback").MustBool(true),
		Extra:         m.Key("extra").MustBool(true),
	}
	c := file.Section("color")
	ans.Color = Color{
		ObserverFile: c.Key("observer_file").MustString(""),
		Transmission: c.Key("transmission").MustBool(false),
	}
	l := file.Section("log")
	ans.Log = Log{
		Level:  l.Key("level").MustString("info"),
		Format: l.Key("format").MustString("text"),
	}
	sv := file.Section("server")
	ans.Server = Server{
		Addr:      sv.Key("addr").MustString(":9000"),
		ReadLimit: sv.Key("read_limit").MustInt64(1 << 20),
	}
	a := file.Section("archive")
	ans.Archive = Archive{
		Path:    a.Key("path").MustString("npspec.db"),
		Enabled: a.Key("enabled").MustBool(false),
	}
	return ans, nil
}

// NewLogger builds a logger from the [log] section.
func (self *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(self.Log.Level)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetLevel(level)
	switch strings.ToLower(self.Log.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format: %q", self.Log.Format)
	}
	return l, nil
}

// Catalog loads the material catalog described by the [materials] section.
func (self *Config) Catalog(log logrus.FieldLogger) (*material.Catalog, error) {
	opts := []material.LoadOption{
		material.DrudeFallback(self.Materials.DrudeFallback),
		material.ExtraMaterials(self.Materials.Extra),
	}
	if log != nil {
		opts = append(opts, material.WithLogger(log))
	}
	if self.Materials.DataDir == "" {
		return material.Load(nil, opts...)
	}
	if _, err := os.Stat(self.Materials.DataDir); err != nil {
		return nil, err
	}
	return material.Load(os.DirFS(self.Materials.DataDir), opts...)
}

// Converter returns the colorimetry converter described by the [color]
// section.
func (self *Config) Converter() (*colorimetry.Converter, error) {
	if self.Color.ObserverFile == "" {
		return colorimetry.Default, nil
	}
	f, err := os.Open(self.Color.ObserverFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	o, err := colorimetry.LoadObserver(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", self.Color.ObserverFile, err)
	}
	return colorimetry.NewConverter(o), nil
}

// Nanoparticle returns a nanoparticle configured from the [particle],
// [spectrum] and [color] sections.
func (self *Config) Nanoparticle(cat *material.Catalog) (*nanoparticle.Nanoparticle, error) {
	np, err := nanoparticle.New(cat)
	if err != nil {
		return nil, err
	}
	if err = Configure(np, self.Particle, self.Spectrum); err != nil {
		return nil, err
	}
	c, err := self.Converter()
	if err != nil {
		return nil, err
	}
	np.SetConverter(c)
	np.SetTransmission(self.Color.Transmission)
	return np, nil
}

// Configure applies the particle and spectrum settings to np, stopping at
// the first setter that fails.
func Configure(np *nanoparticle.Nanoparticle, p Particle, s Spectrum) error {
	steps := []func() error{
		func() error { return np.SetShape(p.Shape) },
		func() error { return np.SetNLayers(p.Layers) },
		func() error { return np.SetSphereRadius(p.Radius) },
		func() error { return np.SetEllipsoidRadius(p.ZRadius, p.XYRadius) },
		func() error { return np.SetSpectraType(s.Type) },
		func() error { return np.SetSpectraProperty(s.Property) },
		func() error { return np.SetIncrement(s.Increment) },
		func() error { return np.SetMediumRefractiveIndex(s.Medium) },
		func() error { return np.SetPathLength(s.PathLength) },
		func() error { return np.SetConcentration(s.Concentration) },
	}
	for i, name := range p.Materials {
		steps = append(steps, func() error { return np.SetLayerMaterial(i+1, strings.TrimSpace(name)) })
	}
	for i, r := range p.RelativeRadii {
		steps = append(steps, func() error { return np.SetSphereLayerRelativeRadius(i+1, r) })
	}
	z, xy := p.ZRelativeRadii, p.XYRelativeRadii
	if len(z) != len(xy) {
		return fmt.Errorf("%w: %d z_relative_radii but %d xy_relative_radii", nanoparticle.ErrDomain, len(z), len(xy))
	}
	for i := range z {
		steps = append(steps, func() error { return np.SetEllipsoidLayerRelativeRadius(i+1, z[i], xy[i]) })
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	np.SetSizeCorrect(s.SizeCorrect)
	np.SetParallelism(s.Workers)
	return nil
}
