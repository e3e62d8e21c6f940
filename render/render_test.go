package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kettek/apng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/kovidgoyal/npspec"
	"github.com/kovidgoyal/npspec/colorimetry"
	"github.com/kovidgoyal/npspec/grid"
)

var _ = fmt.Print

func TestFormat(t *testing.T) {
	for name, expected := range map[string]Format{
		"a.png": PNG, "a.APNG": PNG, "x/y.tif": TIFF, "b.tiff": TIFF,
		"c.bmp": BMP, "d.svg": SVG, "e.PDF": PDF,
	} {
		f, err := FormatFromFilename(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, f, name)
	}
	for _, name := range []string{"a.gif", "noext", "a.jpeg"} {
		f, err := FormatFromFilename(name)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
		assert.Equal(t, UNKNOWN, f)
	}
	assert.True(t, BMP.Raster())
	assert.False(t, SVG.Raster())
	assert.Equal(t, "TIFF", TIFF.String())
}

func TestDelayFraction(t *testing.T) {
	for _, tc := range []struct {
		d        time.Duration
		num, den uint16
	}{
		{0, 0, 1},
		{-time.Second, 0, 1},
		{time.Second, 1, 1},
		{100 * time.Millisecond, 1, 10},
		{250 * time.Millisecond, 1, 4},
		{1500 * time.Millisecond, 3, 2},
		{time.Second / 3, 1, 3},
		{40 * time.Millisecond, 1, 25},
		{1234567 * time.Microsecond, 50737, 41097},
		{100000 * time.Second, math.MaxUint16, 1},
	} {
		t.Run(tc.d.String(), func(t *testing.T) {
			num, den := delay_fraction(tc.d)
			assert.Equal(t, tc.num, num)
			assert.Equal(t, tc.den, den)
		})
	}
	num, den := delay_fraction(time.Duration(float64(time.Second) * 3.14159265))
	assert.InDelta(t, 3.14159265, float64(num)/float64(den), 1e-6)
}

var red = colorimetry.RGB{R: 1}

func TestStrip(t *testing.T) {
	img := Strip([]colorimetry.RGB{red, {G: 1}, {B: 0.5}}, 4, 3)
	require.Equal(t, image.Rect(0, 0, 12, 3), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(3, 2))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, img.NRGBAAt(4, 0))
	assert.Equal(t, color.NRGBA{B: 128, A: 255}, img.NRGBAAt(11, 1))

	img = Swatch(colorimetry.RGB{R: 0.5, G: 0.25}, 0, -3, Opacity(true))
	require.Equal(t, image.Rect(0, 0, 1, 1), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 128, G: 64, A: 128}, img.NRGBAAt(0, 0))
}

func TestEncode(t *testing.T) {
	img := Swatch(colorimetry.RGB{R: 0.5, G: 0.25}, 5, 2, Opacity(true))
	for _, tc := range []struct {
		format Format
		decode func(*bytes.Buffer) (image.Image, error)
	}{
		{PNG, func(b *bytes.Buffer) (image.Image, error) { return png.Decode(b) }},
		{TIFF, func(b *bytes.Buffer) (image.Image, error) { return tiff.Decode(b) }},
		{BMP, func(b *bytes.Buffer) (image.Image, error) { return bmp.Decode(b) }},
	} {
		t.Run(tc.format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, img, tc.format, PNGCompressionLevel(png.BestSpeed), Background(color.Black)))
			decoded, err := tc.decode(&buf)
			require.NoError(t, err)
			require.Equal(t, img.Bounds(), decoded.Bounds())
			c := color.NRGBAModel.Convert(decoded.At(4, 1)).(color.NRGBA)
			if tc.format == BMP {
				// composed onto black
				assert.Equal(t, uint8(255), c.A)
				assert.InDelta(t, 64, int(c.R), 2)
				assert.InDelta(t, 32, int(c.G), 2)
			} else {
				assert.Equal(t, img.NRGBAAt(4, 1), c)
			}
		})
	}
	assert.ErrorIs(t, Encode(&bytes.Buffer{}, img, SVG), ErrUnsupportedFormat)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	img := Swatch(red, 2, 2)
	path := filepath.Join(dir, "swatch.png")
	require.NoError(t, Save(img, path))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	assert.ErrorIs(t, Save(img, filepath.Join(dir, "swatch.svg")), ErrUnsupportedFormat)
	assert.ErrorIs(t, Save(img, filepath.Join(dir, "swatch.gif")), ErrUnsupportedFormat)
	assert.Error(t, Save(img, filepath.Join(dir, "missing", "swatch.png")))
}

func TestSweep(t *testing.T) {
	colors := []colorimetry.RGB{red, {G: 1}, {B: 1}}
	s := NewSweep(colors, 3, 2, 250*time.Millisecond)
	s.LoopCount = 2
	var buf bytes.Buffer
	require.NoError(t, s.EncodeAsPNG(&buf))
	a, err := apng.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint(2), a.LoopCount)
	var frames []apng.Frame
	for _, f := range a.Frames {
		if !f.IsDefault {
			frames = append(frames, f)
		}
	}
	require.Len(t, frames, len(colors))
	for i, f := range frames {
		assert.InDelta(t, 0.25, f.GetDelay(), 1e-9)
		c := color.NRGBAModel.Convert(f.Image.At(1, 1)).(color.NRGBA)
		assert.Equal(t, colors[i].NRGBA(), c, "frame: %d", i)
	}

	buf.Reset()
	single := NewSweep(colors[:1], 3, 2, time.Second)
	require.NoError(t, single.EncodeAsPNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	assert.Error(t, (&Sweep{}).EncodeAsPNG(&buf))
	dir := t.TempDir()
	require.NoError(t, s.Save(filepath.Join(dir, "sweep.apng")))
	assert.ErrorIs(t, s.Save(filepath.Join(dir, "sweep.tiff")), ErrUnsupportedFormat)
}

func ramp() *npspec.Spectrum {
	s := npspec.NewSpectrum()
	s.Type = npspec.CrossSection
	for i := range grid.N {
		s.Extinction[i] = float64(i)
		s.Scattering[i] = float64(i) / 4
		s.Absorption[i] = s.Extinction[i] - s.Scattering[i]
	}
	return s
}

func TestPlotSpectrum(t *testing.T) {
	p, err := PlotSpectrum(ramp(), 4, Title("ramp"))
	require.NoError(t, err)
	assert.Equal(t, "ramp", p.Title.Text)
	assert.Equal(t, axisLabels[npspec.CrossSection], p.Y.Label.Text)
	assert.Equal(t, float64(grid.Start), p.X.Min)
	assert.Equal(t, float64(grid.End), p.X.Max)
	assert.InDelta(t, grid.N-4, p.Y.Max, 1e-9)

	var buf bytes.Buffer
	require.NoError(t, WritePlot(&buf, p, PNG, Size(200, 150)))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)

	buf.Reset()
	require.NoError(t, WritePlot(&buf, p, SVG))
	assert.True(t, strings.Contains(buf.String(), "<svg"))
	assert.Contains(t, buf.String(), "scattering")

	assert.ErrorIs(t, WritePlot(&buf, p, BMP), ErrUnsupportedFormat)
	path := filepath.Join(t.TempDir(), "spectrum.pdf")
	require.NoError(t, SavePlot(p, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, err = PlotSpectrum(ramp(), 3)
	assert.ErrorIs(t, err, npspec.InvalidIncrement)
	_, err = PlotSpectrum(ramp(), 1, Properties())
	assert.Error(t, err)
	_, err = PlotSpectrum(&npspec.Spectrum{}, 1)
	assert.Error(t, err)
	p, err = PlotSpectrum(ramp(), 1, Properties(npspec.Absorbance))
	require.NoError(t, err)
	assert.InDelta(t, 0.75*(grid.N-1), p.Y.Max, 1e-9)
}
