package colorimetry

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovidgoyal/npspec/grid"
)

func spectrum(f func(w float64) float64) []float64 {
	ans := make([]float64, grid.N)
	for i, w := range grid.Wavelengths {
		ans[i] = f(w)
	}
	return ans
}

func constant(v float64) []float64 { return spectrum(func(float64) float64 { return v }) }

func gaussian(center, width, height float64) []float64 {
	return spectrum(func(w float64) float64 {
		t := (w - center) / width
		return height * math.Exp(-0.5*t*t)
	})
}

var tableCases = []struct {
	name         string
	spectrum     []float64
	stride       int
	transmission bool
	rgb          RGB
	hsv          HSV
}{
	{"white", constant(1), 1, false, RGB{1, 0.976922, 0.958809}, HSV{26.3833, 0.0412, 1}},
	{"white strided", constant(1), 5, false, RGB{1, 0.976922, 0.958809}, HSV{26.3833, 0.0412, 1}},
	{"black", constant(0), 1, false, RGB{}, HSV{}},
	{"clear solution", constant(0), 1, true, RGB{1, 0.976922, 0.958809}, HSV{26.3833, 0.0412, 1}},
	{"grey solution", constant(1), 1, true, RGB{0.381815, 0.340348, 0.333409}, HSV{8.6013, 0.1268, 0.3818}},
	{"long pass", spectrum(func(w float64) float64 { return float64(min(1, max(0, w-599))) }), 1, false, RGB{0.956553, 0, 0}, HSV{0, 1, 0.9566}},
	{"long pass strided", spectrum(func(w float64) float64 { return float64(min(1, max(0, w-599))) }), 5, false, RGB{0.976955, 0, 0}, HSV{0, 1, 0.977}},
	{"blue band", gaussian(450, 30, 1), 1, false, RGB{0.23894, 0, 0.922761}, HSV{255.5364, 1, 0.9228}},
	{"blue absorber", gaussian(450, 30, 1), 1, true, RGB{1, 0.957553, 0.283185}, HSV{56.4471, 0.7168, 1}},
	{"silver colloid", gaussian(400, 25, 2), 1, true, RGB{1, 1, 0.688886}, HSV{60, 0.3111, 1}},
}

func TestRGB_TableDriven(t *testing.T) {
	for _, tc := range tableCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := RGBFromSpectrum(tc.spectrum, tc.stride, tc.transmission)
			require.NoError(t, err)
			assert.InDelta(t, tc.rgb.R, c.R, 2e-6, "red")
			assert.InDelta(t, tc.rgb.G, c.G, 2e-6, "green")
			assert.InDelta(t, tc.rgb.B, c.B, 2e-6, "blue")
			h := c.HSV()
			assert.InDelta(t, tc.hsv.H, h.H, 1e-3, "hue")
			assert.InDelta(t, tc.hsv.S, h.S, 1e-4, "saturation")
			assert.InDelta(t, tc.hsv.V, h.V, 1e-4, "value")
			assert.Equal(t, h.V, c.Opacity())
		})
	}
}

func TestHistoricalWhite(t *testing.T) {
	c, err := RGBFromSpectrum(constant(1), 1, false)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.R, 1e-4)
	assert.InDelta(t, 0.97692, c.G, 1e-4)
	assert.InDelta(t, 0.95884, c.B, 1e-4)
	h := c.HSV()
	assert.InDelta(t, 26.35, h.H, 0.1)
	assert.InDelta(t, 0.0412, h.S, 1e-4)
	assert.Equal(t, 1.0, h.V)
	assert.Equal(t, "#FFF9F4", c.AsSharp())
}

func TestStride(t *testing.T) {
	s := gaussian(520, 40, 0.7)
	for _, stride := range []int{0, -3} {
		c, err := RGBFromSpectrum(s, stride, false)
		require.NoError(t, err)
		expected, err := RGBFromSpectrum(s, 1, false)
		require.NoError(t, err)
		assert.Equal(t, expected, c)
	}
	// values between samples are ignored
	sparse := slicesClone(s)
	for i := range sparse {
		if i%8 != 0 {
			sparse[i] = 100
		}
	}
	a, err := RGBFromSpectrum(s, 8, false)
	require.NoError(t, err)
	b, err := RGBFromSpectrum(sparse, 8, false)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = RGBFromSpectrum(s[:10], 1, false)
	require.ErrorIs(t, err, ErrSpectrumLength)
}

func slicesClone(s []float64) []float64 { return append([]float64(nil), s...) }

func TestHSV(t *testing.T) {
	for _, tc := range []struct {
		r, g, b  float64
		expected HSV
	}{
		{0, 0, 0, HSV{0, 0, 0}},
		{0.5, 0.5, 0.5, HSV{0, 0, 0.5}},
		{1, 0, 0, HSV{0, 1, 1}},
		{0, 1, 0, HSV{120, 1, 1}},
		{0, 0, 1, HSV{240, 1, 1}},
		{1, 1, 0, HSV{60, 1, 1}},
		{1, 0, 1, HSV{300, 1, 1}},
		{1, 0, 0.5, HSV{330, 1, 1}},
		{0.2, 0.4, 0.1, HSV{100, 0.75, 0.4}},
	} {
		t.Run(fmt.Sprintf("%v,%v,%v", tc.r, tc.g, tc.b), func(t *testing.T) {
			h := HSVFromRGB(tc.r, tc.g, tc.b)
			assert.InDelta(t, tc.expected.H, h.H, 1e-9)
			assert.InDelta(t, tc.expected.S, h.S, 1e-9)
			assert.InDelta(t, tc.expected.V, h.V, 1e-9)
			assert.GreaterOrEqual(t, h.H, 0.0)
			assert.Less(t, h.H, 360.0)
		})
	}
}

func TestObserver(t *testing.T) {
	o := Default.Observer()
	// the analytic fit peaks near the tabulated maxima
	for _, tc := range []struct {
		weights []float64
		peak    float64
	}{{o.Y[:], 555}, {o.Z[:], 445}} {
		best := 0
		for i, v := range tc.weights {
			if v > tc.weights[best] {
				best = i
			}
		}
		assert.InDelta(t, tc.peak, grid.Wavelength(best), 15)
	}
	x, y, z := ColorMatching(555)
	assert.InDelta(t, 0.51, x, 0.05)
	assert.InDelta(t, 1.0, y, 0.02)
	assert.InDelta(t, 0.0, z, 0.01)
	assert.InDelta(t, 1.0, Planck(560, DaylightTemperature), 1e-15)
	assert.Greater(t, Planck(450, DaylightTemperature), Planck(700, DaylightTemperature))
}

func TestDaylightStandIn(t *testing.T) {
	o := CIE1931()
	for _, w := range []float64{300, 450, 555, 700} {
		i := grid.Index(w)
		x, y, z := ColorMatching(w)
		d := Planck(w, DaylightTemperature)
		assert.InEpsilon(t, x*d, o.X[i], 1e-12, "%v nm", w)
		assert.InEpsilon(t, y*d, o.Y[i], 1e-12, "%v nm", w)
		assert.InEpsilon(t, z*d, o.Z[i], 1e-12, "%v nm", w)
	}

	// a tabulated illuminant replaces the black body
	var b strings.Builder
	b.WriteString("wavelength,x,y,z,d65\n")
	for i, w := range grid.Wavelengths {
		x, y, z := ColorMatching(w)
		fmt.Fprintf(&b, "%v,%v,%v,%v,%v\n", w, x, y, z, 1+0.5*float64(i)/grid.N)
	}
	loaded, err := LoadObserver(strings.NewReader(b.String()))
	require.NoError(t, err)
	c := NewConverter(loaded)
	ones := spectrum(func(float64) float64 { return 1 })
	expected, err := Default.RGB(ones, 1, false)
	require.NoError(t, err)
	actual, err := c.RGB(ones, 1, false)
	require.NoError(t, err)
	assert.InDelta(t, expected.R, actual.R, 1e-9)
	assert.InDelta(t, expected.B, actual.B, 1e-9)
	ramp := spectrum(func(w float64) float64 { return w / 1000 })
	expected, err = Default.RGB(ramp, 1, false)
	require.NoError(t, err)
	actual, err = c.RGB(ramp, 1, false)
	require.NoError(t, err)
	assert.NotEqual(t, expected, actual)
}

func observer_csv(o Observer, lo, hi int, reverse bool) string {
	var b strings.Builder
	b.WriteString("wavelength,x,y,z,d65\n")
	rows := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		rows = append(rows, fmt.Sprintf("%v,%v,%v,%v,1\n", grid.Wavelength(i), o.X[i], o.Y[i], o.Z[i]))
	}
	if reverse {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	for _, r := range rows {
		b.WriteString(r)
	}
	return b.String()
}

func TestLoadObserver(t *testing.T) {
	o := Default.Observer()
	loaded, err := LoadObserver(strings.NewReader(observer_csv(o, 0, grid.N-1, true)))
	require.NoError(t, err)
	c := NewConverter(loaded)
	for _, tc := range tableCases {
		expected, err := Default.RGB(tc.spectrum, tc.stride, tc.transmission)
		require.NoError(t, err)
		actual, err := c.RGB(tc.spectrum, tc.stride, tc.transmission)
		require.NoError(t, err)
		assert.InDelta(t, expected.R, actual.R, 1e-9, tc.name)
		assert.InDelta(t, expected.G, actual.G, 1e-9, tc.name)
		assert.InDelta(t, expected.B, actual.B, 1e-9, tc.name)
	}

	// outside the table the observer is blind
	partial, err := LoadObserver(strings.NewReader(observer_csv(o, 200, 500, false)))
	require.NoError(t, err)
	p := partial.X
	assert.Zero(t, p[100])
	assert.Zero(t, p[600])
	assert.Equal(t, o.X[300], p[300])
	xyz, err := NewConverter(partial).XYZ(spectrum(func(w float64) float64 {
		if w > 700 {
			return 1
		}
		return 0
	}), 1, false)
	require.NoError(t, err)
	assert.Equal(t, Vec3{}, xyz)

	for _, bad := range []string{
		"wavelength,x,y\n400,1,1\n500,1,1\n",
		"wavelength,x,y,z,illuminant\n400,1,1,1,1\n",
		"wavelength,x,y,z,illuminant\n400,1,1,1,1\n400,1,1,1,1\n",
		"wavelength,x,y,z,illuminant\n100,1,1,1,1\n150,1,1,1,1\n",
	} {
		_, err := LoadObserver(strings.NewReader(bad))
		assert.Error(t, err, bad)
	}
	_, err = NewObserver(make([]float64, grid.N), make([]float64, grid.N), make([]float64, grid.N), nil)
	assert.ErrorIs(t, err, ErrSpectrumLength)
}

func TestLab(t *testing.T) {
	L, a, b := XYZToLab(Vec3{1, 1, 1})
	assert.InDelta(t, 100, L, 1e-9)
	assert.InDelta(t, 0, a, 1e-9)
	assert.InDelta(t, 0, b, 1e-9)
	L, _, _ = XYZToLab(Vec3{})
	assert.InDelta(t, 0, L, 1e-9)
	xyz, err := Default.XYZ(gaussian(620, 30, 1), 1, false)
	require.NoError(t, err)
	_, a, _ = XYZToLab(xyz)
	assert.Greater(t, a, 0.0)
}

func TestConcurrentUse(t *testing.T) {
	s := gaussian(480, 50, 1)
	expected, err := Default.RGB(s, 1, true)
	require.NoError(t, err)
	var wg sync.WaitGroup
	results := make([]RGB, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = Default.RGB(s, 1, true)
		}()
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, expected, r)
	}
}

func TestColor(t *testing.T) {
	c := RGB{1, 0.5, 0}
	q := c.NRGBA()
	assert.Equal(t, uint8(255), q.R)
	assert.Equal(t, uint8(128), q.G)
	assert.Equal(t, uint8(0), q.B)
	assert.Equal(t, uint8(255), q.A)
	assert.Equal(t, "#FF8000", c.AsSharp())
	r, g, b, a := c.RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0x8080, 0, 0xffff}, [4]uint32{r, g, b, a})
}
