package material

import (
	"math/cmplx"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovidgoyal/npspec/grid"
)

func quiet() LoadOption {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return WithLogger(l)
}

func TestBuiltinIndex(t *testing.T) {
	require.Len(t, Names, 49)
	for name, expected := range map[string]int{"Ag": 0, "Al": 1, "Au": 4, "Diamond": 13, "Glass": 18, "TiO2": 43, "ZnTe": 48} {
		i, err := Index(name)
		require.NoError(t, err)
		assert.Equal(t, expected, i, name)
	}
	for _, name := range []string{"Kryptonite", "", "au", "Ag "} {
		i, err := Index(name)
		assert.ErrorIs(t, err, ErrUnknownMaterial, name)
		assert.Equal(t, -1, i)
	}
	b := Builtin()
	require.Equal(t, 9.03, b[4].Drude.Plasma)
	require.Equal(t, Drude{}, b[18].Drude)
	require.Equal(t, Drude{FermiVelocity: 0.86e6}, b[24].Drude)
}

func TestReadTable(t *testing.T) {
	eps, err := ReadTable(strings.NewReader("wavelength,n,k\n100,1.5,0\n2000,1.5,0\n"))
	require.NoError(t, err)
	require.Len(t, eps, grid.N)
	for _, v := range eps {
		require.InDelta(t, 2.25, real(v), 1e-12)
		require.Equal(t, 0.0, imag(v))
	}

	// rows out of order, linear in between and clamped outside
	eps, err = ReadTable(strings.NewReader("e2,e1,nm\n3,6,1000\n1,-10,200\n"))
	require.NoError(t, err)
	assert.InDelta(t, -10, real(eps[0]), 1e-12)
	assert.InDelta(t, -2, real(eps[grid.Index(600)]), 1e-12)
	assert.InDelta(t, 2, imag(eps[grid.Index(600)]), 1e-12)
	assert.InDelta(t, 6-16.0/800, real(eps[grid.N-1]), 1e-12)

	eps, err = ReadTable(strings.NewReader("lambda,e1,e2\n300,1,1\n500,3,5\n"))
	require.NoError(t, err)
	assert.Equal(t, complex(1, 1), eps[0])
	assert.Equal(t, complex(3, 5), eps[grid.N-1])

	for _, bad := range []string{
		"energy,e1,e2\n1,2,3\n2,3,4\n",
		"wavelength,x,y\n1,2,3\n2,3,4\n",
		"wavelength,n,k\n500,1,0\n",
		"wavelength,n,k\n500,1,0\n500,2,0\n",
	} {
		_, err := ReadTable(strings.NewReader(bad))
		assert.Error(t, err, bad)
	}
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"Au.csv":      {Data: []byte("wavelength,e1,e2\n200,-1,5\n1000,-40,2\n")},
		"Glass.csv":   {Data: []byte("wavelength,n,k\n200,1.5,0\n1000,1.5,0\n")},
		"Zeolite.csv": {Data: []byte("wavelength,n,k\n200,1.3,0\n1000,1.3,0\n")},
		"Alumina.csv": {Data: []byte("wavelength,n,k\n200,1.7,0\n1000,1.7,0\n")},
		"notes.txt":   {Data: []byte("ignored")},
	}
	cat, err := Load(fsys, quiet())
	require.NoError(t, err)
	require.Equal(t, len(Names)+2, cat.Len())
	require.Equal(t, []string{"Au", "Glass", "Alumina", "Zeolite"}, cat.Names())
	i, err := cat.Index("Zeolite")
	require.NoError(t, err)
	require.Equal(t, len(Names)+1, i)
	require.NoError(t, cat.Resolve(4))
	require.NoError(t, cat.Resolve(18))
	assert.ErrorIs(t, cat.Resolve(0), ErrUnknownMaterial)
	assert.ErrorIs(t, cat.Resolve(-1), ErrUnknownMaterial)
	assert.ErrorIs(t, cat.Resolve(cat.Len()), ErrUnknownMaterial)
	assert.InDelta(t, 2.25, real(cat.Dielectric(18, 300, false, 10)), 1e-12)

	cat, err = Load(fsys, quiet(), DrudeFallback(true), ExtraMaterials(false))
	require.NoError(t, err)
	require.Equal(t, len(Names), cat.Len())
	require.NoError(t, cat.Resolve(0))
	assert.ErrorIs(t, cat.Resolve(24), ErrUnknownMaterial, "K has no plasma energy")
	r, ok := cat.Record(0)
	require.True(t, ok)
	assert.Equal(t, r.Drude.Dielectric(500), r.Dielectric[grid.Index(500)])

	_, err = Load(fstest.MapFS{"Ag.csv": {Data: []byte("bogus\n")}}, quiet())
	require.Error(t, err)

	cat, err = Load(nil, quiet())
	require.NoError(t, err)
	require.Empty(t, cat.Names())
}

func TestNew(t *testing.T) {
	data := make([]complex128, grid.N)
	_, err := New(Record{Name: "a", Dielectric: data}, Record{Name: "a"})
	require.ErrorContains(t, err, "duplicate")
	_, err = New(Record{Name: "a", Dielectric: data[:10]})
	require.ErrorContains(t, err, "dielectric values")
	_, err = New(Record{})
	require.ErrorContains(t, err, "no name")

	cat, err := New(Record{Name: "a", Dielectric: data})
	require.NoError(t, err)
	data[0] = 7
	r, _ := cat.Record(0)
	require.Equal(t, complex128(0), r.Dielectric[0], "catalog must not alias caller data")
	require.Equal(t, "a", cat.Name(0))
	require.Equal(t, "", cat.Name(1))
	_, err = cat.Index("b")
	require.ErrorIs(t, err, ErrUnknownMaterial)
}

func TestSizeCorrection(t *testing.T) {
	ag := Builtin()[0].Drude
	eps := complex(-8.5, 0.3)
	w := 500.0
	bulk := ag.SizeCorrect(eps, w, 1e12)
	assert.InDelta(t, real(eps), real(bulk), 1e-9)
	assert.InDelta(t, imag(eps), imag(bulk), 1e-9)
	small := ag.SizeCorrect(eps, w, 10)
	smaller := ag.SizeCorrect(eps, w, 5)
	assert.Greater(t, imag(small), imag(eps))
	assert.Greater(t, imag(smaller), imag(small))
	assert.InDelta(t, 1.39e6*Hbar/1e-8, ag.SurfaceDamping(10), 1e-15)
	// no free electrons, nothing to correct
	assert.Equal(t, eps, Drude{}.SizeCorrect(eps, w, 10))
	assert.InDelta(t, 2.478, PhotonEnergy(500), 1e-12)
}

func TestRefractiveIndex(t *testing.T) {
	for _, n := range []complex128{1.5, complex(0.2, 3), complex(1.33, 0.1), complex(0.05, 4.2)} {
		got := RefractiveIndex(Dielectric(n))
		assert.InDelta(t, 0, cmplx.Abs(got-n), 1e-12, "n = %v", n)
	}
	assert.Equal(t, complex(0, 2), RefractiveIndex(-4))
}
