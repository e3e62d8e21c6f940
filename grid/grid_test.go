package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWavelengths(t *testing.T) {
	require.Equal(t, 200.0, Wavelengths[0])
	require.Equal(t, 999.0, Wavelengths[N-1])
	require.Equal(t, 999, End)
	for i := 1; i < N; i++ {
		require.Equal(t, 1.0, Wavelengths[i]-Wavelengths[i-1])
	}
}

func TestIndex(t *testing.T) {
	for _, tc := range []struct {
		nm       float64
		expected int
	}{
		{200, 0}, {999, 799}, {500, 300}, {199, -1}, {1000, -1}, {500.5, -1},
	} {
		assert.Equal(t, tc.expected, Index(tc.nm), "wavelength: %v", tc.nm)
	}
}

func TestStride(t *testing.T) {
	for _, s := range []int{1, 2, 4, 5, 8, 10, 16, 20, 25, 32, 40, 50, 80, 100, 160, 200, 400, 800} {
		assert.True(t, ValidStride(s), "stride: %d", s)
	}
	for _, s := range []int{0, -1, -5, 3, 7, 801} {
		assert.False(t, ValidStride(s), "stride: %d", s)
	}
	require.Len(t, Samples(1), N)
	require.Equal(t, []int{0, 200, 400, 600}, Samples(200))
	require.Equal(t, 114, Samples(7)[len(Samples(7))-1]/7)
}
