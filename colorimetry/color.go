package colorimetry

import (
	"fmt"
	"image/color"
	"math"
)

var _ = fmt.Print

// RGB is a companded sRGB color with components in [0,1].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// HSV is a color as hue in degrees [0,360), saturation and value in [0,1].
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}

// NRGBA returns the color quantized to 8 bits per channel with full opacity.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: 0xff}
}

// RGBA implements color.Color.
func (c RGB) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// AsSharp returns the color as #RRGGBB.
func (c RGB) AsSharp() string {
	q := c.NRGBA()
	return fmt.Sprintf("#%02X%02X%02X", q.R, q.G, q.B)
}

func (c RGB) String() string {
	return fmt.Sprintf("RGB{%.4f %.4f %.4f}", c.R, c.G, c.B)
}

// HSV converts the color to hue, saturation and value.
func (c RGB) HSV() HSV {
	return HSVFromRGB(c.R, c.G, c.B)
}

// HSVFromRGB converts an RGB triple to HSV. Black has zero hue and
// saturation.
func HSVFromRGB(r, g, b float64) (ans HSV) {
	lo, hi := min(r, g, b), max(r, g, b)
	delta := hi - lo
	ans.V = hi
	if hi == 0 {
		return
	}
	ans.S = delta / hi
	if delta == 0 {
		return
	}
	switch hi {
	case r:
		ans.H = (g - b) / delta
	case g:
		ans.H = 2 + (b-r)/delta
	default:
		ans.H = 4 + (r-g)/delta
	}
	ans.H *= 60
	if ans.H < 0 {
		ans.H += 360
	}
	return
}

// Opacity is the HSV value of the color.
func (c RGB) Opacity() float64 { return max(c.R, c.G, c.B) }

func (c HSV) String() string {
	return fmt.Sprintf("HSV{%.2f° %.4f %.4f}", c.H, c.S, c.V)
}
