package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"time"

	"github.com/kettek/apng"

	"github.com/kovidgoyal/npspec/colorimetry"
)

var _ = fmt.Print

// Frame is one step of a Sweep.
type Frame struct {
	Image image.Image
	// Delay is how long the frame is shown.
	Delay time.Duration
}

// Sweep is an animation showing how the color of a particle changes as one
// of its parameters is varied.
type Sweep struct {
	Frames []Frame
	// LoopCount is the number of times the animation plays, zero means
	// forever.
	LoopCount uint
}

// NewSweep returns a sweep with one width×height swatch per color, each
// shown for delay.
func NewSweep(colors []colorimetry.RGB, width, height int, delay time.Duration, opts ...EncodeOption) *Sweep {
	ans := &Sweep{Frames: make([]Frame, len(colors))}
	for i, c := range colors {
		ans.Frames[i] = Frame{Image: Swatch(c, width, height, opts...), Delay: delay}
	}
	return ans
}

// delay_fraction writes d, in seconds, as the 16 bit fraction used by the
// APNG frame control chunk. The reduced fraction is exact when it fits,
// otherwise the last continued fraction convergent that fits is used.
func delay_fraction(d time.Duration) (num, den uint16) {
	if d <= 0 {
		return 0, 1
	}
	if d >= math.MaxUint16*time.Second {
		return math.MaxUint16, 1
	}
	n, q := int64(d), int64(time.Second)
	a, b := n, q
	for b != 0 {
		a, b = b, a%b
	}
	n, q = n/a, q/a
	if n <= math.MaxUint16 && q <= math.MaxUint16 {
		return uint16(n), uint16(q)
	}
	// Euclid's algorithm on n/q yields the partial quotients; p/r are the
	// convergents built from them.
	pp, rp, p, r := int64(0), int64(1), int64(1), int64(0)
	for q != 0 {
		t := n / q
		pn, rn := t*p+pp, t*r+rp
		if pn > math.MaxUint16 || rn > math.MaxUint16 {
			break
		}
		pp, rp, p, r = p, r, pn, rn
		n, q = q, n-t*q
	}
	if r == 0 {
		return 0, 1
	}
	return uint16(p), uint16(r)
}

func (self *Sweep) as_apng() (ans apng.APNG) {
	ans.LoopCount = self.LoopCount
	for _, f := range self.Frames {
		d := apng.Frame{Image: f.Image, DisposeOp: apng.DISPOSE_OP_NONE, BlendOp: apng.BLEND_OP_SOURCE}
		d.DelayNumerator, d.DelayDenominator = delay_fraction(f.Delay)
		ans.Frames = append(ans.Frames, d)
	}
	return
}

// EncodeAsPNG writes the sweep as an animated PNG, or as a plain PNG if it
// has a single frame.
func (self *Sweep) EncodeAsPNG(w io.Writer) error {
	switch len(self.Frames) {
	case 0:
		return fmt.Errorf("render: a sweep needs at least one frame")
	case 1:
		return png.Encode(w, self.Frames[0].Image)
	}
	return apng.Encode(w, self.as_apng())
}

// Save writes the sweep to filename, which must have a png or apng
// extension.
func (self *Sweep) Save(filename string) error {
	f, err := FormatFromFilename(filename)
	if err != nil {
		return err
	}
	if f != PNG {
		return fmt.Errorf("%w: sweeps can only be saved as animated PNG", ErrUnsupportedFormat)
	}
	return save(filename, self.EncodeAsPNG)
}
