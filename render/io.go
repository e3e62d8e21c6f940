// Package render draws the colors and spectra computed by npspec: solid
// color swatches, strips and animated size sweeps as raster images, and
// spectrum plots as raster or vector graphics.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/kovidgoyal/npspec/colorimetry"
)

type fileSystem interface {
	Create(string) (io.WriteCloser, error)
}

type localFS struct{}

func (localFS) Create(name string) (io.WriteCloser, error) { return os.Create(name) }

var fs fileSystem = localFS{}

type encodeConfig struct {
	pngCompressionLevel png.CompressionLevel
	background          color.Color
	opacity             bool
}

var defaultEncodeConfig = encodeConfig{
	pngCompressionLevel: png.DefaultCompression,
	background:          color.White,
}

// EncodeOption sets an optional parameter for the drawing and encoding
// functions.
type EncodeOption func(*encodeConfig)

// PNGCompressionLevel returns an EncodeOption that sets the compression level
// of PNG output. Default is png.DefaultCompression.
func PNGCompressionLevel(level png.CompressionLevel) EncodeOption {
	return func(c *encodeConfig) {
		c.pngCompressionLevel = level
	}
}

// Opacity returns an EncodeOption that makes swatches translucent, with the
// HSV value of the color as alpha, the way a solution of the particles looks
// against a light background. Default is opaque.
func Opacity(enabled bool) EncodeOption {
	return func(c *encodeConfig) {
		c.opacity = enabled
	}
}

// Background returns an EncodeOption that sets the color translucent
// swatches are composed onto for formats without alpha. Default is white.
func Background(c color.Color) EncodeOption {
	return func(cfg *encodeConfig) {
		cfg.background = c
	}
}

func (cfg *encodeConfig) fill(c colorimetry.RGB) color.NRGBA {
	ans := c.NRGBA()
	if cfg.opacity {
		ans.A = uint8(c.Opacity()*255 + 0.5)
	}
	return ans
}

// Swatch returns a width×height image filled with c.
func Swatch(c colorimetry.RGB, width, height int, opts ...EncodeOption) *image.NRGBA {
	return Strip([]colorimetry.RGB{c}, width, height, opts...)
}

// Strip returns an image of the colors side by side, each in a cell of
// width×height pixels.
func Strip(colors []colorimetry.RGB, width, height int, opts ...EncodeOption) *image.NRGBA {
	cfg := defaultEncodeConfig
	for _, option := range opts {
		option(&cfg)
	}
	width, height = max(1, width), max(1, height)
	ans := image.NewNRGBA(image.Rect(0, 0, width*max(1, len(colors)), height))
	for i, c := range colors {
		cell := image.Rect(i*width, 0, (i+1)*width, height)
		draw.Draw(ans, cell, image.NewUniform(cfg.fill(c)), image.Point{}, draw.Src)
	}
	return ans
}

func flatten(img image.Image, bg color.Color) image.Image {
	ans := image.NewNRGBA(img.Bounds())
	draw.Draw(ans, ans.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(ans, ans.Bounds(), img, img.Bounds().Min, draw.Over)
	return ans
}

// Encode writes the image img to w in the specified raster format (PNG, TIFF
// or BMP). BMP has no alpha channel so translucent images are composed onto
// the background first.
func Encode(w io.Writer, img image.Image, format Format, opts ...EncodeOption) error {
	cfg := defaultEncodeConfig
	for _, option := range opts {
		option(&cfg)
	}

	switch format {
	case PNG:
		encoder := png.Encoder{CompressionLevel: cfg.pngCompressionLevel}
		return encoder.Encode(w, img)

	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})

	case BMP:
		return bmp.Encode(w, flatten(img, cfg.background))
	}

	return fmt.Errorf("%w: cannot encode an image as %s", ErrUnsupportedFormat, format)
}

// Save saves the image to file with the specified filename. The format is
// determined from the filename extension.
func Save(img image.Image, filename string, opts ...EncodeOption) (err error) {
	f, err := FormatFromFilename(filename)
	if err != nil {
		return err
	}
	if !f.Raster() {
		return fmt.Errorf("%w: cannot encode an image as %s", ErrUnsupportedFormat, f)
	}
	return save(filename, func(w io.Writer) error { return Encode(w, img, f, opts...) })
}

func save(filename string, write func(io.Writer) error) (err error) {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	err = write(file)
	errc := file.Close()
	if err == nil {
		err = errc
	}
	return err
}
