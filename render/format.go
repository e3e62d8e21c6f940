package render

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var _ = fmt.Print

// Format is an output file format.
type Format int

// Output formats. Swatches and sweeps are raster images, plots can also be
// vector graphics.
const (
	UNKNOWN Format = iota
	PNG
	TIFF
	BMP
	SVG
	PDF
)

var FormatExts = map[string]Format{
	"png":  PNG,
	"apng": PNG,
	"tif":  TIFF,
	"tiff": TIFF,
	"bmp":  BMP,
	"svg":  SVG,
	"pdf":  PDF,
}

var formatNames = map[Format]string{
	PNG:  "PNG",
	TIFF: "TIFF",
	BMP:  "BMP",
	SVG:  "SVG",
	PDF:  "PDF",
}

func (f Format) String() string {
	return formatNames[f]
}

// Raster reports whether the format stores pixels.
func (f Format) Raster() bool {
	return f == PNG || f == TIFF || f == BMP
}

// ErrUnsupportedFormat means the given format is not supported.
var ErrUnsupportedFormat = errors.New("render: unsupported format")

// FormatFromExtension parses the format from a filename extension:
// "png" (or "apng"), "tif" (or "tiff"), "bmp", "svg" and "pdf" are supported.
func FormatFromExtension(ext string) (Format, error) {
	if f, ok := FormatExts[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return f, nil
	}
	return UNKNOWN, ErrUnsupportedFormat
}

// FormatFromFilename parses the format from the extension of filename.
func FormatFromFilename(filename string) (Format, error) {
	return FormatFromExtension(filepath.Ext(filename))
}
