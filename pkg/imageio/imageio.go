// Package imageio converts between image files and real pixel grids.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"

	"gpastrain/internal/models"
)

// Decode reads a TIFF, PNG or JPEG image and returns its luminance as a
// field with values in [0, 1], together with the detected format name.
// TIFF files must use 8 or 16 bit integer samples; floating-point TIFFs are
// not supported by the decoder and return an error.
func Decode(r io.Reader) (*models.Field, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("error decoding image: %w", err)
	}
	return ToField(img), format, nil
}

// Load decodes the image file at path
func Load(path string) (*models.Field, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, _, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ToField converts img to 16-bit luminance scaled to [0, 1]
func ToField(img image.Image) *models.Field {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	f := models.NewField(height, width)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			f.Data[y*width+x] = float64(g.Y) / 65535.0
		}
	}
	return f
}

// ToImage maps f linearly from [lo, hi] onto 16-bit grey levels, clamping
// values outside the range. If lo >= hi the field's own range is used.
func ToImage(f *models.Field, lo, hi float64) *image.Gray16 {
	if lo >= hi {
		lo, hi = fieldRange(f)
	}
	scale := 0.0
	if hi > lo {
		scale = 65535 / (hi - lo)
	}

	img := image.NewGray16(image.Rect(0, 0, f.Cols, f.Rows))
	for y := 0; y < f.Rows; y++ {
		for x := 0; x < f.Cols; x++ {
			v := (f.Data[y*f.Cols+x] - lo) * scale
			v = math.Max(0, math.Min(65535, v))
			img.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(v))})
		}
	}
	return img
}

func fieldRange(f *models.Field) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range f.Data {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// EncodeTIFF writes f as a 16-bit greyscale TIFF, see ToImage for scaling
func EncodeTIFF(w io.Writer, f *models.Field, lo, hi float64) error {
	return tiff.Encode(w, ToImage(f, lo, hi), &tiff.Options{Compression: tiff.Deflate})
}

// SaveTIFF writes f to path, creating parent directories as needed
func SaveTIFF(path string, f *models.Field, lo, hi float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	if err := EncodeTIFF(file, f, lo, hi); err != nil {
		file.Close()
		return fmt.Errorf("error encoding %s: %w", path, err)
	}
	return file.Close()
}
