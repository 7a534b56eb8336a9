package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpastrain/internal/models"
)

// createTestImage creates a grayscale test image with the specified dimensions and pattern
func createTestImage(width, height int, pattern func(x, y int) uint16) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: pattern(x, y)})
		}
	}
	return img
}

func TestDecodePNG(t *testing.T) {
	img := createTestImage(5, 3, func(x, y int) uint16 { return uint16(x*1000 + y*10000) })

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	f, format, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 3, f.Rows)
	assert.Equal(t, 5, f.Cols)
	assert.InDelta(t, (4*1000+2*10000)/65535.0, f.At(2, 4), 1e-12)
	assert.Zero(t, f.At(0, 0))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestTIFFRoundTrip(t *testing.T) {
	f := models.NewField(4, 6)
	for k := range f.Data {
		f.Data[k] = float64(k) / float64(len(f.Data)-1)
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeTIFF(&buf, f, 0, 1))

	got, format, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "tiff", format)
	for k := range f.Data {
		assert.InDelta(t, f.Data[k], got.Data[k], 1.0/65535)
	}
}

func TestToImageClampsAndAutoScales(t *testing.T) {
	f := &models.Field{Data: []float64{-2, 0, 2, 5}, Rows: 1, Cols: 4}

	img := ToImage(f, -1, 1)
	assert.Equal(t, uint16(0), img.Gray16At(0, 0).Y)
	assert.Equal(t, uint16(32768), img.Gray16At(1, 0).Y)
	assert.Equal(t, uint16(65535), img.Gray16At(2, 0).Y)
	assert.Equal(t, uint16(65535), img.Gray16At(3, 0).Y)

	auto := ToImage(f, 0, 0)
	assert.Equal(t, uint16(0), auto.Gray16At(0, 0).Y)
	assert.Equal(t, uint16(65535), auto.Gray16At(3, 0).Y)

	flat := ToImage(&models.Field{Data: []float64{3, 3}, Rows: 1, Cols: 2}, 0, 0)
	assert.Equal(t, uint16(0), flat.Gray16At(1, 0).Y)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fields", "exx.tif")

	f := &models.Field{Data: []float64{0, 0.25, 0.5, 0.75, 1, 0.5, 0.25, 0, 1}, Rows: 3, Cols: 3}
	require.NoError(t, SaveTIFF(path, f, 0, 1))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rows)
	assert.InDelta(t, 0.75, got.At(1, 0), 1.0/65535)

	_, err = Load(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
