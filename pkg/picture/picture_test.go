package picture

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{200, 10, 10, 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return &buf
}

func TestNormalizeSquaresAndEncodesJPEG(t *testing.T) {
	out, err := Normalize(pngOf(t, 1200, 600), DefaultOptions())
	require.NoError(t, err)

	img, format, err := decodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 400, img.Width)
	assert.Equal(t, 400, img.Height)
}

func TestNormalizeUpscalesSmallImages(t *testing.T) {
	out, err := Normalize(pngOf(t, 20, 30), Options{Size: 64, Quality: 90})
	require.NoError(t, err)
	img, _, err := decodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Width)
	assert.Equal(t, 64, img.Height)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize(strings.NewReader("definitely not an image"), DefaultOptions())
	assert.ErrorIs(t, err, ErrNotImage)
}
