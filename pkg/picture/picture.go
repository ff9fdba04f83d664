// Package picture normalises profile pictures to a fixed square JPEG.
package picture

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// ErrNotImage is returned when the input cannot be decoded as an image.
var ErrNotImage = errors.New("not a decodable image")

// Options controls the output geometry and encoding.
type Options struct {
	Size    int // edge length in pixels
	Quality int // JPEG quality 1-100
}

// DefaultOptions is a 400x400 JPEG at quality 80.
func DefaultOptions() Options {
	return Options{Size: 400, Quality: 80}
}

// Normalize decodes r (honouring EXIF orientation), crops it around the
// centre to a square of opts.Size and returns it JPEG-encoded.
func Normalize(r io.Reader, opts Options) ([]byte, error) {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultOptions().Quality
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	out := imaging.Fill(img, opts.Size, opts.Size, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(opts.Quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
