package snapdiff

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/orisano/pixelmatch"
)

// Tolerance bounds how far a capture may drift from its reference.
type Tolerance struct {
	// MaxDiffPixels is the number of differing pixels allowed.
	MaxDiffPixels int

	// Threshold is the per-pixel perceived color distance, between 0
	// (strict) and 1 (lax), above which a pixel counts as differing.
	Threshold float64
}

// DecodePNG decodes a PNG screenshot.
func DecodePNG(buf []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Match counts the pixels of a and b whose color distance exceeds threshold,
// and returns an image highlighting them. The image is blank when none
// differ. Images of different dimensions return ErrSizeMismatch.
func Match(a, b image.Image, threshold float64) (int, image.Image, error) {
	as, bs := a.Bounds().Size(), b.Bounds().Size()
	if as != bs {
		return 0, nil, fmt.Errorf("%w: expected %dx%d, got %dx%d",
			ErrSizeMismatch, bs.X, bs.Y, as.X, as.Y)
	}
	var diff image.Image
	n, err := pixelmatch.MatchPixel(a, b,
		pixelmatch.Threshold(threshold),
		pixelmatch.WriteTo(&diff),
	)
	if err != nil {
		return 0, nil, err
	}
	// pixelmatch skips writing the output for identical images.
	if diff == nil {
		diff = image.NewRGBA(a.Bounds())
	}
	return n, diff, nil
}
