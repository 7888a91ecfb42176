package snapdiff

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestMatch(t *testing.T) {
	t.Parallel()

	base := dotted(40, 20, 0)
	tests := []struct {
		name string
		img  image.Image
		want int
	}{
		{"identical", dotted(40, 20, 0), 0},
		{"one", dotted(40, 20, 1), 1},
		{"fifteen", dotted(40, 20, 15), 15},
		{"two rows", dotted(40, 20, 25), 25},
	}
	for _, test := range tests {
		n, diff, err := Match(test.img, base, 0.2)
		if err != nil {
			t.Fatalf("%s: %v", test.name, err)
		}
		if n != test.want {
			t.Errorf("%s: want %d, got %d", test.name, test.want, n)
		}
		if diff == nil || diff.Bounds() != base.Bounds() {
			t.Errorf("%s: unexpected diff image", test.name)
		}
	}
}

func TestMatchIdenticalBlankDiff(t *testing.T) {
	t.Parallel()

	a := dotted(40, 20, 3)
	n, diff, err := Match(a, a, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("want 0 differing pixels, got %d", n)
	}
	if diff == nil {
		t.Fatal("want a blank diff image for identical images, got nil")
	}
	if diff.Bounds() != a.Bounds() {
		t.Errorf("want diff bounds %v, got %v", a.Bounds(), diff.Bounds())
	}
	b := diff.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, alpha := diff.At(x, y).RGBA(); alpha != 0 {
				t.Fatalf("want a blank diff, pixel %d,%d is set", x, y)
			}
		}
	}
}

func TestMatchThreshold(t *testing.T) {
	t.Parallel()

	a := image.NewRGBA(image.Rect(0, 0, 4, 4))
	b := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			a.Set(x, y, color.RGBA{200, 200, 200, 255})
			b.Set(x, y, color.RGBA{205, 205, 205, 255})
		}
	}
	// A slight shade difference is within a lax threshold but not a strict
	// one.
	if n, _, err := Match(a, b, 0.2); err != nil || n != 0 {
		t.Errorf("threshold 0.2: want 0, got %d, %v", n, err)
	}
	if n, _, err := Match(a, b, 0); err != nil || n != 16 {
		t.Errorf("threshold 0: want 16, got %d, %v", n, err)
	}
}

func TestMatchSizeMismatch(t *testing.T) {
	t.Parallel()

	_, _, err := Match(dotted(40, 20, 0), dotted(20, 20, 0), 0.2)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("want ErrSizeMismatch, got %v", err)
	}
}

func TestDecodePNG(t *testing.T) {
	t.Parallel()

	img, err := DecodePNG(blankPNG)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got.X != 40 || got.Y != 20 {
		t.Errorf("unexpected size %v", got)
	}
	if _, err := DecodePNG([]byte("GIF89a")); err == nil {
		t.Error("want error decoding a non png")
	}
}
