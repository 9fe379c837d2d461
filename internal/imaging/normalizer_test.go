package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	apperrors "github.com/anime-shed/visual-pipeline-go/internal/errors"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestNormalize_SmallImageUnchanged(t *testing.T) {
	n := NewNormalizer(0)
	data := encodePNG(t, 120, 90, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	buf, err := n.Normalize(data, DefaultMaxSide)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if buf.W != 120 || buf.H != 90 {
		t.Errorf("dimensions = %dx%d, want 120x90 (never upscale)", buf.W, buf.H)
	}
	r, g, b := buf.RGB(60, 45)
	if r != 10 || g != 20 || b != 30 {
		t.Errorf("pixel = (%d,%d,%d), want (10,20,30)", r, g, b)
	}
}

func TestNormalize_DownscalePreservesAspect(t *testing.T) {
	n := NewNormalizer(0)
	data := encodePNG(t, 1600, 1200, color.RGBA{R: 128, G: 128, B: 128, A: 255})

	buf, err := n.Normalize(data, 800)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if buf.W != 800 {
		t.Errorf("width = %d, want 800", buf.W)
	}
	// 1200 * 800/1600 = 600, rounding may move it by one
	if buf.H < 599 || buf.H > 601 {
		t.Errorf("height = %d, want ~600", buf.H)
	}
}

func TestNormalize_PortraitDownscale(t *testing.T) {
	n := NewNormalizer(0)
	data := encodePNG(t, 500, 2000, color.RGBA{A: 255})

	buf, err := n.Normalize(data, 800)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if buf.H != 800 {
		t.Errorf("height = %d, want 800", buf.H)
	}
	if buf.W < 199 || buf.W > 201 {
		t.Errorf("width = %d, want ~200", buf.W)
	}
}

func TestNormalize_UnsupportedData(t *testing.T) {
	n := NewNormalizer(0)

	_, err := n.Normalize([]byte("definitely not an image"), DefaultMaxSide)
	if err == nil {
		t.Fatal("expected error for garbage input")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeUnsupportedFormat) {
		t.Errorf("error type = %v, want unsupported format", err)
	}
}

func TestNormalize_RejectsOversizedBeforeDecode(t *testing.T) {
	n := NewNormalizer(100)
	data := encodePNG(t, 200, 50, color.RGBA{A: 255})

	_, err := n.Normalize(data, DefaultMaxSide)
	if err == nil {
		t.Fatal("expected too-large rejection")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeImageTooLarge) {
		t.Errorf("error type = %v, want image too large", err)
	}
}

func TestNormalize_AlphaFlattenedOntoWhite(t *testing.T) {
	n := NewNormalizer(0)

	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			// Half-transparent pure red
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 128})
		}
	}
	var raw bytes.Buffer
	if err := png.Encode(&raw, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	buf, err := n.Normalize(raw.Bytes(), DefaultMaxSide)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	r, g, b := buf.RGB(5, 5)
	// Composited onto white: red stays high, green and blue come from
	// the white background showing through.
	if r < 250 {
		t.Errorf("red = %d, want near 255", r)
	}
	if g < 120 || g > 135 || b < 120 || b > 135 {
		t.Errorf("background showthrough = (%d,%d), want ~127", g, b)
	}
}

func TestBufferCloneIsolation(t *testing.T) {
	buf := NewBuffer(4, 4)
	buf.SetRGB(1, 1, 9, 9, 9)

	dup := buf.Clone()
	dup.SetRGB(1, 1, 200, 200, 200)

	r, _, _ := buf.RGB(1, 1)
	if r != 9 {
		t.Errorf("clone mutation leaked into original: r = %d", r)
	}
}
