package imaging

import (
	"image"
	"image/color"
)

// Buffer is a dense 3-channel RGB raster with explicit dimensions.
// It is the working representation every analyzer consumes. Analyzers
// must treat a shared Buffer as read-only and allocate their own
// derived maps.
type Buffer struct {
	W, H int
	Pix  []uint8 // packed RGB, length W*H*3
}

// NewBuffer allocates a zeroed W×H buffer.
func NewBuffer(w, h int) *Buffer {
	return &Buffer{W: w, H: h, Pix: make([]uint8, w*h*3)}
}

// FromImage converts any image.Image into a Buffer, compositing
// transparency onto a white background.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := NewBuffer(w, h)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				buf.Pix[i] = 255
				buf.Pix[i+1] = 255
				buf.Pix[i+2] = 255
			} else if a < 0xffff {
				// Source-over onto white; RGBA() returns
				// alpha-premultiplied components.
				af := float64(a) / 65535.0
				buf.Pix[i] = clamp255((float64(r)/65535.0 + (1 - af)) * 255)
				buf.Pix[i+1] = clamp255((float64(g)/65535.0 + (1 - af)) * 255)
				buf.Pix[i+2] = clamp255((float64(b)/65535.0 + (1 - af)) * 255)
			} else {
				buf.Pix[i] = uint8(r >> 8)
				buf.Pix[i+1] = uint8(g >> 8)
				buf.Pix[i+2] = uint8(b >> 8)
			}
			i += 3
		}
	}
	return buf
}

func clamp255(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// RGB returns the pixel at (x, y).
func (b *Buffer) RGB(x, y int) (uint8, uint8, uint8) {
	i := (y*b.W + x) * 3
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

// SetRGB writes the pixel at (x, y).
func (b *Buffer) SetRGB(x, y int, r, g, bl uint8) {
	i := (y*b.W + x) * 3
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := NewBuffer(b.W, b.H)
	copy(out.Pix, b.Pix)
	return out
}

// Image renders the buffer as an *image.RGBA for encoding.
func (b *Buffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.W, b.H))
	i := 0
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			img.SetRGBA(x, y, color.RGBA{b.Pix[i], b.Pix[i+1], b.Pix[i+2], 255})
			i += 3
		}
	}
	return img
}
