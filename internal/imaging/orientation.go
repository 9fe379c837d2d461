package imaging

import (
	"bytes"
	"image"
	"image/draw"

	"github.com/rwcarlsen/goexif/exif"
)

// Orientation is the EXIF orientation tag value (1-8).
type Orientation int

const (
	OrientNormal              Orientation = 1
	OrientFlipH               Orientation = 2
	OrientRotate180           Orientation = 3
	OrientFlipV               Orientation = 4
	OrientTranspose           Orientation = 5
	OrientRotate90            Orientation = 6
	OrientTransverse          Orientation = 7
	OrientRotate270           Orientation = 8
)

// ReadOrientation extracts the EXIF orientation from encoded image bytes.
// Missing or unreadable metadata maps to OrientNormal.
func ReadOrientation(data []byte) Orientation {
	meta, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return OrientNormal
	}
	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return OrientNormal
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return OrientNormal
	}
	return Orientation(v)
}

// ApplyOrientation rotates/flips img so the result reads top-left first.
// Applied before any geometric reasoning so centroid and orientation
// analyzers see the upright image.
func ApplyOrientation(img image.Image, orient Orientation) image.Image {
	if orient <= OrientNormal || orient > OrientRotate270 {
		return img
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var dst *image.RGBA
	switch orient {
	case OrientTranspose, OrientRotate90, OrientTransverse, OrientRotate270:
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	default:
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	src := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(src, src.Bounds(), img, bounds.Min, draw.Src)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.RGBAAt(x, y)
			switch orient {
			case OrientFlipH:
				dst.SetRGBA(w-1-x, y, c)
			case OrientRotate180:
				dst.SetRGBA(w-1-x, h-1-y, c)
			case OrientFlipV:
				dst.SetRGBA(x, h-1-y, c)
			case OrientTranspose:
				dst.SetRGBA(y, x, c)
			case OrientRotate90:
				dst.SetRGBA(h-1-y, x, c)
			case OrientTransverse:
				dst.SetRGBA(h-1-y, w-1-x, c)
			case OrientRotate270:
				dst.SetRGBA(y, w-1-x, c)
			}
		}
	}
	return dst
}
