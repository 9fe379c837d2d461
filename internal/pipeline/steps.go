package pipeline

import (
	"image"
	"image/color"

	"github.com/anime-shed/visual-pipeline-go/internal/colorspace"
	"github.com/anime-shed/visual-pipeline-go/internal/imaging"
)

// binarize maps luma >= threshold to white and everything else to black.
func binarize(buf *imaging.Buffer, threshold int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, buf.W, buf.H))
	for y := 0; y < buf.H; y++ {
		for x := 0; x < buf.W; x++ {
			r, g, b := buf.RGB(x, y)
			v := uint8(0)
			if int(colorspace.Luma(r, g, b)+0.5) >= threshold {
				v = 255
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}

// quantizeGray collapses luma into the given number of evenly spaced
// tiers, rendered at the tier endpoints so black and white survive.
func quantizeGray(buf *imaging.Buffer, tiers int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, buf.W, buf.H))
	if tiers < 2 {
		tiers = 2
	}
	for y := 0; y < buf.H; y++ {
		for x := 0; x < buf.W; x++ {
			r, g, b := buf.RGB(x, y)
			idx := int(colorspace.Luma(r, g, b)) * tiers / 256
			if idx >= tiers {
				idx = tiers - 1
			}
			out.SetGray(x, y, color.Gray{Y: uint8(idx * 255 / (tiers - 1))})
		}
	}
	return out
}

// lumaMap renders the fixed-weight luma channel directly.
func lumaMap(buf *imaging.Buffer) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, buf.W, buf.H))
	for y := 0; y < buf.H; y++ {
		for x := 0; x < buf.W; x++ {
			r, g, b := buf.RGB(x, y)
			out.SetGray(x, y, color.Gray{Y: uint8(colorspace.Luma(r, g, b) + 0.5)})
		}
	}
	return out
}
