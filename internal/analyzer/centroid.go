package analyzer

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anime-shed/visual-pipeline-go/internal/imaging"
)

// CentroidResult carries the marker visualization and the centroid.
type CentroidResult struct {
	MarkerMap *image.RGBA
	Stats     CentroidStats
}

// AnalyzeCentroid computes the lightness-weighted centroid using explicit
// coordinate accumulators (x weighted by column index, y by row index, so
// the two axes cannot be swapped by iteration order), clamps it inside
// the image and draws a crosshair marker at the rounded position.
func AnalyzeCentroid(buf *imaging.Buffer) CentroidResult {
	light := lightnessPlane(buf)

	var totalW, sumX, sumY float64
	for y := 0; y < buf.H; y++ {
		for x := 0; x < buf.W; x++ {
			wgt := light.at(x, y)
			totalW += wgt
			sumX += wgt * float64(x)
			sumY += wgt * float64(y)
		}
	}

	// A zero-lightness image centers the marker.
	cx := float64(buf.W-1) / 2
	cy := float64(buf.H-1) / 2
	if totalW > 0 {
		cx = sumX / totalW
		cy = sumY / totalW
	}

	xi := clampInt(int(math.Round(cx)), 0, buf.W-1)
	yi := clampInt(int(math.Round(cy)), 0, buf.H-1)

	marker := image.NewRGBA(image.Rect(0, 0, buf.W, buf.H))
	draw.Draw(marker, marker.Bounds(), buf.Image(), image.Point{}, draw.Src)
	drawCrosshair(marker, xi, yi)

	return CentroidResult{
		MarkerMap: marker,
		Stats: CentroidStats{
			X:     xi,
			Y:     yi,
			NormX: safeDiv(cx, float64(buf.W-1)),
			NormY: safeDiv(cy, float64(buf.H-1)),
		},
	}
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0.5
	}
	return a / b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func drawCrosshair(img *image.RGBA, cx, cy int) {
	const arm = 12
	mark := color.RGBA{255, 0, 0, 255}
	b := img.Bounds()
	for d := -arm; d <= arm; d++ {
		if x := cx + d; x >= b.Min.X && x < b.Max.X {
			img.SetRGBA(x, cy, mark)
		}
		if y := cy + d; y >= b.Min.Y && y < b.Max.Y {
			img.SetRGBA(cx, y, mark)
		}
	}
}
