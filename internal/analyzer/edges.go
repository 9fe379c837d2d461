package analyzer

import (
	"image"
	"image/color"
	"math"

	"github.com/anime-shed/visual-pipeline-go/internal/imaging"
)

// Dual thresholds for the edge classifier on the gradient-magnitude scale.
const (
	EdgeLowThreshold  = 50.0
	EdgeHighThreshold = 150.0
)

// CornerRelativeThreshold keeps corner responses above this fraction of
// the maximum response.
const CornerRelativeThreshold = 0.01

// harrisK is the standard corner-response trace weight.
const harrisK = 0.04

// EdgeResult carries the edge, gradient and corner visualizations.
type EdgeResult struct {
	EdgeMap     *image.Gray // dual-threshold: strong=255, weak=128
	GradientMap *image.Gray // magnitude scaled by observed max
	CornerMap   *image.Gray
	Stats       EdgeStats
}

// AnalyzeEdges computes Sobel gradients, classifies edges with fixed dual
// thresholds and derives a corner-density map from the Harris response
// with a 1% relative cutoff.
func AnalyzeEdges(buf *imaging.Buffer) EdgeResult {
	luma := lumaPlane(buf)
	gx, gy := sobel(luma)
	w, h := luma.w, luma.h

	mag := newPlane(w, h)
	for i := range mag.data {
		mag.data[i] = math.Hypot(gx.data[i], gy.data[i])
	}
	_, maxMag := mag.minMax()

	edgeMap := image.NewGray(image.Rect(0, 0, w, h))
	strong := 0
	var gradSum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := mag.at(x, y)
			gradSum += m
			switch {
			case m >= EdgeHighThreshold:
				edgeMap.SetGray(x, y, color.Gray{Y: 255})
				strong++
			case m >= EdgeLowThreshold:
				edgeMap.SetGray(x, y, color.Gray{Y: 128})
			}
		}
	}

	corners, count := harrisCorners(gx, gy)

	n := float64(w * h)
	stats := EdgeStats{CornerCount: count}
	if n > 0 {
		stats.EdgeDensity = float64(strong) / n
		stats.MeanGradient = gradSum / n
		stats.CornerDensity = float64(count) / n
	}

	return EdgeResult{
		EdgeMap:     edgeMap,
		GradientMap: mag.toGray(0, maxMag),
		CornerMap:   corners,
		Stats:       stats,
	}
}

// sobel returns horizontal and vertical gradient planes. Border pixels
// stay zero.
func sobel(p *plane) (*plane, *plane) {
	w, h := p.w, p.h
	gx := newPlane(w, h)
	gy := newPlane(w, h)
	if w < 3 || h < 3 {
		return gx, gy
	}
	parallelRows(h-2, func(y0, y1 int) {
		for y := y0 + 1; y < y1+1; y++ {
			for x := 1; x < w-1; x++ {
				tl, t, tr := p.at(x-1, y-1), p.at(x, y-1), p.at(x+1, y-1)
				l, r := p.at(x-1, y), p.at(x+1, y)
				bl, b, br := p.at(x-1, y+1), p.at(x, y+1), p.at(x+1, y+1)
				gx.set(x, y, -tl+tr-2*l+2*r-bl+br)
				gy.set(x, y, -tl-2*t-tr+bl+2*b+br)
			}
		}
	})
	return gx, gy
}

// harrisCorners computes the corner-response map det(M) - k·trace(M)²
// over box-smoothed gradient products and thresholds it at 1% of the
// maximum response.
func harrisCorners(gx, gy *plane) (*image.Gray, int) {
	w, h := gx.w, gx.h
	out := image.NewGray(image.Rect(0, 0, w, h))

	jxx := newPlane(w, h)
	jyy := newPlane(w, h)
	jxy := newPlane(w, h)
	for i := range jxx.data {
		jxx.data[i] = gx.data[i] * gx.data[i]
		jyy.data[i] = gy.data[i] * gy.data[i]
		jxy.data[i] = gx.data[i] * gy.data[i]
	}

	const window = 2
	sxx := boxSmooth(jxx, window)
	syy := boxSmooth(jyy, window)
	sxy := boxSmooth(jxy, window)

	resp := newPlane(w, h)
	maxResp := 0.0
	for i := range resp.data {
		det := sxx.data[i]*syy.data[i] - sxy.data[i]*sxy.data[i]
		trace := sxx.data[i] + syy.data[i]
		r := det - harrisK*trace*trace
		resp.data[i] = r
		if r > maxResp {
			maxResp = r
		}
	}
	if maxResp <= 0 {
		return out, 0
	}

	threshold := maxResp * CornerRelativeThreshold
	count := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if r := resp.at(x, y); r > threshold {
				out.SetGray(x, y, color.Gray{Y: uint8(r / maxResp * 255)})
				count++
			}
		}
	}
	return out, count
}

// boxSmooth averages over a (2r+1)² window using summed-area tables.
func boxSmooth(p *plane, radius int) *plane {
	w, h := p.w, p.h
	out := newPlane(w, h)
	if w == 0 || h == 0 {
		return out
	}
	it := newIntegral(p, func(v float64) float64 { return v })
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, x1 := maxInt(x-radius, 0), minInt(x+radius+1, w)
			y0, y1 := maxInt(y-radius, 0), minInt(y+radius+1, h)
			n := float64((x1 - x0) * (y1 - y0))
			out.set(x, y, it.box(x0, y0, x1, y1)/n)
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
