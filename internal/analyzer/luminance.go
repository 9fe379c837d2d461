package analyzer

import (
	"image"

	"github.com/anime-shed/visual-pipeline-go/internal/imaging"
)

// ContrastRadius is the window radius of the local-variance estimate.
const ContrastRadius = 7

// LuminanceResult carries the lightness analysis maps.
type LuminanceResult struct {
	LightnessMap *image.Gray // perceptual lightness, contrast stretched
	VarianceMap  *image.Gray // windowed local variance, scaled by its max
	Stats        LuminanceStats
}

// AnalyzeLuminance converts the buffer to perceptual lightness and
// estimates local contrast with a sliding-box variance over a fixed
// radius.
func AnalyzeLuminance(buf *imaging.Buffer) LuminanceResult {
	light := lightnessPlane(buf)

	var sum float64
	for _, v := range light.data {
		sum += v
	}
	mean := 0.0
	if len(light.data) > 0 {
		mean = sum / float64(len(light.data))
	}

	variance := localVariance(light, ContrastRadius)
	_, maxVar := variance.minMax()

	lo, hi := light.minMax()
	return LuminanceResult{
		LightnessMap: light.toGray(lo, hi),
		VarianceMap:  variance.toGray(0, maxVar),
		Stats: LuminanceStats{
			MeanLightness:    mean,
			MaxLocalVariance: maxVar,
		},
	}
}

// localVariance computes per-pixel variance within a (2r+1)² box using
// summed-area tables, so cost is independent of the radius.
func localVariance(p *plane, radius int) *plane {
	w, h := p.w, p.h
	out := newPlane(w, h)
	if w == 0 || h == 0 {
		return out
	}

	sum := newIntegral(p, func(v float64) float64 { return v })
	sumSq := newIntegral(p, func(v float64) float64 { return v * v })

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				x0, x1 := x-radius, x+radius+1
				yy0, yy1 := y-radius, y+radius+1
				if x0 < 0 {
					x0 = 0
				}
				if yy0 < 0 {
					yy0 = 0
				}
				if x1 > w {
					x1 = w
				}
				if yy1 > h {
					yy1 = h
				}
				n := float64((x1 - x0) * (yy1 - yy0))
				s := sum.box(x0, yy0, x1, yy1)
				sq := sumSq.box(x0, yy0, x1, yy1)
				v := sq/n - (s/n)*(s/n)
				if v < 0 {
					v = 0 // floating cancellation near uniform regions
				}
				out.set(x, y, v)
			}
		}
	})
	return out
}

// integral is a summed-area table with a one-cell zero border.
type integral struct {
	w, h int
	data []float64
}

func newIntegral(p *plane, f func(float64) float64) *integral {
	w, h := p.w, p.h
	it := &integral{w: w + 1, h: h + 1, data: make([]float64, (w+1)*(h+1))}
	for y := 0; y < h; y++ {
		rowSum := 0.0
		for x := 0; x < w; x++ {
			rowSum += f(p.at(x, y))
			it.data[(y+1)*it.w+(x+1)] = it.data[y*it.w+(x+1)] + rowSum
		}
	}
	return it
}

// box sums the half-open rectangle [x0,x1)×[y0,y1).
func (it *integral) box(x0, y0, x1, y1 int) float64 {
	return it.data[y1*it.w+x1] - it.data[y0*it.w+x1] - it.data[y1*it.w+x0] + it.data[y0*it.w+x0]
}
