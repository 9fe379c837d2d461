package analyzer

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/anime-shed/visual-pipeline-go/internal/imaging"
)

// TensorWindowRadius is the smoothing radius for the structure tensor.
const TensorWindowRadius = 3

// TextureResult carries the orientation field and coherence map.
type TextureResult struct {
	OrientationMap *image.RGBA // gradient angle on a cyclic hue wheel
	CoherenceMap   *image.Gray
	Stats          TextureStats
}

// AnalyzeTexture builds a box-smoothed structure tensor from directional
// gradients. Coherence is the normalized eigenvalue-difference ratio
// sqrt((Jxx-Jyy)² + 4Jxy²) / (Jxx+Jyy), clamped to [0,1]; orientation is
// the dominant local angle mapped to a cyclic color channel.
func AnalyzeTexture(buf *imaging.Buffer) TextureResult {
	luma := lumaPlane(buf)
	gx, gy := sobel(luma)
	w, h := luma.w, luma.h

	jxx := newPlane(w, h)
	jyy := newPlane(w, h)
	jxy := newPlane(w, h)
	for i := range jxx.data {
		jxx.data[i] = gx.data[i] * gx.data[i]
		jyy.data[i] = gy.data[i] * gy.data[i]
		jxy.data[i] = gx.data[i] * gy.data[i]
	}
	sxx := boxSmooth(jxx, TensorWindowRadius)
	syy := boxSmooth(jyy, TensorWindowRadius)
	sxy := boxSmooth(jxy, TensorWindowRadius)

	orientation := image.NewRGBA(image.Rect(0, 0, w, h))
	coherenceMap := image.NewGray(image.Rect(0, 0, w, h))
	coherences := make([]float64, 0, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			xx := sxx.at(x, y)
			yy := syy.at(x, y)
			xy := sxy.at(x, y)

			trace := xx + yy
			var coh float64
			if trace > 1e-12 {
				coh = math.Sqrt((xx-yy)*(xx-yy)+4*xy*xy) / trace
				if coh > 1 {
					coh = 1
				}
			}
			coherences = append(coherences, coh)
			coherenceMap.SetGray(x, y, color.Gray{Y: uint8(coh*255 + 0.5)})

			// Dominant orientation in [0,π), doubled onto the full
			// hue wheel so the representation is cyclic.
			theta := 0.5 * math.Atan2(2*xy, xx-yy)
			hue := (theta + math.Pi/2) / math.Pi * 360.0
			c := hueColor(math.Mod(hue, 360))
			// Fade flat regions toward gray so orientation noise in
			// uniform areas does not dominate the visualization.
			c.R = fade(c.R, coh)
			c.G = fade(c.G, coh)
			c.B = fade(c.B, coh)
			orientation.SetRGBA(x, y, c)
		}
	}

	mean := 0.0
	if len(coherences) > 0 {
		mean = stat.Mean(coherences, nil)
	}

	return TextureResult{
		OrientationMap: orientation,
		CoherenceMap:   coherenceMap,
		Stats:          TextureStats{MeanCoherence: mean},
	}
}

func fade(c uint8, coh float64) uint8 {
	return uint8(float64(c)*coh + 128*(1-coh))
}
