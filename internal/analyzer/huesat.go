package analyzer

import (
	"image"
	"image/color"

	"github.com/anime-shed/visual-pipeline-go/internal/colorspace"
	"github.com/anime-shed/visual-pipeline-go/internal/imaging"
)

// Gamut-extreme thresholds on the 0-255 HSV scale.
const (
	OverexposedValue  = 250
	UnderexposedValue = 10
	OversaturatedSat  = 240
)

// HueSatResult carries the hue and saturation visualizations.
type HueSatResult struct {
	HueMap        *image.RGBA // hue at full saturation/value
	SaturationMap *image.Gray
	InverseSatMap *image.Gray
	ExtremesMap   *image.RGBA // over=red, under=blue, oversaturated=yellow
	Stats         HueSatStats
}

// AnalyzeHueSaturation builds the 36-bin hue histogram, the saturation
// channel with its inverse, and flags per-pixel gamut extremes with the
// fixed thresholds above.
func AnalyzeHueSaturation(buf *imaging.Buffer) HueSatResult {
	w, h := buf.W, buf.H
	res := HueSatResult{
		HueMap:        image.NewRGBA(image.Rect(0, 0, w, h)),
		SaturationMap: image.NewGray(image.Rect(0, 0, w, h)),
		InverseSatMap: image.NewGray(image.Rect(0, 0, w, h)),
		ExtremesMap:   image.NewRGBA(image.Rect(0, 0, w, h)),
	}

	var satSum float64
	var over, under, oversat int

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := buf.RGB(x, y)
			hue, s, v := colorspace.RGBToHSV(r, g, b)

			bin := int(hue / 360.0 * HueHistogramBins)
			if bin >= HueHistogramBins {
				bin = HueHistogramBins - 1
			}
			res.Stats.Histogram[bin]++

			sat8 := uint8(s*255 + 0.5)
			res.SaturationMap.SetGray(x, y, color.Gray{Y: sat8})
			res.InverseSatMap.SetGray(x, y, color.Gray{Y: 255 - sat8})
			res.HueMap.SetRGBA(x, y, hueColor(hue))
			satSum += s

			v8 := v * 255
			switch {
			case v8 > OverexposedValue:
				res.ExtremesMap.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
				over++
			case v8 < UnderexposedValue:
				res.ExtremesMap.SetRGBA(x, y, color.RGBA{0, 0, 255, 255})
				under++
			case float64(sat8) > OversaturatedSat:
				res.ExtremesMap.SetRGBA(x, y, color.RGBA{255, 255, 0, 255})
				oversat++
			default:
				res.ExtremesMap.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}

	n := float64(w * h)
	if n > 0 {
		res.Stats.MeanSaturation = satSum / n
		res.Stats.OverexposedRatio = float64(over) / n
		res.Stats.UnderexposedRatio = float64(under) / n
		res.Stats.OversaturatedRatio = float64(oversat) / n
	}
	return res
}

// hueColor renders a hue angle at full saturation and value.
func hueColor(hue float64) color.RGBA {
	h := hue / 60.0
	sector := int(h) % 6
	f := h - float64(int(h))
	q := uint8((1 - f) * 255)
	t := uint8(f * 255)

	switch sector {
	case 0:
		return color.RGBA{255, t, 0, 255}
	case 1:
		return color.RGBA{q, 255, 0, 255}
	case 2:
		return color.RGBA{0, 255, t, 255}
	case 3:
		return color.RGBA{0, q, 255, 255}
	case 4:
		return color.RGBA{t, 0, 255, 255}
	default:
		return color.RGBA{255, 0, q, 255}
	}
}
