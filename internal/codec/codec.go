// Package codec compresses output maps into image artifacts under a
// byte budget. Encoding attempts run as an ordered strategy chain with
// a common contract: lossless PNG first, then JPEG at decreasing
// quality, then iterative downscaling as a last resort.
package codec

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/anime-shed/visual-pipeline-go/pkg/models"
)

// DefaultBudget is the per-artifact byte ceiling.
const DefaultBudget = 400 * 1024

const (
	jpegStartQuality = 90
	jpegFloorQuality = 30
	jpegQualityStep  = 10

	downscaleFactor  = 0.7
	downscaleMinSide = 64
)

// Artifact is the shared models type; the alias keeps codec signatures
// local.
type Artifact = models.Artifact

// encodeStrategy attempts one way of fitting img under budget. ok
// reports whether the attempt fit; data/format are the best bytes the
// strategy produced either way (may be nil if it produced none).
type encodeStrategy func(img image.Image, budget int) (data []byte, format string, ok bool)

// Encoder compresses images under a configured byte budget.
type Encoder struct {
	budget int
	chain  []encodeStrategy
}

// NewEncoder creates an Encoder; a non-positive budget selects
// DefaultBudget.
func NewEncoder(budget int) *Encoder {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Encoder{
		budget: budget,
		chain:  []encodeStrategy{tryPNG, tryJPEGQualities, tryDownscale},
	}
}

// Encode runs the strategy chain and returns the artifact. When no
// strategy fits the budget the smallest attempt is returned with
// BudgetExceeded set.
func (e *Encoder) Encode(name string, img image.Image) Artifact {
	b := img.Bounds()
	art := Artifact{Name: name, Width: b.Dx(), Height: b.Dy()}

	var bestData []byte
	bestFormat := ""
	for _, strat := range e.chain {
		data, format, ok := strat(img, e.budget)
		if data != nil && (bestData == nil || len(data) < len(bestData)) {
			bestData = data
			bestFormat = format
		}
		if ok {
			art.Data = data
			art.Format = format
			art.Size = len(data)
			return art
		}
	}

	art.Data = bestData
	art.Format = bestFormat
	art.Size = len(bestData)
	art.BudgetExceeded = true
	return art
}

func tryPNG(img image.Image, budget int) ([]byte, string, bool) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", false
	}
	return buf.Bytes(), "png", buf.Len() <= budget
}

func tryJPEGQualities(img image.Image, budget int) ([]byte, string, bool) {
	var best []byte
	for q := jpegStartQuality; q >= jpegFloorQuality; q -= jpegQualityStep {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return best, "jpeg", false
		}
		best = buf.Bytes()
		if buf.Len() <= budget {
			return best, "jpeg", true
		}
	}
	return best, "jpeg", false
}

func tryDownscale(img image.Image, budget int) ([]byte, string, bool) {
	current := img
	var best []byte
	for {
		b := current.Bounds()
		newW := int(float64(b.Dx()) * downscaleFactor)
		newH := int(float64(b.Dy()) * downscaleFactor)
		if newW < downscaleMinSide || newH < downscaleMinSide {
			return best, "jpeg", false
		}
		dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), current, b, xdraw.Src, nil)
		current = dst

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, current, &jpeg.Options{Quality: jpegFloorQuality}); err != nil {
			return best, "jpeg", false
		}
		best = buf.Bytes()
		if buf.Len() <= budget {
			return best, "jpeg", true
		}
	}
}
