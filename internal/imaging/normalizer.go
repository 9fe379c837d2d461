package imaging

import (
	"bytes"
	"fmt"
	"image"
	"math"

	// Decode whitelist: stdlib formats plus the x/image rasters.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/anime-shed/visual-pipeline-go/internal/errors"
)

// DefaultMaxSide bounds the working resolution for pipeline runs.
// Ad-hoc single-map analysis may pass a larger bound.
const DefaultMaxSide = 800

// DefaultMaxRawSide is the pre-decode dimension ceiling. Images above it
// are rejected before any pixel work to protect memory.
const DefaultMaxRawSide = 20000

var supportedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
	"tiff": true,
}

// Normalizer decodes, orients, flattens and bounds raster input into an
// RGB Buffer. It performs no I/O of its own.
type Normalizer struct {
	maxRawSide int
}

// NewNormalizer creates a Normalizer with the given raw-dimension ceiling.
// A non-positive ceiling selects DefaultMaxRawSide.
func NewNormalizer(maxRawSide int) *Normalizer {
	if maxRawSide <= 0 {
		maxRawSide = DefaultMaxRawSide
	}
	return &Normalizer{maxRawSide: maxRawSide}
}

// Normalize decodes data and returns an RGB buffer whose longer side is
// at most maxSide. It never upscales.
func (n *Normalizer) Normalize(data []byte, maxSide int) (*Buffer, error) {
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewUnsupportedFormatError("unrecognized image encoding", err)
	}
	if !supportedFormats[format] {
		return nil, apperrors.NewUnsupportedFormatError(fmt.Sprintf("format %q not supported", format), nil)
	}
	if cfg.Width > n.maxRawSide || cfg.Height > n.maxRawSide {
		return nil, apperrors.NewImageTooLargeError(
			fmt.Sprintf("image %dx%d exceeds %dpx ceiling", cfg.Width, cfg.Height, n.maxRawSide), nil)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, apperrors.NewProcessingError("image has zero dimension", nil)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to decode image", err)
	}

	// Orientation is applied before any geometric reasoning.
	img = ApplyOrientation(img, ReadOrientation(data))

	buf := FromImage(img)
	return downscale(buf, maxSide), nil
}

// downscale bounds the longer side to maxSide using Catmull-Rom
// resampling, preserving aspect ratio via integer rounding. Images
// already within the bound are returned unchanged.
func downscale(buf *Buffer, maxSide int) *Buffer {
	longer := buf.W
	if buf.H > longer {
		longer = buf.H
	}
	if longer <= maxSide {
		return buf
	}

	scale := float64(maxSide) / float64(longer)
	newW := int(math.Round(float64(buf.W) * scale))
	newH := int(math.Round(float64(buf.H) * scale))
	if buf.W >= buf.H {
		newW = maxSide
	} else {
		newH = maxSide
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), buf.Image(), image.Rect(0, 0, buf.W, buf.H), xdraw.Src, nil)
	return FromImage(dst)
}
