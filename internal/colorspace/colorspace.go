// Package colorspace provides the scalar color transforms shared by the
// channel analyzers and the clustering engine: sRGB to CIELAB and back,
// HSV, HLS and Rec.601 luma.
package colorspace

import "math"

// D65 reference white, 2° observer.
const (
	refX = 95.047
	refY = 100.000
	refZ = 108.883
)

func srgbToLinear(c float64) float64 {
	if c > 0.04045 {
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	return c / 12.92
}

func linearToSRGB(c float64) float64 {
	if c > 0.0031308 {
		return 1.055*math.Pow(c, 1.0/2.4) - 0.055
	}
	return 12.92 * c
}

// RGBToLab converts an 8-bit sRGB triple to CIELAB (L in [0,100],
// a and b roughly in [-128,128]).
func RGBToLab(r, g, b uint8) (float64, float64, float64) {
	rl := srgbToLinear(float64(r)/255.0) * 100.0
	gl := srgbToLinear(float64(g)/255.0) * 100.0
	bl := srgbToLinear(float64(b)/255.0) * 100.0

	x := rl*0.4124 + gl*0.3576 + bl*0.1805
	y := rl*0.2126 + gl*0.7152 + bl*0.0722
	z := rl*0.0193 + gl*0.1192 + bl*0.9505

	fx := labF(x / refX)
	fy := labF(y / refY)
	fz := labF(z / refZ)

	return 116.0*fy - 16.0, 500.0 * (fx - fy), 200.0 * (fy - fz)
}

const (
	labEpsilon = 0.008856
	labKappa   = 7.787
)

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return labKappa*t + 16.0/116.0
}

func labFInv(t float64) float64 {
	t3 := t * t * t
	if t3 > labEpsilon {
		return t3
	}
	return (t - 16.0/116.0) / labKappa
}

// LabToRGB converts CIELAB back to 8-bit sRGB, clamping out-of-gamut
// values to the displayable range.
func LabToRGB(l, a, b float64) (uint8, uint8, uint8) {
	fy := (l + 16.0) / 116.0
	fx := fy + a/500.0
	fz := fy - b/200.0

	x := labFInv(fx) * refX
	y := labFInv(fy) * refY
	z := labFInv(fz) * refZ

	rl := (x*3.2406 + y*-1.5372 + z*-0.4986) / 100.0
	gl := (x*-0.9689 + y*1.8758 + z*0.0415) / 100.0
	bl := (x*0.0557 + y*-0.2040 + z*1.0570) / 100.0

	return clampChan(linearToSRGB(rl)), clampChan(linearToSRGB(gl)), clampChan(linearToSRGB(bl))
}

func clampChan(c float64) uint8 {
	v := c * 255.0
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// RGBToHSV returns hue in degrees [0,360), saturation and value in [0,1].
func RGBToHSV(r, g, b uint8) (float64, float64, float64) {
	rf := float64(r) / 255.0
	gf := float64(g) / 255.0
	bf := float64(b) / 255.0

	max := math.Max(rf, math.Max(gf, bf))
	min := math.Min(rf, math.Min(gf, bf))
	delta := max - min

	v := max
	var s float64
	if max > 0 {
		s = delta / max
	}

	var h float64
	switch {
	case delta == 0:
		h = 0
	case max == rf:
		h = 60 * ((gf - bf) / delta)
	case max == gf:
		h = 60 * (((bf - rf) / delta) + 2)
	default:
		h = 60 * (((rf - gf) / delta) + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

// RGBToHLS returns hue in degrees [0,360), lightness and saturation in [0,1].
func RGBToHLS(r, g, b uint8) (float64, float64, float64) {
	rf := float64(r) / 255.0
	gf := float64(g) / 255.0
	bf := float64(b) / 255.0

	max := math.Max(rf, math.Max(gf, bf))
	min := math.Min(rf, math.Min(gf, bf))
	delta := max - min
	l := (max + min) / 2

	var s float64
	if delta > 0 {
		if l < 0.5 {
			s = delta / (max + min)
		} else {
			s = delta / (2 - max - min)
		}
	}

	var h float64
	switch {
	case delta == 0:
		h = 0
	case max == rf:
		h = 60 * ((gf - bf) / delta)
	case max == gf:
		h = 60 * (((bf - rf) / delta) + 2)
	default:
		h = 60 * (((rf - gf) / delta) + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, l, s
}

// Luma is the Rec.601 fixed-weight RGB combination on the 0-255 scale.
func Luma(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// Lightness is the CIELAB L channel in [0,100].
func Lightness(r, g, b uint8) float64 {
	l, _, _ := RGBToLab(r, g, b)
	return l
}
